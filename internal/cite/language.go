package cite

import "strings"

// twoLetterCodes maps language names and bibliographic three-letter
// codes to ISO 639-1. Catalog records carry all three shapes.
var twoLetterCodes = map[string]string{
	"english":    "en",
	"eng":        "en",
	"german":     "de",
	"deutsch":    "de",
	"ger":        "de",
	"deu":        "de",
	"french":     "fr",
	"fre":        "fr",
	"fra":        "fr",
	"persian":    "fa",
	"farsi":      "fa",
	"per":        "fa",
	"fas":        "fa",
	"spanish":    "es",
	"spa":        "es",
	"italian":    "it",
	"ita":        "it",
	"dutch":      "nl",
	"dut":        "nl",
	"nld":        "nl",
	"latin":      "la",
	"lat":        "la",
	"arabic":     "ar",
	"ara":        "ar",
	"russian":    "ru",
	"rus":        "ru",
	"greek":      "el",
	"gre":        "el",
	"ell":        "el",
	"hebrew":     "he",
	"heb":        "he",
	"portuguese": "pt",
	"por":        "pt",
	"turkish":    "tr",
	"tur":        "tr",
	"chinese":    "zh",
	"chi":        "zh",
	"zho":        "zh",
	"japanese":   "ja",
	"jpn":        "ja",
}

// twoLetterCode normalizes a language designation to ISO 639-1 where
// possible, returning the input unchanged otherwise.
func twoLetterCode(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if code, ok := twoLetterCodes[l]; ok {
		return code
	}
	if len(l) == 2 {
		return l
	}
	return lang
}
