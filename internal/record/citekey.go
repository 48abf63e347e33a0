package record

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	roleBracket = regexp.MustCompile(`\s*\[[^\]]*\]`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]`)
)

// CiteKey synthesizes a BibTeX-style citation key from the first
// author's surname plus the year, falling back to the first editor,
// then to the record id.
func (r *Record) CiteKey() string {
	key := surnameKey(r.Authors)
	if key == "" {
		key = surnameKey(r.Editors)
	}
	if key == "" {
		key = nonAlnum.ReplaceAllString(strings.ToLower(r.ID), "")
	}
	if key == "" {
		key = "unknown"
	}
	if y := ExtractYear(r.Year); y != "" {
		key += y
	}
	return key
}

func surnameKey(names []Name) string {
	if len(names) == 0 {
		return ""
	}
	last := roleBracket.ReplaceAllString(names[0].Last, "")
	if fields := strings.Fields(last); len(fields) > 0 {
		last = fields[len(fields)-1]
	}
	return nonAlnum.ReplaceAllString(foldASCII(strings.ToLower(last)), "")
}

var asciiFold = strings.NewReplacer(
	"ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	"á", "a", "à", "a", "â", "a", "ã", "a", "å", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u",
	"ç", "c", "ñ", "n", "ý", "y",
)

// foldASCII maps common Latin diacritics onto their base letters so
// citation keys stay plain ASCII.
func foldASCII(s string) string {
	return asciiFold.Replace(s)
}

// UniqueKeys assigns citation keys to a batch of records, suffixing
// duplicates with a counter in order of first encounter.
func UniqueKeys(records []*Record) []string {
	keys := make([]string, len(records))
	used := make(map[string]bool, len(records))
	for i, r := range records {
		key := r.CiteKey()
		if used[key] {
			j := 1
			for used[key+strconv.Itoa(j)] {
				j++
			}
			key += strconv.Itoa(j)
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}
