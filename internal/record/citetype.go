package record

import "strings"

// typeToCite collapses the many source-specific type strings into the
// handful of citation classes the synthesizer understands.
var typeToCite = map[string]string{
	"inbook":              "book",
	"booklet":             "book",
	"incollection":        "book",
	"manual":              "book",
	"article":             "journal",
	"article-journal":     "journal",
	"conference":          "conference",
	"inproceedings":       "conference",
	"mastersthesis":       "thesis",
	"phdthesis":           "thesis",
	"techreport":          "techreport",
	"misc":                "",
	"web":                 "web",
	"book-section":        "book",
	"monograph":           "book",
	"report":              "report",
	"book-track":          "book",
	"journal-article":     "journal",
	"book-part":           "book",
	"other":               "",
	"book":                "book",
	"journal-volume":      "journal",
	"book-set":            "book",
	"reference-entry":     "",
	"proceedings-article": "conference",
	"journal":             "journal",
	"jour":                "journal",
	"jrnl":                "journal",
	"journal article":     "journal",
	"component":           "",
	"book-chapter":        "book",
	"report-series":       "report",
	"proceedings":         "conference",
	"standard":            "",
	"reference-book":      "book",
	"posted-content":      "",
	"journal-issue":       "journal",
	"dissertation":        "thesis",
	"dataset":             "",
	"book-series":         "book",
	"edited-book":         "book",
	"standard-series":     "",
	"rprt":                "report",
	"thesis":              "thesis",
	"chapter":             "book",
}

// CiteClass maps a normalized cite type to the citation class used for
// template selection. Unknown types map to "".
func CiteClass(citeType string) string {
	return typeToCite[strings.ToLower(strings.TrimSpace(citeType))]
}

// InferCiteType normalizes a free-text document type or format into one
/// of the cite_type values of the data model: "article-journal",
// "chapter", "book", or "" when nothing is recognizable. A record with
// no recognizable type defaults to "book", matching how catalogs
// describe the bulk of their holdings.
func InferCiteType(docType string) string {
	t := strings.ToLower(strings.TrimSpace(docType))
	switch {
	case strings.Contains(t, "journal article") || t == "jour":
		return "article-journal"
	case strings.Contains(t, "book chapter") || t == "chap":
		return "chapter"
	case strings.Contains(t, "thesis") || t == "thes":
		return "thesis"
	case strings.Contains(t, "book"):
		return "book"
	case t == "":
		return "book"
	}
	return "book"
}
