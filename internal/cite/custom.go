package cite

import (
	"regexp"
	"strings"
	"time"

	"github.com/CrispStrobe/citer/internal/record"
)

// Custom renders a record as one narrative citation sentence. Books,
// journal articles, and chapters each have their own shape; anything
// else falls back to the book form.
func Custom(rec *record.Record, now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	switch rec.CiteType {
	case "article-journal", "journal":
		return customArticle(rec, now)
	case "chapter":
		return customChapter(rec)
	default:
		return customBook(rec)
	}
}

// customBook: "Creators: Title: Subtitle (Series), Place: Publisher
// Year, ISBN x." Edited volumes list the editors with an "(ed.)"
// marker.
func customBook(rec *record.Record) string {
	editedVolume := rec.EditedVolume()
	creators := rec.Authors
	if editedVolume {
		creators = rec.Editors
	}
	var names []string
	for _, n := range creators {
		if full := n.Full(); full != "" {
			names = append(names, full)
		}
	}
	creatorsStr := strings.Join(names, ", ")

	titlePart := rec.Title
	if rec.Subtitle != "" {
		titlePart += ": " + rec.Subtitle
	}
	if rec.Series != "" {
		titlePart += " (" + rec.Series + ")"
	}

	var pubBits []string
	if rec.Address != "" {
		pubBits = append(pubBits, rec.Address+":")
	}
	if rec.Publisher != "" {
		pubBits = append(pubBits, rec.Publisher)
	}
	if rec.Year != "" {
		pubBits = append(pubBits, rec.Year)
	}
	pubPart := strings.Join(pubBits, " ")

	var parts []string
	switch {
	case editedVolume:
		parts = append(parts, creatorsStr+" (ed.): "+titlePart)
	case creatorsStr != "":
		parts = append(parts, creatorsStr+": "+titlePart)
	default:
		parts = append(parts, titlePart)
	}
	if pubPart != "" {
		parts = append(parts, pubPart)
	}
	if rec.ISBN != "" {
		parts = append(parts, "ISBN "+rec.ISBN)
	}
	return strings.Join(parts, ", ") + "."
}

var spaceBeforeComma = regexp.MustCompile(`\s+,`)

// customArticle: `Last, First and ...: "Title" in: Journal Vol (Issue)
// (Year), pages.` plus an URL/accessed suffix.
func customArticle(rec *record.Record, now func() time.Time) string {
	var names []string
	for _, n := range rec.Authors {
		if inv := strings.Trim(n.Inverted(), ", "); inv != "" {
			names = append(names, inv)
		}
	}
	authorsStr := strings.Join(names, " and ")

	fullTitle := rec.Title
	if rec.Subtitle != "" {
		fullTitle += ": " + rec.Subtitle
	}

	journalBits := []string{}
	if rec.Journal != "" {
		journalBits = append(journalBits, rec.Journal)
	}
	if rec.Volume != "" {
		journalBits = append(journalBits, rec.Volume)
	}
	if rec.Issue != "" {
		journalBits = append(journalBits, "("+rec.Issue+")")
	}
	if year := record.ExtractYear(rec.Year); year != "" {
		journalBits = append(journalBits, "("+year+")")
	}
	journalPart := strings.Join(journalBits, " ")

	var parts []string
	if authorsStr != "" {
		parts = append(parts, authorsStr+":")
	}
	parts = append(parts, `"`+fullTitle+`"`, "in:", journalPart)
	if rec.Pages != "" {
		parts = append(parts, ", "+rec.Pages)
	}
	out := strings.Join(parts, " ")
	out = spaceBeforeComma.ReplaceAllString(out, ",")
	out = strings.TrimRight(out, ",") + "."

	if url := rec.URL(); url != "" {
		out += " URL: " + url + " (accessed " + now().Format("January 02, 2006") + ")."
	}
	return out
}

// customChapter: `Authors: "Title", in: Editors (ed.), Book Title,
// Place: Publisher Year, pages.`
func customChapter(rec *record.Record) string {
	var names []string
	for _, n := range rec.Authors {
		if inv := strings.Trim(n.Inverted(), ", "); inv != "" {
			names = append(names, inv)
		}
	}
	authorsStr := strings.Join(names, " and ")

	fullTitle := rec.Title
	if rec.Subtitle != "" {
		fullTitle += ": " + rec.Subtitle
	}
	fullTitle = `"` + fullTitle + `"`

	var editorNames []string
	for _, n := range rec.Editors {
		if full := n.Full(); full != "" {
			editorNames = append(editorNames, full)
		}
	}
	editorsStr := strings.Join(editorNames, " and ")
	if editorsStr != "" {
		editorsStr += " (ed.)"
	}

	bookTitle := rec.Series
	if bookTitle == "" {
		bookTitle = rec.Journal
	}

	var pubBits []string
	if rec.Address != "" {
		pubBits = append(pubBits, rec.Address+":")
	}
	if rec.Publisher != "" {
		pubBits = append(pubBits, rec.Publisher)
	}
	if rec.Year != "" {
		pubBits = append(pubBits, rec.Year)
	}
	pubPart := strings.Join(pubBits, " ")

	var inBits []string
	for _, bit := range []string{editorsStr, bookTitle, pubPart} {
		if bit != "" {
			inBits = append(inBits, bit)
		}
	}
	if rec.Pages != "" {
		inBits = append(inBits, rec.Pages)
	}
	inPart := strings.Join(inBits, ", ")

	out := fullTitle
	if authorsStr != "" {
		out = authorsStr + ": " + fullTitle
	}
	if inPart != "" {
		out += ", in: " + inPart
	}
	return out + "."
}
