// Package export renders records as BibTeX and RIS and parses RIS
// back into records.
package export

import (
	"fmt"
	"strings"

	"github.com/CrispStrobe/citer/internal/record"
)

// ToBibTeX converts a record to one BibTeX entry. key is the citation
// key; pass rec.CiteKey() for single entries or a slot from
// record.UniqueKeys for batches.
func ToBibTeX(rec *record.Record, key string) string {
	entryType := bibtexEntryType(rec.CiteType)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, key))

	if len(rec.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatNames(rec.Authors)))
	}
	if len(rec.Editors) > 0 {
		b.WriteString(fmt.Sprintf("  editor = {%s},\n", formatNames(rec.Editors)))
	}

	title := escapeLatex(rec.FullTitle())
	if entryType == "incollection" {
		b.WriteString(fmt.Sprintf("  title = {%s},\n", title))
		if booktitle := containerTitle(rec); booktitle != "" {
			b.WriteString(fmt.Sprintf("  booktitle = {%s},\n", escapeLatex(booktitle)))
		}
	} else {
		b.WriteString(fmt.Sprintf("  title = {%s},\n", title))
		if entryType == "article" && rec.Journal != "" {
			b.WriteString(fmt.Sprintf("  journal = {%s},\n", escapeLatex(rec.Journal)))
		}
	}

	if rec.Publisher != "" {
		b.WriteString(fmt.Sprintf("  publisher = {%s},\n", escapeLatex(rec.Publisher)))
	}
	if rec.Address != "" {
		b.WriteString(fmt.Sprintf("  address = {%s},\n", escapeLatex(rec.Address)))
	}
	if rec.Year != "" {
		b.WriteString(fmt.Sprintf("  year = {%s},\n", rec.Year))
	}
	if rec.Edition != "" {
		b.WriteString(fmt.Sprintf("  edition = {%s},\n", escapeLatex(rec.Edition)))
	}
	if rec.Series != "" && entryType != "incollection" {
		b.WriteString(fmt.Sprintf("  series = {%s},\n", escapeLatex(rec.Series)))
	}
	if rec.Volume != "" {
		b.WriteString(fmt.Sprintf("  volume = {%s},\n", rec.Volume))
	}
	if rec.Issue != "" {
		b.WriteString(fmt.Sprintf("  number = {%s},\n", rec.Issue))
	}
	if rec.Pages != "" {
		b.WriteString(fmt.Sprintf("  pages = {%s},\n", strings.ReplaceAll(rec.Pages, "-", "--")))
	}
	if rec.ISBN != "" {
		b.WriteString(fmt.Sprintf("  isbn = {%s},\n", rec.ISBN))
	}
	if rec.ISSN != "" {
		b.WriteString(fmt.Sprintf("  issn = {%s},\n", rec.ISSN))
	}
	if rec.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", rec.DOI))
	}
	if url := rec.URL(); url != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", url))
	}
	if rec.Language != "" {
		b.WriteString(fmt.Sprintf("  language = {%s},\n", rec.Language))
	}

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList converts multiple records, giving colliding citation
// keys a numeric suffix.
func ToBibTeXList(recs []*record.Record) string {
	keys := record.UniqueKeys(recs)
	entries := make([]string, len(recs))
	for i, rec := range recs {
		entries[i] = ToBibTeX(rec, keys[i])
	}
	return strings.Join(entries, "\n")
}

// bibtexEntryType maps a cite type to the BibTeX entry type.
func bibtexEntryType(citeType string) string {
	switch citeType {
	case "article-journal", "journal":
		return "article"
	case "chapter":
		return "incollection"
	case "book":
		return "book"
	case "thesis":
		return "phdthesis"
	}
	return "misc"
}

// containerTitle is the host item for chapters: an explicit series
// wins over the container stored in the journal slot.
func containerTitle(rec *record.Record) string {
	if rec.Series != "" {
		return rec.Series
	}
	return rec.Journal
}

// formatNames formats people in BibTeX style: "Last, First and Last,
// First".
func formatNames(names []record.Name) string {
	formatted := make([]string, 0, len(names))
	for _, n := range names {
		if n.First != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", n.Last, n.First))
		} else {
			formatted = append(formatted, n.Last)
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters. Backslash must go
// first so it does not re-escape the escapes.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
