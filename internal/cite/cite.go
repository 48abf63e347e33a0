// Package cite turns bibliographic records into citation strings:
// Wikipedia sfn/cite/ref template triples and a plain narrative
// format.
package cite

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/CrispStrobe/citer/internal/record"
)

// DefaultPipe separates template parameters.
const DefaultPipe = " | "

// DefaultDateFormat renders dates ISO style.
const DefaultDateFormat = "2006-01-02"

// Options control synthesis.
type Options struct {
	// Pipe separates template parameters; defaults to DefaultPipe.
	Pipe string

	// DateFormat is the time layout for access and archive dates;
	// defaults to DefaultDateFormat.
	DateFormat string

	// OpenAccess resolves free copies of DOIs. Defaults to the
	// registrant allowlist with no network traffic.
	OpenAccess OpenAccessResolver

	// Now supplies the access date; defaults to time.Now. Injectable
	// for reproducible output.
	Now func() time.Time
}

func (o *Options) fill() {
	if o.Pipe == "" {
		o.Pipe = DefaultPipe
	}
	if o.DateFormat == "" {
		o.DateFormat = DefaultDateFormat
	}
	if o.OpenAccess == nil {
		o.OpenAccess = allowlistOnly{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Output is one synthesized citation triple.
type Output struct {
	Sfn string // {{sfn|...}} shortened footnote
	Cit string // * {{cite ...}} full template
	Ref string // <ref name="...">...</ref> inline reference
}

var refArgPattern = regexp.MustCompile(`(\s?\|\s?ref={{.*?}})(\s?\|\s?|}})`)

// Synthesize renders the Wikipedia citation triple for a record.
func Synthesize(ctx context.Context, rec *record.Record, opts Options) Output {
	opts.fill()
	pipe := opts.Pipe

	citeClass := record.CiteClass(rec.CiteType)
	var cit strings.Builder
	if citeClass == "" {
		cit.WriteString("* {{cite")
	} else {
		cit.WriteString("* {{cite " + citeClass)
	}
	sfn := "{{sfn"

	journal := rec.Journal
	website := rec.Website
	title := rec.FullTitle()

	// Shortened footnote anchor: up to four author surnames, else a
	// fallback anchor that the full template repeats in |ref=.
	sfnRefName := ""
	if len(rec.Authors) > 0 {
		cit.WriteString(namesToParams(rec.Authors, pipe, "first", "last", "author"))
		for i, name := range rec.Authors {
			if i == 4 {
				break
			}
			sfn += "|" + name.Last
		}
	} else {
		switch {
		case rec.Publisher != "":
			sfnRefName = rec.Publisher
		case journal != "":
			sfnRefName = "''" + journal + "''"
		case website != "":
			sfnRefName = "''" + website + "''"
		case title != "":
			sfnRefName = title
		default:
			sfnRefName = "Anon."
		}
		sfn += "|" + sfnRefName
	}

	if len(rec.Editors) > 0 {
		cit.WriteString(namesToParams(rec.Editors, pipe, "editor-first", "editor-last", "editor"))
	}
	others := othersList(rec)
	if len(others) > 0 {
		cit.WriteString(pipe + "others=" + joinFullNames(others))
	}

	// Chapters cite the container as |title= and the work itself as
	// |chapter=.
	booktitle := ""
	if citeClass == "book" && rec.CiteType == "chapter" {
		booktitle = journal
		journal = ""
	}
	switch {
	case booktitle != "":
		cit.WriteString(pipe + "title=" + booktitle)
		if title != "" {
			cit.WriteString(pipe + "chapter=" + title)
		}
	case title != "":
		cit.WriteString(pipe + "title=" + title)
	default:
		cit.WriteString(pipe + "title=")
	}

	if journal != "" {
		cit.WriteString(pipe + "journal=" + journal)
	} else if website != "" {
		cit.WriteString(pipe + "website=" + website)
	}

	if rec.Publisher != "" {
		cit.WriteString(pipe + "publisher=" + rec.Publisher)
	}
	if rec.Address != "" {
		cit.WriteString(pipe + "publication-place=" + rec.Address)
	}
	if rec.Edition != "" {
		cit.WriteString(pipe + "edition=" + rec.Edition)
	}
	if rec.Series != "" {
		cit.WriteString(pipe + "series=" + rec.Series)
	}
	if rec.Volume != "" {
		cit.WriteString(pipe + "volume=" + asciiDigits(rec.Volume))
	}
	if rec.Issue != "" {
		cit.WriteString(pipe + "issue=" + rec.Issue)
	}

	// A full date goes to |date=; a bare year that the date does not
	// already cover goes to |year=. The footnote always prefers the
	// explicit year field.
	yearForSfn := ""
	date := strings.TrimSpace(rec.RawDate)
	if date != "" && date != rec.Year {
		cit.WriteString(pipe + "date=" + date)
		yearForSfn = record.ExtractYear(date)
	}
	if rec.Year != "" {
		if date == "" || !strings.Contains(date, rec.Year) {
			cit.WriteString(pipe + "year=" + rec.Year)
		}
		yearForSfn = rec.Year
	}
	if yearForSfn != "" {
		sfn += "|" + yearForSfn
	}

	if rec.ISBN != "" {
		cit.WriteString(pipe + "isbn=" + rec.ISBN)
	}
	if rec.ISSN != "" {
		cit.WriteString(pipe + "issn=" + rec.ISSN)
	}
	if rec.PMID != "" {
		cit.WriteString(pipe + "pmid=" + rec.PMID)
	}
	if rec.PMCID != "" {
		cit.WriteString(pipe + "pmc=" + strings.TrimPrefix(strings.ToLower(rec.PMCID), "pmc"))
	}

	url := rec.URL()
	// Test-registrant DOIs (10.5555) are never emitted.
	if rec.DOI != "" && !strings.HasPrefix(rec.DOI, "10.5555") {
		cit.WriteString(pipe + "doi=" + rec.DOI)
		// A resolver URL only marks the DOI free when the record
		// has no URL of its own; an allowlist answer carries no URL
		// and always counts.
		if oaURL, free := opts.OpenAccess.FreeURL(ctx, rec.DOI); free && (oaURL == "" || url == "") {
			cit.WriteString(pipe + "doi-access=free")
			if url == "" {
				url = oaURL
			}
		}
	}

	if rec.OCLC != "" {
		cit.WriteString(pipe + "oclc=" + rec.OCLC)
	}
	if rec.JSTOR != "" {
		cit.WriteString(pipe + "jstor=" + rec.JSTOR)
		if rec.JSTORFree {
			cit.WriteString(pipe + "jstor-access=free")
		}
	}

	pages := rec.Pages
	pagesInCit := false
	if pages != "" {
		if strings.ContainsAny(pages, "-–") {
			sfn += "|pp=" + pages
		} else {
			sfn += "|p=" + pages
		}
		if citeClass == "journal" {
			cit.WriteString(pipe + "pages=" + pages)
			pagesInCit = true
		}
	}

	if url != "" {
		if rec.DOI == "" || !isDOIURL(url) {
			cit.WriteString(pipe + "url=" + url)
		} else {
			// A bare DOI resolver URL adds nothing over |doi=.
			url = ""
		}
	}

	if pages == "" && citeClass != "web" {
		sfn += "|p="
	}

	if rec.ArchiveURL != "" {
		cit.WriteString(pipe + "archive-url=" + rec.ArchiveURL)
		archiveDate := rec.ArchiveDate
		if d, err := time.Parse(DefaultDateFormat, archiveDate); err == nil {
			archiveDate = d.Format(opts.DateFormat)
		}
		cit.WriteString(pipe + "archive-date=" + archiveDate)
		cit.WriteString(pipe + "url-status=" + rec.URLStatus)
	}

	if rec.Language != "" {
		if code := twoLetterCode(rec.Language); strings.ToLower(code) != "en" {
			cit.WriteString(pipe + "language=" + code)
		}
	}

	if len(rec.Authors) == 0 {
		cit.WriteString(pipe + "ref={{sfnref|" + sfnRefName)
		if yearForSfn != "" {
			cit.WriteString("|" + yearForSfn)
		}
		cit.WriteString("}}")
	}

	if url != "" {
		cit.WriteString(pipe + "access-date=" + opts.Now().Format(opts.DateFormat))
	}

	cit.WriteString("}}")
	sfn += "}}"

	citStr := cit.String()
	refContent := refArgPattern.ReplaceAllString(citStr[2:], "$2")
	if pages != "" && !pagesInCit {
		refContent = refContent[:len(refContent)-2] + pipe + "pages=" + pages + "}}"
	}
	ref := `<ref name="` + RefName(rec) + `">` + refContent + `</ref>`

	return Output{Sfn: sfn, Cit: citStr, Ref: ref}
}

// namesToParams renders a name list as numbered template parameters.
// Single-token names use the bare parameter when one exists.
func namesToParams(names []record.Name, pipe, firstParam, lastParam, bareParam string) string {
	var b strings.Builder
	for i, name := range names {
		suffix := ""
		if i > 0 {
			suffix = strconv.Itoa(i + 1)
		}
		if name.First != "" || bareParam == "" {
			b.WriteString(pipe + lastParam + suffix + "=" + name.Last)
			b.WriteString(pipe + firstParam + suffix + "=" + name.First)
		} else {
			b.WriteString(pipe + bareParam + suffix + "=" + name.Full())
		}
	}
	return b.String()
}

// othersList collects translators and remaining contributors for the
// |others= parameter, tagging translators.
func othersList(rec *record.Record) []record.Name {
	var out []record.Name
	for _, name := range rec.Translators {
		out = append(out, record.Name{First: name.First, Last: name.Last + " (trans.)"})
	}
	for _, contrib := range rec.Contributors {
		out = append(out, contrib.Name)
	}
	return out
}

func joinFullNames(names []record.Name) string {
	full := make([]string, len(names))
	for i, name := range names {
		full[i] = name.Full()
	}
	if len(full) > 1 {
		return strings.Join(full[:len(full)-1], ", ") + ", and " + full[len(full)-1]
	}
	return full[0]
}

var doiURLPattern = regexp.MustCompile(`^https?://(dx\.)?doi\.org/`)

func isDOIURL(url string) bool {
	return doiURLPattern.MatchString(url)
}

// digitFold maps Persian and Arabic-Indic digits to ASCII.
var digitFold = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

func asciiDigits(s string) string {
	return digitFold.Replace(s)
}
