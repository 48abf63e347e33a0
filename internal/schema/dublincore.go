package schema

import (
	"regexp"
	"strings"

	"github.com/CrispStrobe/citer/internal/record"
)

var hostVolIssue = regexp.MustCompile(`(?i)\b(?:vol\.?|volume|band|bd\.?)\s*(\d+)`)
var hostIssue = regexp.MustCompile(`(?i)\b(?:no\.?|nr\.?|number|issue|heft)\s*(\d+)`)

// ParseDublinCore handles simple Dublin Core and DCTerms records as
// returned under the dc and dublincore schema identifiers.
func ParseDublinCore(raw RawRecord) (*record.Record, error) {
	root, err := parseDoc(raw.Payload)
	if err != nil {
		return nil, err
	}
	rec := &record.Record{ID: raw.ID, Schema: raw.Schema, Raw: raw.Payload}

	title := firstText(root, []string{
		".//" + q(nsDC, "title"),
		".//" + q(nsDCTerms, "title"),
	})
	rec.Title, rec.Subtitle = record.SplitTitle(title)

	names := newNameCollector()
	for _, path := range []string{".//" + q(nsDC, "creator"), ".//" + q(nsDCTerms, "creator")} {
		for _, el := range root.FindElements(path) {
			names.add(strings.TrimSpace(el.Text()), record.RoleAuthor)
		}
	}
	for _, path := range []string{".//" + q(nsDC, "contributor"), ".//" + q(nsDCTerms, "contributor")} {
		for _, el := range root.FindElements(path) {
			names.add(strings.TrimSpace(el.Text()), record.RoleOther)
		}
	}
	names.apply(rec)

	rec.RawDate = firstText(root, []string{
		".//" + q(nsDC, "date"),
		".//" + q(nsDCTerms, "issued"),
		".//" + q(nsDCTerms, "created"),
	})
	rec.Publisher = cleanTrailing(firstText(root, []string{
		".//" + q(nsDC, "publisher"),
		".//" + q(nsDCTerms, "publisher"),
	}))

	for _, id := range allText(root, []string{".//" + q(nsDC, "identifier"), ".//" + q(nsDCTerms, "identifier")}) {
		applyDCIdentifier(rec, id)
	}

	rec.Subjects = allText(root, []string{".//" + q(nsDC, "subject"), ".//" + q(nsDCTerms, "subject")})
	rec.Abstract = firstText(root, []string{
		".//" + q(nsDCTerms, "abstract"),
		".//" + q(nsDC, "description"),
		".//" + q(nsDCTerms, "description"),
	})
	rec.Language = firstText(root, []string{".//" + q(nsDC, "language"), ".//" + q(nsDCTerms, "language")})
	rec.Extent = firstText(root, []string{".//" + q(nsDC, "format"), ".//" + q(nsDCTerms, "extent")})
	if rec.Pages == "" {
		rec.Pages = pagesFromExtent(rec.Extent)
	}

	docType := firstText(root, []string{".//" + q(nsDC, "type"), ".//" + q(nsDCTerms, "type")})
	rec.DocumentType = normalizeDCType(docType)

	// dc:source and dcterms:isPartOf describe the host item. Volume
	// and issue markers identify a journal; otherwise the host is a
	// series or containing book.
	host := firstText(root, []string{
		".//" + q(nsDC, "source"),
		".//" + q(nsDCTerms, "isPartOf"),
		".//" + q(nsDCTerms, "bibliographicCitation"),
	})
	applyHostItem(rec, host)

	return finish(rec), nil
}

// applyDCIdentifier sorts one dc:identifier value into the typed
// identifier slots by its content.
func applyDCIdentifier(rec *record.Record, id string) {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "isbn"):
		if rec.ISBN == "" {
			rec.ISBN = isbnFrom(id)
		}
	case strings.Contains(lower, "issn"):
		if rec.ISSN == "" {
			rec.ISSN = issnFrom(id)
		}
	case strings.Contains(lower, "doi") || strings.HasPrefix(lower, "10."):
		if rec.DOI == "" {
			rec.DOI = doiFrom(id)
		}
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		rec.URLs = append(rec.URLs, id)
	case rec.ISBN == "" && isbnFrom(id) != "" && len(isbnFrom(id)) >= 10:
		rec.ISBN = isbnFrom(id)
	}
}

// applyHostItem interprets a host item description. Values carrying a
// volume or issue marker are journals; plain values become the series
// for books and the container title for chapters.
func applyHostItem(rec *record.Record, host string) {
	if host == "" {
		return
	}
	name := host
	if i := strings.IndexAny(host, ",;"); i >= 0 {
		name = host[:i]
	}
	name = cleanTrailing(name)
	vol := hostVolIssue.FindStringSubmatch(host)
	issue := hostIssue.FindStringSubmatch(host)
	if vol != nil || issue != nil {
		rec.Journal = name
		if vol != nil && rec.Volume == "" {
			rec.Volume = vol[1]
		}
		if issue != nil && rec.Issue == "" {
			rec.Issue = issue[1]
		}
		if rec.Pages == "" {
			rec.Pages = pagesFromMarked(host)
		}
		return
	}
	switch strings.ToLower(rec.DocumentType) {
	case "book chapter":
		rec.Journal = name
	default:
		if rec.Series == "" {
			rec.Series = name
		}
	}
}

func normalizeDCType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "":
		return ""
	case "text", "book", "monograph":
		return "Book"
	case "article", "journalarticle", "journal article":
		return "Journal Article"
	case "periodical", "journal":
		return "Journal"
	case "bookpart", "book chapter", "chapter":
		return "Book Chapter"
	case "thesis", "dissertation", "doctoralthesis":
		return "Thesis"
	}
	return strings.TrimSpace(t)
}
