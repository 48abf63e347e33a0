package schema

import (
	"strings"

	"github.com/CrispStrobe/citer/internal/record"
)

// ParseGeneric extracts what it can from an arbitrary XML record. It
// tries the well-known element vocabularies first and ends with bare
// local-name matches, so it degrades rather than fails on schemas
// without a dedicated parser.
func ParseGeneric(raw RawRecord) (*record.Record, error) {
	root, err := parseDoc(raw.Payload)
	if err != nil {
		return nil, err
	}
	rec := &record.Record{ID: raw.ID, Schema: raw.Schema, Raw: raw.Payload}

	title := firstText(root, []string{
		".//" + q(nsDC, "title"),
		".//" + q(nsDCTerms, "title"),
	})
	if title == "" {
		if f := firstDatafield(root, "245"); f != nil {
			title = cleanTrailing(subfield(f, "a"))
		}
	}
	if title == "" {
		title = firstLocalText(root, "title")
	}
	rec.Title, rec.Subtitle = record.SplitTitle(title)

	names := newNameCollector()
	collected := false
	for _, path := range []string{".//" + q(nsDC, "creator"), ".//" + q(nsDCTerms, "creator")} {
		for _, el := range root.FindElements(path) {
			names.add(strings.TrimSpace(el.Text()), record.RoleAuthor)
			collected = true
		}
	}
	if !collected {
		for _, tag := range []string{"100", "700"} {
			for _, f := range datafields(root, tag) {
				if name := cleanTrailing(subfield(f, "a")); name != "" {
					role := record.RoleAuthor
					if term := firstNonEmpty(subfield(f, "e"), subfield(f, "4")); term != "" {
						if r, ok := structuredRole(term); ok {
							role = r
						}
					}
					names.add(name, role)
					collected = true
				}
			}
		}
	}
	if !collected {
		for _, tag := range []string{"creator", "author"} {
			for _, el := range localName(root, tag) {
				names.add(strings.TrimSpace(el.Text()), record.RoleAuthor)
			}
		}
	}
	names.apply(rec)

	rec.Year = record.ExtractYear(firstText(root, []string{
		".//" + q(nsDC, "date"),
		".//" + q(nsDCTerms, "issued"),
	}))
	if rec.Year == "" {
		if f := firstDatafield(root, "260"); f != nil {
			rec.Year = record.ExtractYear(subfield(f, "c"))
		}
	}
	if rec.Year == "" {
		if f := firstDatafield(root, "264"); f != nil {
			rec.Year = record.ExtractYear(subfield(f, "c"))
		}
	}
	if rec.Year == "" {
		rec.Year = record.ExtractYear(firstLocalText(root, "date"))
	}

	rec.Publisher = cleanTrailing(firstText(root, []string{".//" + q(nsDC, "publisher")}))
	if rec.Publisher == "" {
		for _, tag := range []string{"264", "260"} {
			if f := firstDatafield(root, tag); f != nil {
				rec.Publisher = cleanTrailing(subfield(f, "b"))
				rec.Address = cleanTrailing(subfield(f, "a"))
				break
			}
		}
	}
	if rec.Publisher == "" {
		rec.Publisher = cleanTrailing(firstLocalText(root, "publisher"))
	}

	for _, id := range allText(root, []string{".//" + q(nsDC, "identifier"), ".//" + q(nsDCTerms, "identifier")}) {
		applyDCIdentifier(rec, id)
	}
	if rec.ISBN == "" {
		if f := firstDatafield(root, "020"); f != nil {
			rec.ISBN = isbnFrom(subfield(f, "a"))
		}
	}
	if rec.ISSN == "" {
		if f := firstDatafield(root, "022"); f != nil {
			rec.ISSN = issnFrom(subfield(f, "a"))
		}
	}

	if rec.DocumentType == "" {
		rec.DocumentType = leaderDocType(marcLeader(root))
	}
	applyHostField(rec, firstDatafield(root, "773"))

	if rec.Title == "" && len(rec.Authors) == 0 && rec.Year == "" {
		return nil, errNothingExtracted
	}
	return finish(rec), nil
}
