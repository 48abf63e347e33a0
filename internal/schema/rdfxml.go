package schema

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/CrispStrobe/citer/internal/record"
)

// ParseRDF handles the RDF/XML records served by the German National
// Library. Bibliographic properties hang off rdf:Description nodes;
// people are either inlined or referenced by URI and resolved through
// their preferred-name nodes.
func ParseRDF(raw RawRecord) (*record.Record, error) {
	root, err := parseDoc(raw.Payload)
	if err != nil {
		return nil, err
	}
	rec := &record.Record{ID: raw.ID, Schema: raw.Schema, Raw: raw.Payload}

	nameByURI := collectPreferredNames(root)

	title := firstText(root, []string{
		".//" + q(nsDC, "title"),
		".//" + q(nsDCTerms, "title"),
	})
	rec.Title, rec.Subtitle = record.SplitTitle(title)
	if alt := firstText(root, []string{".//" + q(nsDCTerms, "alternative")}); alt != "" {
		if rec.Subtitle == "" {
			rec.Subtitle = alt
		} else {
			rec.Subtitle += ". " + alt
		}
	}

	names := newNameCollector()
	for _, path := range []string{".//" + q(nsDCTerms, "creator"), ".//" + q(nsDC, "creator")} {
		for _, el := range root.FindElements(path) {
			if name := resolvePerson(el, nameByURI); name != "" {
				names.add(name, record.RoleAuthor)
			}
		}
	}
	for _, el := range root.FindElements(".//" + q(nsDCTerms, "contributor")) {
		if name := resolvePerson(el, nameByURI); name != "" {
			names.add(name, record.RoleOther)
		}
	}
	// Relator-qualified properties carry the role in the element name.
	for relator, role := range map[string]record.Role{
		"aut": record.RoleAuthor,
		"cre": record.RoleAuthor,
		"edt": record.RoleEditor,
		"hrg": record.RoleEditor,
		"trl": record.RoleTranslator,
		"ths": record.RoleOther,
		"ctb": record.RoleOther,
	} {
		for _, el := range root.FindElements(".//" + q(nsMarcRole, relator)) {
			if name := resolvePerson(el, nameByURI); name != "" {
				names.add(name, role)
			}
		}
	}
	// The statement of responsibility is free text; phrases like
	// "herausgegeben von" identify the people it lists as editors.
	for _, el := range root.FindElements(".//" + q(nsRDAU, "P60327")) {
		applyResponsibility(names, el.Text())
	}
	names.apply(rec)

	rec.RawDate = firstText(root, []string{
		".//" + q(nsDCTerms, "issued"),
		".//" + q(nsDC, "date"),
	})
	rec.Publisher = cleanTrailing(firstText(root, []string{
		".//" + q(nsDC, "publisher"),
		".//" + q(nsDCTerms, "publisher"),
	}))
	rec.Address = cleanTrailing(firstText(root, []string{".//" + q(nsRDAU, "P60163")}))

	// P60333 is the full publication statement, "Place : Publisher".
	if stmt := firstText(root, []string{".//" + q(nsRDAU, "P60333")}); stmt != "" {
		place, publisher, found := strings.Cut(stmt, " : ")
		if found {
			if rec.Address == "" {
				rec.Address = cleanTrailing(place)
			}
			// The publisher segment may end in ", <year>".
			if i := strings.LastIndex(publisher, ","); i >= 0 && record.ExtractYear(publisher[i:]) != "" {
				if rec.RawDate == "" {
					rec.RawDate = strings.TrimSpace(publisher[i+1:])
				}
				publisher = publisher[:i]
			}
			if rec.Publisher == "" {
				rec.Publisher = cleanTrailing(publisher)
			}
		}
	}

	rec.ISBN = isbnFrom(firstText(root, []string{
		".//" + q(nsBibo, "isbn13"),
		".//" + q(nsBibo, "isbn10"),
		".//" + q(nsBibo, "isbn"),
	}))
	rec.ISSN = issnFrom(firstText(root, []string{".//" + q(nsBibo, "issn")}))
	rec.DOI = doiFrom(firstText(root, []string{".//" + q(nsBibo, "doi")}))
	rec.Edition = cleanTrailing(firstText(root, []string{
		".//" + q(nsBibo, "edition"),
		".//" + q(nsRDAU, "P60329"),
	}))
	rec.Volume = firstText(root, []string{".//" + q(nsBibo, "volume")})
	rec.Issue = firstText(root, []string{".//" + q(nsBibo, "issue")})
	rec.Extent = firstText(root, []string{
		".//" + q(nsISBD, "P1053"),
		".//" + q(nsDCTerms, "extent"),
	})
	rec.Pages = pagesFromExtent(rec.Extent)

	for _, el := range root.FindElements(".//" + q(nsDCTerms, "isPartOf")) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			rec.Series = cleanTrailing(text)
			break
		}
	}
	for _, el := range root.FindElements(".//" + q(nsDCTerms, "subject")) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			rec.Subjects = append(rec.Subjects, text)
		}
	}
	if lang := firstText(root, []string{".//" + q(nsDCTerms, "language"), ".//" + q(nsDC, "language")}); lang != "" {
		rec.Language = lang
	} else {
		for _, el := range root.FindElements(".//" + q(nsDCTerms, "language")) {
			if res := rdfResource(el); res != "" {
				rec.Language = res[strings.LastIndex(res, "/")+1:]
				break
			}
		}
	}
	rec.Abstract = firstText(root, []string{
		".//" + q(nsDCTerms, "abstract"),
		".//" + q(nsDC, "description"),
	})
	for _, path := range []string{".//" + q(nsFOAF, "primaryTopic"), ".//" + q(nsUmbel, "isLike")} {
		for _, el := range root.FindElements(path) {
			if res := rdfResource(el); res != "" {
				rec.URLs = append(rec.URLs, res)
			}
		}
	}

	return finish(rec), nil
}

// collectPreferredNames indexes every node carrying a GND preferred
// name by its rdf:about URI.
func collectPreferredNames(root *etree.Element) map[string]string {
	out := map[string]string{}
	for _, tag := range []string{
		"preferredNameForThePerson",
		"preferredNameForTheCorporateBody",
		"preferredName",
	} {
		for _, el := range root.FindElements(".//" + q(nsGNDO, tag)) {
			name := strings.TrimSpace(el.Text())
			if name == "" {
				continue
			}
			if parent := el.Parent(); parent != nil {
				about := parent.SelectAttrValue("rdf:about", "")
				if about == "" {
					about = parent.SelectAttrValue("about", "")
				}
				if about != "" {
					out[about] = name
				}
			}
		}
	}
	return out
}

// resolvePerson extracts a person name from a property element: inline
// text, a nested description with a preferred name, or an rdf:resource
// reference resolved through the name index.
func resolvePerson(el *etree.Element, nameByURI map[string]string) string {
	for _, tag := range []string{"preferredNameForThePerson", "preferredNameForTheCorporateBody", "preferredName"} {
		if nested := el.FindElement(".//" + q(nsGNDO, tag)); nested != nil {
			if text := strings.TrimSpace(nested.Text()); text != "" {
				return text
			}
		}
	}
	if res := rdfResource(el); res != "" {
		if name, ok := nameByURI[res]; ok {
			return name
		}
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// applyResponsibility parses a free-text statement of responsibility
// and files the listed people under the role the verb phrase names.
func applyResponsibility(names *nameCollector, stmt string) {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return
	}
	lower := strings.ToLower(stmt)
	role := record.RoleAuthor
	switch {
	case strings.Contains(lower, "herausgegeben von"), strings.Contains(lower, "hrsg. von"), strings.Contains(lower, "edited by"):
		role = record.RoleEditor
	case strings.Contains(lower, "übersetzt von"), strings.Contains(lower, "translated by"):
		role = record.RoleTranslator
	}
	if i := strings.LastIndex(lower, " von "); i >= 0 && role != record.RoleAuthor {
		stmt = stmt[i+len(" von "):]
	} else if i := strings.LastIndex(lower, " by "); i >= 0 && role != record.RoleAuthor {
		stmt = stmt[i+len(" by "):]
	} else if role == record.RoleAuthor {
		// A plain statement repeats names already present in the
		// structured fields; skip it rather than double-count.
		return
	}
	for _, part := range splitNameList(stmt) {
		names.add(part, role)
	}
}

// splitNameList splits "A, B und C" or "A and B" into individual
// names.
func splitNameList(s string) []string {
	s = strings.NewReplacer(" und ", ";", " and ", ";", ", ", ";").Replace(s)
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.Trim(part, " .,")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
