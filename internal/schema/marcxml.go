package schema

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/CrispStrobe/citer/internal/record"
)

var hostMarker = regexp.MustCompile(`(?i)\b(?:vol\.?|volume|band|bd\.?|no\.?|nr\.?|number|issue|heft)\b`)

// ParseMARCXML handles MARC21 slim and MarcXchange records. The two
// formats share field semantics and differ only in namespace.
func ParseMARCXML(raw RawRecord) (*record.Record, error) {
	root, err := parseDoc(raw.Payload)
	if err != nil {
		return nil, err
	}
	rec := &record.Record{ID: raw.ID, Schema: raw.Schema, Raw: raw.Payload}

	rec.DocumentType = leaderDocType(marcLeader(root))

	// 245: title statement. $a carries trailing ISBD punctuation; $b
	// is the remainder of the title.
	for _, f := range datafields(root, "245") {
		title := cleanTrailing(subfield(f, "a"))
		sub := cleanTrailing(subfield(f, "b"))
		rec.Title, rec.Subtitle = record.SplitTitle(title)
		if sub != "" && rec.Subtitle == "" {
			rec.Subtitle = sub
		}
		break
	}

	names := newNameCollector()
	for _, tag := range []string{"100", "700", "110", "710"} {
		for _, f := range datafields(root, tag) {
			name := subfield(f, "a")
			if name == "" {
				continue
			}
			role := record.RoleAuthor
			if term := firstNonEmpty(subfield(f, "e"), subfield(f, "4")); term != "" {
				if r, ok := structuredRole(term); ok {
					role = r
				}
			}
			names.add(cleanTrailing(name), role)
		}
	}
	names.apply(rec)

	// 264 is preferred over 260 when both are present.
	for _, tag := range []string{"264", "260"} {
		fields := datafields(root, tag)
		if len(fields) == 0 {
			continue
		}
		f := fields[0]
		rec.Address = cleanTrailing(subfield(f, "a"))
		rec.Publisher = cleanTrailing(subfield(f, "b"))
		rec.RawDate = subfield(f, "c")
		break
	}

	for _, f := range datafields(root, "020") {
		if v := isbnFrom(subfield(f, "a")); v != "" {
			rec.ISBN = v
			break
		}
	}
	for _, f := range datafields(root, "022") {
		if v := issnFrom(subfield(f, "a")); v != "" {
			rec.ISSN = v
			break
		}
	}
	// 024 with first indicator 7 carries an identifier whose type is
	// named in $2.
	for _, f := range datafields(root, "024") {
		if f.SelectAttrValue("ind1", "") != "7" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(subfield(f, "2")), "doi") {
			rec.DOI = strings.TrimSpace(subfield(f, "a"))
			break
		}
	}

	if f := firstDatafield(root, "250"); f != nil {
		rec.Edition = cleanTrailing(subfield(f, "a"))
	}
	if f := firstDatafield(root, "300"); f != nil {
		rec.Extent = cleanTrailing(subfield(f, "a"))
		rec.Pages = pagesFromExtent(rec.Extent)
	}
	for _, tag := range []string{"490", "830"} {
		if f := firstDatafield(root, tag); f != nil {
			rec.Series = cleanTrailing(subfield(f, "a"))
			break
		}
	}
	if f := firstDatafield(root, "041"); f != nil {
		rec.Language = strings.TrimSpace(subfield(f, "a"))
	}
	for _, tag := range []string{"650", "651", "653"} {
		for _, f := range datafields(root, tag) {
			if s := cleanTrailing(subfield(f, "a")); s != "" {
				rec.Subjects = append(rec.Subjects, s)
			}
		}
	}
	if f := firstDatafield(root, "520"); f != nil {
		rec.Abstract = strings.TrimSpace(subfield(f, "a"))
	}
	for _, f := range datafields(root, "856") {
		if u := strings.TrimSpace(subfield(f, "u")); u != "" {
			rec.URLs = append(rec.URLs, u)
		}
	}

	applyHostField(rec, firstDatafield(root, "773"))

	return finish(rec), nil
}

// applyHostField interprets the 773 host item entry. A $g with volume
// or issue markers identifies a journal; without them the host title
// is a containing book or series.
func applyHostField(rec *record.Record, f *etree.Element) {
	if f == nil {
		return
	}
	title := cleanTrailing(subfield(f, "t"))
	related := subfield(f, "g")
	if title == "" && related == "" {
		return
	}
	if hostMarker.MatchString(related) {
		rec.Journal = title
		if m := hostVolIssue.FindStringSubmatch(related); m != nil && rec.Volume == "" {
			rec.Volume = m[1]
		}
		if m := hostIssue.FindStringSubmatch(related); m != nil && rec.Issue == "" {
			rec.Issue = m[1]
		}
		if p := pagesFromMarked(related); p != "" {
			rec.Pages = p
		}
		if rec.Year == "" {
			rec.Year = record.ExtractYear(related)
		}
		if rec.DocumentType == "" {
			rec.DocumentType = "Journal Article"
		}
	} else if title != "" {
		switch {
		case strings.EqualFold(rec.DocumentType, "Book Chapter"):
			rec.Journal = title
		default:
			if rec.Series == "" {
				rec.Series = title
			}
		}
	}
	if v := strings.TrimSpace(subfield(f, "v")); v != "" && rec.Volume == "" {
		rec.Volume = v
	}
	if l := strings.TrimSpace(subfield(f, "l")); l != "" && rec.Issue == "" {
		rec.Issue = l
	}
}

// marcLeader returns the record leader text, searching both MARC
// namespaces and unqualified tags.
func marcLeader(root *etree.Element) string {
	for _, path := range []string{
		".//" + q(nsMARC, "leader"),
		".//" + q(nsMXC, "leader"),
	} {
		if el := root.FindElement(path); el != nil {
			return el.Text()
		}
	}
	for _, el := range localName(root, "leader") {
		return el.Text()
	}
	return ""
}

// datafields returns all datafield elements with the given tag
// attribute, in document order.
func datafields(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, el := range localName(root, "datafield") {
		if el.SelectAttrValue("tag", "") == tag {
			out = append(out, el)
		}
	}
	return out
}

func firstDatafield(root *etree.Element, tag string) *etree.Element {
	fields := datafields(root, tag)
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}

// subfield returns the text of the first subfield with the given code.
func subfield(f *etree.Element, code string) string {
	for _, el := range f.ChildElements() {
		if el.Tag == "subfield" && el.SelectAttrValue("code", "") == code {
			return el.Text()
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
