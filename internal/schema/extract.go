package schema

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs for the record formats handled by the registry. Paths
// use etree's {uri}tag notation so that parsing is independent of the
// prefix each server happens to declare.
const (
	nsSRW      = "http://www.loc.gov/zing/srw/"
	nsDiag     = "http://www.loc.gov/zing/srw/diagnostic/"
	nsDC       = "http://purl.org/dc/elements/1.1/"
	nsDCTerms  = "http://purl.org/dc/terms/"
	nsMARC     = "http://www.loc.gov/MARC21/slim"
	nsMXC      = "info:lc/xmlns/marcxchange-v2"
	nsRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsBibo     = "http://purl.org/ontology/bibo/"
	nsGNDO     = "https://d-nb.info/standards/elementset/gnd#"
	nsMarcRole = "http://id.loc.gov/vocabulary/relators/"
	nsRDAU     = "http://rdaregistry.info/Elements/u/"
	nsFOAF     = "http://xmlns.com/foaf/0.1/"
	nsUmbel    = "http://umbel.org/umbel#"
	nsISBD     = "http://iflastandards.info/ns/isbd/elements/"
)

func q(ns, tag string) string { return "{" + ns + "}" + tag }

// firstText walks a prioritized list of path candidates and returns
// the first non-empty text match. This first-candidate-wins rule is
// applied independently per target field; matches for the same field
// are never merged.
func firstText(root *etree.Element, paths []string) string {
	for _, path := range paths {
		for _, el := range root.FindElements(path) {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// allText collects the non-empty texts of the first candidate path
// that matches anything.
func allText(root *etree.Element, paths []string) []string {
	for _, path := range paths {
		var out []string
		for _, el := range root.FindElements(path) {
			if text := strings.TrimSpace(el.Text()); text != "" {
				out = append(out, text)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// localName matches elements by local tag name regardless of
// namespace, the catch-all the generic parser ends with.
func localName(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == tag {
			out = append(out, e)
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return out
}

func firstLocalText(root *etree.Element, tag string) string {
	for _, el := range localName(root, tag) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
	}
	return ""
}

// rdfResource returns the rdf:resource attribute of an element, or "".
func rdfResource(el *etree.Element) string {
	for _, attr := range el.Attr {
		if attr.Key == "resource" && (attr.Space == "rdf" || attr.NamespaceURI() == nsRDF) {
			return attr.Value
		}
	}
	return ""
}

var (
	trailingPunct = regexp.MustCompile(`\s*[/:,;]+$`)
	extentPages   = regexp.MustCompile(`(\d+)(?:\s*[-–]\s*(\d+))?\s*(?:p|pages|S)`)
	markedPages   = regexp.MustCompile(`(?i)p(?:age)?s?\.?\s*(\d+)(?:\s*[-–]\s*(\d+))?`)
	isbnDigits    = regexp.MustCompile(`\d[\d\-X]+`)
	issnDigits    = regexp.MustCompile(`\d{4}-\d{3}[\dX]`)
	doiText       = regexp.MustCompile(`(?:https?://doi\.org/)?(10\.\d+/[^\s]+)`)
)

// cleanTrailing strips the cataloging punctuation MARC leaves at the
// end of subfield values.
func cleanTrailing(s string) string {
	return strings.TrimSpace(trailingPunct.ReplaceAllString(s, ""))
}

// pagesFromExtent extracts a page count or range from a physical
// description like "312 p." or "S. 45-67".
func pagesFromExtent(extent string) string {
	m := extentPages.FindStringSubmatch(extent)
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return m[1] + "-" + m[2]
	}
	return m[1]
}

// pagesFromMarked extracts a page start (and optional end) that
// follows a "p."/"pp."/"pages" marker in free text.
func pagesFromMarked(text string) string {
	m := markedPages.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return m[1] + "-" + m[2]
	}
	return m[1]
}

// joinPages combines explicit start/end page fields into one raw
// pages string.
func joinPages(start, end string) string {
	switch {
	case start == "":
		return ""
	case end == "":
		return start
	default:
		return start + "-" + end
	}
}

func isbnFrom(text string) string {
	return isbnDigits.FindString(text)
}

func issnFrom(text string) string {
	return issnDigits.FindString(text)
}

func doiFrom(text string) string {
	m := doiText.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
