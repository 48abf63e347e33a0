package record

import "strings"

// Different catalogs represent people in different shapes: a structured
// {given, family} object, a single free-text string, or an already
// normalized pair. PersonRef is the tagged union over those shapes;
// each variant knows how to normalize itself into a Name.
type PersonRef interface {
	Normalize() Name
}

// StructuredName is a person with explicit given and family parts, as
// supplied by structured metadata services.
type StructuredName struct {
	Given  string
	Family string
}

func (s StructuredName) Normalize() Name {
	return Name{First: strings.TrimSpace(s.Given), Last: strings.TrimSpace(s.Family)}
}

// FreeText is a single name string, either "Last, First" or
// "First Middle Last".
type FreeText string

func (f FreeText) Normalize() Name {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return Name{}
	}
	if i := strings.Index(s, ","); i >= 0 {
		return Name{
			First: strings.TrimSpace(s[i+1:]),
			Last:  strings.TrimSpace(s[:i]),
		}
	}
	if i := strings.LastIndex(s, " "); i >= 0 {
		return Name{
			First: strings.TrimSpace(s[:i]),
			Last:  strings.TrimSpace(s[i+1:]),
		}
	}
	// Single token: corporate body or mononym.
	return Name{Last: s}
}

// Pair is an already-normalized (first, last) pair.
type Pair Name

func (p Pair) Normalize() Name {
	return Name{First: strings.TrimSpace(p.First), Last: strings.TrimSpace(p.Last)}
}

// NormalizeAll converts a slice of person references into Names,
// dropping entries that normalize to an empty last name.
func NormalizeAll(refs []PersonRef) []Name {
	var names []Name
	for _, ref := range refs {
		n := ref.Normalize()
		if n.Last == "" {
			continue
		}
		names = append(names, n)
	}
	return names
}
