package schema

import (
	"regexp"
	"strings"

	"github.com/CrispStrobe/citer/internal/record"
)

// Catalog data appends role markers to creator strings, e.g.
// "Müller, Hans [Hrsg.]" or "Smith, Jane (ed.)". German and English
// variants are both common in the endpoints served here.
var roleBracket = regexp.MustCompile(`\s*[\[(][^\])]*[\])]\s*$`)

// classifyRole inspects the bracketed or trailing role marker of a raw
// creator string. It returns the cleaned name and the detected role,
// or RoleAuthor when no marker is present.
func classifyRole(raw string) (string, record.Role) {
	raw = strings.TrimSpace(raw)
	if m := roleBracket.FindString(raw); m != "" {
		role, ok := markerRole(m)
		if !ok {
			// Bracketed text that names no known role stays
			// attached to the name untouched.
			return raw, record.RoleAuthor
		}
		name := strings.TrimSpace(strings.TrimSuffix(raw, m))
		return strings.TrimRight(name, ",; "), role
	}
	if i := strings.LastIndexAny(raw, " ,;"); i >= 0 {
		if role, ok := markerRole(raw[i+1:]); ok {
			name := strings.TrimSpace(raw[:i+1])
			return strings.TrimRight(name, ",; "), role
		}
	}
	return raw, record.RoleAuthor
}

// markerRole maps a marker token to the role it names. Whole-token
// matching keeps name endings like "Alfred" from being mistaken for
// "ed.".
func markerRole(marker string) (record.Role, bool) {
	m := strings.ToLower(strings.Trim(marker, " \t[]().,;"))
	switch {
	case m == "":
		return record.RoleAuthor, false
	case m == "übers", m == "trans", strings.HasPrefix(m, "übersetz"), strings.HasPrefix(m, "transl"):
		return record.RoleTranslator, true
	case m == "ed", m == "eds", m == "hg", strings.HasPrefix(m, "editor"), strings.HasPrefix(m, "hrsg"):
		return record.RoleEditor, true
	}
	return record.RoleAuthor, false
}

// structuredRole maps MARC relator terms and codes ($e, $4, marcRole
// element names) onto a contributor role.
func structuredRole(term string) (record.Role, bool) {
	switch strings.ToLower(strings.Trim(term, " .,")) {
	case "aut", "cre", "author", "verfasser", "verfasserin":
		return record.RoleAuthor, true
	case "edt", "hrg", "editor", "herausgeber", "herausgeberin", "hrsg":
		return record.RoleEditor, true
	case "trl", "translator", "übersetzer", "übersetzerin":
		return record.RoleTranslator, true
	case "ths", "degree supervisor":
		return record.RoleOther, true
	case "ctb", "contributor", "mitwirkender":
		return record.RoleOther, true
	}
	return record.RoleAuthor, false
}

// resolveRole combines a structured relator with text-pattern
// detection on the name string itself. The text pattern wins only
// when it positively identifies an editor or translator; otherwise
// the structured role stands.
func resolveRole(structured record.Role, textRole record.Role) record.Role {
	if textRole == record.RoleEditor || textRole == record.RoleTranslator {
		return textRole
	}
	return structured
}

// nameCollector accumulates classified contributors while dropping
// duplicates. Catalog records frequently list the same person under
// both a main and an added entry.
type nameCollector struct {
	seen    map[string]bool
	authors []record.Name
	editors []record.Name
	trans   []record.Name
	other   []record.Contributor
}

func newNameCollector() *nameCollector {
	return &nameCollector{seen: map[string]bool{}}
}

func (c *nameCollector) add(raw string, role record.Role) {
	clean, textRole := classifyRole(raw)
	if clean == "" {
		return
	}
	role = resolveRole(role, textRole)
	key := strings.ToLower(strings.Join(strings.Fields(clean), " "))
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	name := record.FreeText(clean).Normalize()
	if name.Last == "" {
		return
	}
	switch role {
	case record.RoleEditor:
		c.editors = append(c.editors, name)
	case record.RoleTranslator:
		c.trans = append(c.trans, name)
	case record.RoleOther:
		c.other = append(c.other, record.Contributor{Name: name, Role: record.RoleOther})
	default:
		c.authors = append(c.authors, name)
	}
}

func (c *nameCollector) apply(rec *record.Record) {
	rec.Authors = c.authors
	rec.Editors = c.editors
	rec.Translators = c.trans
	rec.Contributors = c.other
}
