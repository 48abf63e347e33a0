// Package record defines the canonical bibliographic record shared by
// parsing, aggregation, and citation synthesis.
package record

import (
	"regexp"
	"strings"
)

// Name is an ordered (first, last) name pair. Last is always non-empty
// for a valid name; First may be empty for corporate or single-token
// names.
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Full returns "First Last", or just Last when First is empty.
func (n Name) Full() string {
	if n.First == "" {
		return n.Last
	}
	return n.First + " " + n.Last
}

// Inverted returns "Last, First", or just Last when First is empty.
func (n Name) Inverted() string {
	if n.First == "" {
		return n.Last
	}
	return n.Last + ", " + n.First
}

// Role classifies a person's relationship to the work.
type Role string

const (
	RoleAuthor     Role = "author"
	RoleEditor     Role = "editor"
	RoleTranslator Role = "translator"
	RoleOther      Role = "contributor"
)

// Contributor is a person with a role outside the author, editor, and
// translator buckets.
type Contributor struct {
	Name Name `json:"name"`
	Role Role `json:"role"`
}

// Record is one bibliographic item. It is created by a schema parser or
// by the aggregator and is immutable once handed to synthesis.
type Record struct {
	// Identity
	ID     string `json:"id"`
	Schema string `json:"schema,omitempty"` // origin format tag, informational

	// Title
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`

	// People
	Authors      []Name        `json:"authors,omitempty"`
	Editors      []Name        `json:"editors,omitempty"`
	Translators  []Name        `json:"translators,omitempty"`
	Contributors []Contributor `json:"contributors,omitempty"`

	// Provenance
	Year      string `json:"year,omitempty"` // 4-digit string or empty
	Publisher string `json:"publisher,omitempty"`
	Address   string `json:"address,omitempty"` // place of publication
	Series    string `json:"series,omitempty"`
	Edition   string `json:"edition,omitempty"`
	Extent    string `json:"extent,omitempty"`

	// Identifiers
	ISBN  string `json:"isbn,omitempty"`
	ISSN  string `json:"issn,omitempty"`
	DOI   string `json:"doi,omitempty"`
	OCLC  string `json:"oclc,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	PMCID string `json:"pmcid,omitempty"`
	JSTOR string `json:"jstor,omitempty"`

	// Container (journal articles and chapters)
	Journal string `json:"journal,omitempty"`
	Volume  string `json:"volume,omitempty"`
	Issue   string `json:"issue,omitempty"`
	Pages   string `json:"pages,omitempty"` // raw, single page or dash range

	// Classification
	DocumentType string   `json:"document_type,omitempty"` // free text
	CiteType     string   `json:"cite_type,omitempty"`     // normalized, see InferCiteType
	Subjects     []string `json:"subjects,omitempty"`
	Language     string   `json:"language,omitempty"`
	Abstract     string   `json:"abstract,omitempty"`
	URLs         []string `json:"urls,omitempty"` // first is canonical

	// Extras carried for synthesis
	Website     string `json:"website,omitempty"`
	ArchiveURL  string `json:"archive_url,omitempty"`
	ArchiveDate string `json:"archive_date,omitempty"`
	URLStatus   string `json:"url_status,omitempty"`
	JSTORFree   bool   `json:"jstor_free,omitempty"`

	// RawDate is the unparsed date field, kept so that a year can be
	// extracted late when no parser produced one.
	RawDate string `json:"-"`

	// Opaque original payload, retained for diagnostics only.
	Raw string `json:"-"`
}

// URL returns the canonical (first) URL, or "".
func (r *Record) URL() string {
	if len(r.URLs) == 0 {
		return ""
	}
	return r.URLs[0]
}

// EditedVolume reports whether the record has editors but no authors,
// in which case synthesis treats the editors as the primary creators.
func (r *Record) EditedVolume() bool {
	return len(r.Authors) == 0 && len(r.Editors) > 0
}

var yearPattern = regexp.MustCompile(`\b(1\d{3}|20\d{2})\b`)

// ExtractYear returns the first 4-digit sequence in the plausible
// publication range (1000-2099) found in s, or "".
func ExtractYear(s string) string {
	return yearPattern.FindString(s)
}

// SplitTitle splits a colon-delimited subtitle out of a raw title.
// Only the first colon is significant.
func SplitTitle(raw string) (title, subtitle string) {
	if i := strings.Index(raw, ":"); i >= 0 {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
	}
	return strings.TrimSpace(raw), ""
}

// FullTitle joins title and subtitle back into a single display title.
func (r *Record) FullTitle() string {
	if r.Subtitle != "" {
		return r.Title + ": " + r.Subtitle
	}
	return r.Title
}

// PageRange is a parsed page specification.
type PageRange struct {
	Start string
	End   string // empty for a single page
}

// IsRange reports whether the specification covers more than one page.
func (p PageRange) IsRange() bool { return p.End != "" }

var pageRangePattern = regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)`)
var pageSinglePattern = regexp.MustCompile(`\d+`)

// ParsePages splits a raw pages string into start and end. Both "45-67"
// and "45–67" (en dash) yield a two-field split; "45" yields a single
// page. ok is false when no page number is present at all.
func ParsePages(raw string) (PageRange, bool) {
	if m := pageRangePattern.FindStringSubmatch(raw); m != nil {
		return PageRange{Start: m[1], End: m[2]}, true
	}
	if m := pageSinglePattern.FindString(raw); m != "" {
		return PageRange{Start: m}, true
	}
	return PageRange{}, false
}
