// Package input classifies loosely-typed user input into a resolution
// strategy: URL, DOI, ISBN, PMID, PMCID, OCLC, or free-text query.
package input

import (
	"regexp"
	"strings"
)

// Kind is the detected identifier kind.
type Kind string

const (
	KindURL      Kind = "url"
	KindDOI      Kind = "doi"
	KindISBN     Kind = "isbn"
	KindPMID     Kind = "pmid"
	KindPMCID    Kind = "pmcid"
	KindOCLC     Kind = "oclc"
	KindFreeText Kind = "query"
)

// Detected is the result of sniffing one user input.
type Detected struct {
	Kind  Kind
	Value string // cleaned identifier value
}

var (
	doiPattern    = regexp.MustCompile(`\b10\.\d{4,9}/[^\s"<>]+`)
	isbn13Pattern = regexp.MustCompile(`\b97[89][\- ]?(?:\d[\- ]?){9}[\dX]\b`)
	isbn10Pattern = regexp.MustCompile(`\b(?:\d[\- ]?){9}[\dXx]\b`)
	pmcidPattern  = regexp.MustCompile(`(?i)\bPMC(\d+)\b`)
	pmidPattern   = regexp.MustCompile(`(?i)\bPMID[:\s]*(\d+)\b`)
	oclcPattern   = regexp.MustCompile(`(?i)\b(?:OCLC|OCoLC)[:\s]*(\d+)\b`)
	digitsOnly    = regexp.MustCompile(`^\d+$`)
)

// DOISearch returns the first DOI found in s, or "".
func DOISearch(s string) string {
	m := doiPattern.FindString(s)
	// DOIs pasted from HTML or prose often drag trailing punctuation.
	return strings.TrimRight(m, ".,;)")
}

// ISBNSearch returns the first ISBN-13 or ISBN-10 found in s, or "".
// ISBN-13 takes precedence.
func ISBNSearch(s string) string {
	if m := isbn13Pattern.FindString(s); m != "" {
		return m
	}
	return isbn10Pattern.FindString(s)
}

// NormalizeDOI strips resolver URL prefixes and a "doi:" label and
// lowercases the result for comparison.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/", "doi:", "DOI:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(doi)
}

// Detect sniffs a raw user input and classifies it. The precedence
// order mirrors resolution cost: explicit prefixed identifiers first,
// then DOIs and ISBNs embedded anywhere in the text, then URLs, and
// finally free text.
func Detect(raw string) Detected {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Detected{Kind: KindFreeText}
	}

	if m := pmcidPattern.FindStringSubmatch(s); m != nil {
		return Detected{Kind: KindPMCID, Value: m[1]}
	}
	if m := pmidPattern.FindStringSubmatch(s); m != nil {
		return Detected{Kind: KindPMID, Value: m[1]}
	}
	if m := oclcPattern.FindStringSubmatch(s); m != nil {
		return Detected{Kind: KindOCLC, Value: m[1]}
	}
	if doi := DOISearch(s); doi != "" {
		return Detected{Kind: KindDOI, Value: NormalizeDOI(doi)}
	}
	if isbn := ISBNSearch(s); isbn != "" {
		return Detected{Kind: KindISBN, Value: isbn}
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		(strings.Contains(s, ".") && !strings.Contains(s, " ")) {
		return Detected{Kind: KindURL, Value: s}
	}
	// Bare digit runs of plausible length are OCLC numbers.
	if digitsOnly.MatchString(s) && len(s) >= 6 && len(s) <= 12 {
		return Detected{Kind: KindOCLC, Value: s}
	}
	return Detected{Kind: KindFreeText, Value: s}
}
