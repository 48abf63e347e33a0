package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CrispStrobe/citer/internal/record"
)

var pageRange = regexp.MustCompile(`\s*[-–]\s*`)

// ToRIS converts a record to one RIS entry ending with "ER  -".
func ToRIS(rec *record.Record) string {
	var b strings.Builder

	tag := func(name, value string) {
		if value != "" {
			b.WriteString(fmt.Sprintf("%s  - %s\n", name, value))
		}
	}

	tag("TY", risEntryType(rec.CiteType))
	tag("TI", rec.FullTitle())
	if rec.CiteType == "chapter" {
		tag("T2", containerTitle(rec))
	}
	for _, a := range rec.Authors {
		tag("AU", a.Inverted())
	}
	for _, e := range rec.Editors {
		tag("ED", e.Inverted())
	}
	tag("PY", rec.Year)
	tag("PB", rec.Publisher)
	tag("CY", rec.Address)
	if rec.CiteType != "chapter" {
		tag("JO", rec.Journal)
	}
	tag("VL", rec.Volume)
	tag("IS", rec.Issue)
	if rec.Pages != "" {
		parts := pageRange.Split(rec.Pages, 2)
		tag("SP", parts[0])
		if len(parts) == 2 {
			tag("EP", parts[1])
		}
	}
	if rec.ISBN != "" {
		tag("SN", rec.ISBN)
	} else {
		tag("SN", rec.ISSN)
	}
	tag("DO", rec.DOI)
	tag("UR", rec.URL())
	b.WriteString("ER  - \n")
	return b.String()
}

// ToRISList converts multiple records to a single RIS stream.
func ToRISList(recs []*record.Record) string {
	entries := make([]string, len(recs))
	for i, rec := range recs {
		entries[i] = ToRIS(rec)
	}
	return strings.Join(entries, "\n")
}

func risEntryType(citeType string) string {
	switch citeType {
	case "article-journal", "journal":
		return "JOUR"
	case "chapter":
		return "CHAP"
	case "book":
		return "BOOK"
	case "thesis":
		return "THES"
	case "web":
		return "ELEC"
	}
	return "GEN"
}

var risLine = regexp.MustCompile(`^([A-Z][A-Z0-9])  - ?(.*)$`)

// ParseRIS parses the first entry in a RIS stream. Tags it does not
// recognize are skipped. Returns nil when no tagged lines are found.
func ParseRIS(data string) *record.Record {
	rec := &record.Record{}
	var sp, ep string
	seen := false

	for _, line := range strings.Split(data, "\n") {
		m := risLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		tag, value := m[1], strings.TrimSpace(m[2])
		if tag == "ER" {
			break
		}
		if value == "" {
			continue
		}
		seen = true
		switch tag {
		case "TY":
			rec.CiteType = risCiteType(value)
		case "TI", "T1":
			rec.Title, rec.Subtitle = record.SplitTitle(value)
		case "T2":
			if rec.CiteType == "chapter" {
				rec.Series = value
			} else {
				rec.Journal = value
			}
		case "AU", "A1":
			rec.Authors = append(rec.Authors, parseInverted(value))
		case "ED", "A2":
			rec.Editors = append(rec.Editors, parseInverted(value))
		case "A4":
			rec.Translators = append(rec.Translators, parseInverted(value))
		case "PY", "Y1":
			rec.Year = record.ExtractYear(value)
		case "PB":
			rec.Publisher = value
		case "CY":
			rec.Address = value
		case "JO", "JF":
			rec.Journal = value
		case "VL":
			rec.Volume = value
		case "IS":
			rec.Issue = value
		case "SP":
			sp = value
		case "EP":
			ep = value
		case "SN":
			if strings.Contains(value, "-") && len(value) == 9 {
				rec.ISSN = value
			} else {
				rec.ISBN = value
			}
		case "DO":
			rec.DOI = value
		case "UR":
			rec.URLs = append(rec.URLs, value)
		case "LA":
			rec.Language = value
		}
	}
	if !seen {
		return nil
	}
	if sp != "" && ep != "" {
		rec.Pages = sp + "-" + ep
	} else if sp != "" {
		rec.Pages = sp
	}
	return rec
}

func risCiteType(ty string) string {
	switch ty {
	case "JOUR":
		return "article-journal"
	case "CHAP":
		return "chapter"
	case "BOOK":
		return "book"
	case "THES":
		return "thesis"
	case "ELEC":
		return "web"
	}
	return ""
}

// parseInverted splits "Last, First" into a Name; a value without a
// comma is treated as a bare surname.
func parseInverted(s string) record.Name {
	last, first, ok := strings.Cut(s, ",")
	if !ok {
		return record.Name{Last: strings.TrimSpace(s)}
	}
	return record.Name{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
}
