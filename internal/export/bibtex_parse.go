package export

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// BibIndex indexes an existing .bib file so that freshly resolved
// entries can be appended without duplicating what is already there.
type BibIndex struct {
	keys  map[string]bool
	isbns map[string]string // normalized ISBN -> citation key
	dois  map[string]string // normalized DOI -> citation key
}

// NewBibIndex returns an empty index.
func NewBibIndex() *BibIndex {
	return &BibIndex{
		keys:  make(map[string]bool),
		isbns: make(map[string]string),
		dois:  make(map[string]string),
	}
}

// Has reports whether an entry already exists. Identifiers are the
// primary match; the citation key is the fallback.
func (idx *BibIndex) Has(key, isbn, doi string) bool {
	if isbn != "" {
		if _, ok := idx.isbns[normalizeISBN(isbn)]; ok {
			return true
		}
	}
	if doi != "" {
		if _, ok := idx.dois[bibNormalizeDOI(doi)]; ok {
			return true
		}
	}
	return idx.keys[key]
}

var (
	bibEntryStart = regexp.MustCompile(`@\w+\{([^,]+),`)
	bibISBNField  = regexp.MustCompile(`(?i)^\s*isbn\s*=\s*[{"]([^}"]+)[}"]`)
	bibDOIField   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[{"]([^}"]+)[}"]`)
)

// LoadBibIndex builds an index from a .bib file. A missing file yields
// an empty index, not an error.
func LoadBibIndex(path string) (*BibIndex, error) {
	idx := NewBibIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string
	for scanner.Scan() {
		line := scanner.Text()
		if m := bibEntryStart.FindStringSubmatch(line); m != nil {
			currentKey = strings.TrimSpace(m[1])
			idx.keys[currentKey] = true
		}
		if currentKey == "" {
			continue
		}
		if m := bibISBNField.FindStringSubmatch(line); m != nil {
			idx.isbns[normalizeISBN(m[1])] = currentKey
		}
		if m := bibDOIField.FindStringSubmatch(line); m != nil {
			idx.dois[bibNormalizeDOI(m[1])] = currentKey
		}
	}
	return idx, scanner.Err()
}

// AppendToBibFile appends BibTeX content to a file, creating it when
// absent.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString("\n" + content)
	return err
}

func normalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.ToUpper(isbn))
}

func bibNormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
