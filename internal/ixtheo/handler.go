// Package ixtheo searches the Index Theologicus catalog and enriches
// its results through the catalog's RIS export and detail pages.
package ixtheo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/CrispStrobe/citer/internal/export"
	"github.com/CrispStrobe/citer/internal/record"
)

const (
	// DefaultBaseURL is the public IxTheo instance.
	DefaultBaseURL = "https://ixtheo.de"

	// RateLimit caps requests per second against the catalog.
	RateLimit = 2.0

	DefaultMaxResults = 20
)

// Handler runs searches and record enrichment against one IxTheo
// instance.
type Handler struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	logf       func(string, ...any)
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HandlerOption {
	return func(h *Handler) { h.httpClient = c }
}

// WithBaseURL points the handler at a different catalog instance.
func WithBaseURL(u string) HandlerOption {
	return func(h *Handler) { h.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) HandlerOption {
	return func(h *Handler) { h.userAgent = ua }
}

// WithLogf installs a diagnostic log function.
func WithLogf(f func(string, ...any)) HandlerOption {
	return func(h *Handler) { h.logf = f }
}

// NewHandler creates a Handler with defaults applied.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 5),
		baseURL:    DefaultBaseURL,
		userAgent:  "citer/1.0 (+https://github.com/CrispStrobe/citer)",
		logf:       func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var (
	recordHref  = regexp.MustCompile(`/Record/([^/?#]+)`)
	resultStats = regexp.MustCompile(`(?:of|von)\s+([\d.,]+)`)
)

// Search queries the catalog and returns skeleton records built from
// the result list. Each record carries at least an id and a title;
// Enrich fills in the rest.
func (h *Handler) Search(ctx context.Context, query string, maxResults int) (int, []*record.Record, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	u := fmt.Sprintf("%s/Search/Results?%s", h.baseURL, url.Values{
		"lookfor": {query},
		"type":    {"AllFields"},
		"limit":   {strconv.Itoa(maxResults)},
	}.Encode())

	doc, err := h.fetchDocument(ctx, u)
	if err != nil {
		return 0, nil, err
	}

	total := parseTotal(doc)

	var recs []*record.Record
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rec := parseResultItem(sel)
		if rec == nil {
			return true
		}
		rec.URLs = []string{h.baseURL + "/Record/" + rec.ID}
		recs = append(recs, rec)
		return len(recs) < maxResults
	})
	if total == 0 {
		total = len(recs)
	}
	return total, recs, nil
}

func parseTotal(doc *goquery.Document) int {
	stats := strings.TrimSpace(doc.Find(".search-stats").First().Text())
	m := resultStats.FindStringSubmatch(stats)
	if m == nil {
		return 0
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	n, _ := strconv.Atoi(digits)
	return n
}

func parseResultItem(sel *goquery.Selection) *record.Record {
	rec := &record.Record{}

	if v, ok := sel.Find("input.hiddenId").First().Attr("value"); ok {
		rec.ID = strings.TrimSpace(v)
	}

	titleLink := sel.Find("a.title").First()
	if rec.ID == "" {
		if href, ok := titleLink.Attr("href"); ok {
			if m := recordHref.FindStringSubmatch(href); m != nil {
				rec.ID = m[1]
			}
		}
	}
	if rec.ID == "" {
		return nil
	}

	rec.Title, rec.Subtitle = record.SplitTitle(strings.TrimSpace(titleLink.Text()))

	sel.Find(`a[href*="/Author/"], a[href*="type=Author"]`).Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		rec.Authors = append(rec.Authors, parseListedName(name))
	})

	format := strings.TrimSpace(sel.Find(".format").First().Text())
	if format != "" {
		rec.DocumentType = format
		rec.CiteType = record.InferCiteType(format)
	}

	if y := record.ExtractYear(sel.Text()); y != "" {
		rec.Year = y
	}
	return rec
}

// Enrich fills a skeleton search result with full bibliographic data.
// It tries the catalog's RIS export first and falls back to scraping
// the record's detail page; when every step fails the input record is
// returned unchanged.
func (h *Handler) Enrich(ctx context.Context, rec *record.Record) *record.Record {
	steps := []struct {
		name string
		run  func(context.Context, *record.Record) (*record.Record, error)
	}{
		{"ris-export", h.enrichFromRIS},
		{"detail-page", h.enrichFromDetail},
	}
	for _, step := range steps {
		enriched, err := step.run(ctx, rec)
		if err != nil {
			h.logf("ixtheo: %s enrichment for %s failed: %v", step.name, rec.ID, err)
			continue
		}
		return enriched
	}
	return rec
}

// SearchEnriched runs Search, enriches every hit, and orders the
// results so that books come before chapters and chapters before
// articles.
func (h *Handler) SearchEnriched(ctx context.Context, query string, maxResults int) (int, []*record.Record, error) {
	total, recs, err := h.Search(ctx, query, maxResults)
	if err != nil {
		return 0, nil, err
	}
	for i, rec := range recs {
		recs[i] = h.Enrich(ctx, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return citeRank(recs[i].CiteType) < citeRank(recs[j].CiteType)
	})
	return total, recs, nil
}

func citeRank(citeType string) int {
	switch citeType {
	case "book":
		return 0
	case "chapter":
		return 1
	}
	return 2
}

func (h *Handler) enrichFromRIS(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/Record/%s/Export?style=RIS", h.baseURL, url.PathEscape(rec.ID))

	body, err := h.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	parsed := export.ParseRIS(string(body))
	if parsed == nil || parsed.Title == "" {
		return nil, fmt.Errorf("empty RIS export")
	}
	splitRoleTags(parsed)
	parsed.ID = rec.ID
	fillFrom(parsed, rec)
	return parsed, nil
}

// applyDetailField maps a detail-page row label onto a record field.
// Labels appear in English or German depending on the session locale.
func applyDetailField(r *record.Record, label, value string) bool {
	switch label {
	case "published", "veröffentlicht", "published in":
		applyPublished(r, value)
	case "isbn":
		r.ISBN = firstField(value)
	case "issn":
		r.ISSN = firstField(value)
	case "edition", "ausgabe":
		r.Edition = value
	case "series", "schriftenreihe":
		r.Series = value
	case "format":
		r.DocumentType = value
		r.CiteType = record.InferCiteType(value)
	case "language", "sprache":
		r.Language = value
	default:
		return false
	}
	return true
}

func (h *Handler) enrichFromDetail(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/Record/%s", h.baseURL, url.PathEscape(rec.ID))

	doc, err := h.fetchDocument(ctx, u)
	if err != nil {
		return nil, err
	}

	enriched := *rec
	found := false
	doc.Find("table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(
			strings.TrimSpace(row.Find("th").First().Text()), ":")))
		value := strings.TrimSpace(row.Find("td").First().Text())
		if label == "" || value == "" {
			return
		}
		if applyDetailField(&enriched, label, value) {
			found = true
		}
	})
	if !found {
		return nil, fmt.Errorf("no detail fields found")
	}
	return &enriched, nil
}

// applyPublished splits a "Place : Publisher, Year" statement.
func applyPublished(r *record.Record, v string) {
	if y := record.ExtractYear(v); y != "" {
		r.Year = y
	}
	v = strings.TrimRight(strings.TrimSpace(v), ",")
	if i := strings.LastIndex(v, ","); i >= 0 && record.ExtractYear(v[i:]) != "" {
		v = strings.TrimSpace(v[:i])
	}
	if place, publisher, ok := strings.Cut(v, ":"); ok {
		r.Address = strings.TrimSpace(place)
		r.Publisher = strings.TrimSpace(publisher)
	} else if v != "" {
		r.Publisher = v
	}
}

func firstField(v string) string {
	if fields := strings.Fields(v); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

var roleTag = regexp.MustCompile(`\s*\(([a-z]{3})\)\s*$`)

// splitRoleTags moves RIS author lines carrying a trailing relator tag,
// "Müller, Hans (edt)" and the like, into the editor or translator
// bucket and strips the tag everywhere else.
func splitRoleTags(rec *record.Record) {
	var authors []record.Name
	for _, n := range rec.Authors {
		tagged, role := stripRoleTag(n)
		switch role {
		case record.RoleEditor:
			rec.Editors = append(rec.Editors, tagged)
		case record.RoleTranslator:
			rec.Translators = append(rec.Translators, tagged)
		default:
			authors = append(authors, tagged)
		}
	}
	rec.Authors = authors

	for i, n := range rec.Editors {
		rec.Editors[i], _ = stripRoleTag(n)
	}
	for i, n := range rec.Translators {
		rec.Translators[i], _ = stripRoleTag(n)
	}
}

func stripRoleTag(n record.Name) (record.Name, record.Role) {
	role := record.RoleAuthor
	strip := func(s string) string {
		m := roleTag.FindStringSubmatch(s)
		if m == nil {
			return s
		}
		switch m[1] {
		case "edt", "hrg", "hsg":
			role = record.RoleEditor
		case "trl":
			role = record.RoleTranslator
		}
		return strings.TrimSpace(roleTag.ReplaceAllString(s, ""))
	}
	n.First = strip(n.First)
	n.Last = strip(n.Last)
	return n, role
}

// fillFrom copies fields the enriched record is missing from the
// search-result skeleton.
func fillFrom(dst, src *record.Record) {
	if dst.Title == "" {
		dst.Title, dst.Subtitle = src.Title, src.Subtitle
	}
	if len(dst.Authors) == 0 && len(dst.Editors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Year == "" {
		dst.Year = src.Year
	}
	if dst.CiteType == "" {
		dst.CiteType = src.CiteType
	}
	if dst.DocumentType == "" {
		dst.DocumentType = src.DocumentType
	}
	if len(dst.URLs) == 0 {
		dst.URLs = src.URLs
	}
}

// parseListedName splits a displayed name into first and last parts.
// Catalog listings use "Last, First"; bare names become surnames.
func parseListedName(s string) record.Name {
	if last, first, ok := strings.Cut(s, ","); ok {
		return record.Name{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
	}
	fields := strings.Fields(s)
	if len(fields) > 1 {
		return record.Name{
			First: strings.Join(fields[:len(fields)-1], " "),
			Last:  fields[len(fields)-1],
		}
	}
	return record.Name{Last: s}
}

func (h *Handler) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}

func (h *Handler) fetchDocument(ctx context.Context, u string) (*goquery.Document, error) {
	body, err := h.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(body)))
}
