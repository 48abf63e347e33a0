package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/CrispStrobe/citer/internal/record"
)

// CitoidBaseURL is the Wikimedia citation service in mediawiki
// format.
const CitoidBaseURL = "https://en.wikipedia.org/api/rest_v1/data/citation/mediawiki"

// CitoidClient queries the Wikimedia Citoid service.
type CitoidClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// CitoidOption configures a CitoidClient.
type CitoidOption func(*CitoidClient)

// WithCitoidHTTPClient sets a custom HTTP client.
func WithCitoidHTTPClient(hc *http.Client) CitoidOption {
	return func(c *CitoidClient) {
		c.httpClient = hc
	}
}

// WithCitoidBaseURL sets a custom base URL (for testing).
func WithCitoidBaseURL(u string) CitoidOption {
	return func(c *CitoidClient) {
		c.baseURL = u
	}
}

// NewCitoidClient creates a Citoid client.
func NewCitoidClient(opts ...CitoidOption) *CitoidClient {
	c := &CitoidClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		baseURL:    CitoidBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *CitoidClient) Name() string { return "citoid" }

// citoidItem is one citation in mediawiki format. People come as
// [first, last] pairs.
type citoidItem struct {
	ItemType    string      `json:"itemType"`
	Title       string      `json:"title"`
	Publisher   string      `json:"publisher"`
	Place       string      `json:"place"`
	Date        string      `json:"date"`
	Edition     string      `json:"edition"`
	Series      string      `json:"series"`
	NumPages    string      `json:"numPages"`
	Language    string      `json:"language"`
	OCLC        string      `json:"oclc"`
	ISBN        []string    `json:"ISBN"`
	Authors     [][2]string `json:"author"`
	Editors     [][2]string `json:"editor"`
	Translators [][2]string `json:"translator"`
}

// Lookup implements Source.
func (c *CitoidClient) Lookup(ctx context.Context, isbn string) (*record.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(isbn), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: citoid has no data for %s", ErrNotFound, isbn)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Source: "citoid", StatusCode: resp.StatusCode, Message: "citation request failed"}
	}

	var items []citoidItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: parsing citation: %v", ErrInvalidResponse, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: citoid returned no citations for %s", ErrNotFound, isbn)
	}
	item := items[0]

	rec := &record.Record{
		Title:     item.Title,
		Publisher: item.Publisher,
		Address:   item.Place,
		Year:      record.ExtractYear(item.Date),
		Edition:   item.Edition,
		Series:    item.Series,
		Language:  item.Language,
		OCLC:      item.OCLC,
		CiteType:  citoidCiteType(item.ItemType),
	}
	if len(item.ISBN) > 0 {
		rec.ISBN = item.ISBN[0]
	}
	rec.Authors = pairsToNames(item.Authors)
	rec.Editors = pairsToNames(item.Editors)
	rec.Translators = pairsToNames(item.Translators)
	return rec, nil
}

func pairsToNames(pairs [][2]string) []record.Name {
	refs := make([]record.PersonRef, 0, len(pairs))
	for _, p := range pairs {
		refs = append(refs, record.Pair{First: p[0], Last: p[1]})
	}
	return record.NormalizeAll(refs)
}

func citoidCiteType(itemType string) string {
	switch itemType {
	case "journalArticle":
		return "article-journal"
	case "bookSection":
		return "chapter"
	case "thesis":
		return "thesis"
	case "webpage":
		return "web"
	case "book", "":
		return "book"
	}
	return "book"
}
