package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/time/rate"

	"github.com/CrispStrobe/citer/internal/record"
)

const (
	// WorldCatBaseURL serves per-item bibliographic JSON.
	WorldCatBaseURL = "https://search.worldcat.org/api/search-item"

	// ClassifyBaseURL resolves an ISBN to OCLC work numbers.
	ClassifyBaseURL = "http://classify.oclc.org/classify2/Classify"

	worldcatRateLimit = 5.0
)

// Placeholder values WorldCat uses for unidentified imprint fields.
const (
	unidentifiedPublisher = "[publisher not identified]"
	unidentifiedPlace     = "[Place of publication not identified]"
)

// OCLCClient queries WorldCat, resolving ISBNs through the Classify
// service first.
type OCLCClient struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	classifyURL string
}

// OCLCOption configures an OCLCClient.
type OCLCOption func(*OCLCClient)

// WithOCLCHTTPClient sets a custom HTTP client.
func WithOCLCHTTPClient(hc *http.Client) OCLCOption {
	return func(c *OCLCClient) {
		c.httpClient = hc
	}
}

// WithOCLCBaseURL sets custom item and classify URLs (for testing).
func WithOCLCBaseURL(itemURL, classifyURL string) OCLCOption {
	return func(c *OCLCClient) {
		c.baseURL = itemURL
		c.classifyURL = classifyURL
	}
}

// NewOCLCClient creates a WorldCat client.
func NewOCLCClient(opts ...OCLCOption) *OCLCClient {
	c := &OCLCClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(worldcatRateLimit), 1),
		baseURL:     WorldCatBaseURL,
		classifyURL: ClassifyBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *OCLCClient) Name() string { return "oclc" }

// Lookup implements Source: ISBN to OCLC number, then item data.
func (c *OCLCClient) Lookup(ctx context.Context, isbn string) (*record.Record, error) {
	oclc, err := c.classify(ctx, isbn)
	if err != nil {
		return nil, err
	}
	return c.ByOCLC(ctx, oclc)
}

// classify resolves an ISBN to the first OCLC work number the
// Classify service reports.
func (c *OCLCClient) classify(ctx context.Context, isbn string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	url := c.classifyURL + "?summary=true&isbn=" + strings.ReplaceAll(isbn, "-", "")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &APIError{Source: "oclc-classify", StatusCode: resp.StatusCode, Message: "classify request failed"}
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(io.LimitReader(resp.Body, 4<<20)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("%w: empty classify response", ErrInvalidResponse)
	}
	for _, el := range root.FindElements(".//work") {
		if oclc := el.SelectAttrValue("oclc", ""); oclc != "" {
			return oclc, nil
		}
	}
	// Single-work responses carry the number on the work element
	// directly under workCount=1; some carry it on <owi>.
	for _, el := range root.FindElements(".//owi") {
		if oclc := el.SelectAttrValue("oclc", ""); oclc != "" {
			return oclc, nil
		}
	}
	return "", fmt.Errorf("%w: no OCLC number for ISBN %s", ErrNotFound, isbn)
}

// worldcatItem is the search-item JSON payload.
type worldcatItem struct {
	Title              string   `json:"title"`
	GeneralFormat      string   `json:"generalFormat"`
	Publisher          string   `json:"publisher"`
	PublicationPlace   string   `json:"publicationPlace"`
	PublicationDate    string   `json:"publicationDate"`
	CatalogingLanguage string   `json:"catalogingLanguage"`
	ISBN13             string   `json:"isbn13"`
	ISSNs              []string `json:"issns"`
	Contributors       []struct {
		FirstName     *worldcatText `json:"firstName"`
		SecondName    *worldcatText `json:"secondName"`
		NonPersonName *worldcatText `json:"nonPersonName"`
		IsPrimary     bool          `json:"isPrimary"`
	} `json:"contributors"`
}

type worldcatText struct {
	Text string `json:"text"`
}

// ByOCLC fetches item data for an OCLC number.
func (c *OCLCClient) ByOCLC(ctx context.Context, oclc string) (*record.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+oclc, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// The search-item endpoint rejects requests without a referer.
	req.Header.Set("Referer", "https://search.worldcat.org/")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &APIError{Source: "oclc", StatusCode: resp.StatusCode, Message: "search-item request failed"}
	}

	var item worldcatItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("%w: parsing item: %v", ErrInvalidResponse, err)
	}
	if item.Title == "" && len(item.Contributors) == 0 {
		return nil, fmt.Errorf("%w: OCLC %s", ErrNotFound, oclc)
	}

	rec := &record.Record{
		Title: item.Title,
		OCLC:  oclc,
	}
	format := item.GeneralFormat
	if format == "" {
		format = "book"
	}
	rec.DocumentType = strings.ToLower(format)
	rec.CiteType = record.InferCiteType(rec.DocumentType)

	var people []record.PersonRef
	for _, contrib := range item.Contributors {
		switch {
		case contrib.NonPersonName != nil:
			people = append(people, record.FreeText(contrib.NonPersonName.Text))
		case contrib.FirstName != nil && contrib.SecondName != nil:
			people = append(people, record.StructuredName{
				Given:  contrib.FirstName.Text,
				Family: contrib.SecondName.Text,
			})
		}
	}
	rec.Authors = record.NormalizeAll(people)

	if item.Publisher != "" && item.Publisher != unidentifiedPublisher {
		rec.Publisher = item.Publisher
	}
	if item.PublicationPlace != "" && item.PublicationPlace != unidentifiedPlace {
		rec.Address = item.PublicationPlace
	}
	rec.Year = record.ExtractYear(item.PublicationDate)
	rec.Language = item.CatalogingLanguage
	rec.ISBN = item.ISBN13
	if len(item.ISSNs) > 0 {
		rec.ISSN = item.ISSNs[0]
	}
	return rec, nil
}
