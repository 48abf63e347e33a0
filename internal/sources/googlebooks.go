package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/CrispStrobe/citer/internal/record"
)

// GoogleBooksBaseURL is the public volumes search API.
const GoogleBooksBaseURL = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooksClient queries the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
}

// GoogleBooksOption configures a GoogleBooksClient.
type GoogleBooksOption func(*GoogleBooksClient)

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(hc *http.Client) GoogleBooksOption {
	return func(c *GoogleBooksClient) {
		c.httpClient = hc
	}
}

// WithGoogleBaseURL sets a custom base URL (for testing).
func WithGoogleBaseURL(u string) GoogleBooksOption {
	return func(c *GoogleBooksClient) {
		c.baseURL = u
	}
}

// WithGoogleAPIKey sets an API key to raise the quota.
func WithGoogleAPIKey(key string) GoogleBooksOption {
	return func(c *GoogleBooksClient) {
		c.apiKey = key
	}
}

// NewGoogleBooksClient creates a Google Books client.
func NewGoogleBooksClient(opts ...GoogleBooksOption) *GoogleBooksClient {
	c := &GoogleBooksClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		baseURL:    GoogleBooksBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *GoogleBooksClient) Name() string { return "google" }

type googleVolumeInfo struct {
	Title               string   `json:"title"`
	Subtitle            string   `json:"subtitle"`
	Authors             []string `json:"authors"`
	Publisher           string   `json:"publisher"`
	PublishedDate       string   `json:"publishedDate"`
	PageCount           int      `json:"pageCount"`
	Language            string   `json:"language"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
}

// Lookup implements Source.
func (c *GoogleBooksClient) Lookup(ctx context.Context, isbn string) (*record.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	values := url.Values{}
	values.Set("q", "isbn:"+strings.ReplaceAll(isbn, "-", ""))
	if c.apiKey != "" {
		values.Set("key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &APIError{Source: "google", StatusCode: resp.StatusCode, Message: "volumes request failed"}
	}

	var body struct {
		TotalItems int `json:"totalItems"`
		Items      []struct {
			VolumeInfo googleVolumeInfo `json:"volumeInfo"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: parsing volumes: %v", ErrInvalidResponse, err)
	}
	if len(body.Items) == 0 {
		return nil, fmt.Errorf("%w: no volumes for ISBN %s", ErrNotFound, isbn)
	}
	info := body.Items[0].VolumeInfo

	rec := &record.Record{
		Title:     info.Title,
		Subtitle:  info.Subtitle,
		Publisher: info.Publisher,
		Year:      record.ExtractYear(info.PublishedDate),
		Language:  info.Language,
	}
	refs := make([]record.PersonRef, 0, len(info.Authors))
	for _, a := range info.Authors {
		refs = append(refs, record.FreeText(a))
	}
	rec.Authors = record.NormalizeAll(refs)
	if info.PageCount > 0 {
		rec.Extent = strconv.Itoa(info.PageCount) + " p."
	}
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			rec.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && rec.ISBN == "" {
			rec.ISBN = id.Identifier
		}
	}
	return rec, nil
}
