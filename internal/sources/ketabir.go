package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/CrispStrobe/citer/internal/record"
)

// KetabirBaseURL is the Iranian national book house catalog.
const KetabirBaseURL = "http://www.ketab.ir"

// KetabirClient resolves Iranian ISBNs against the Ketab.ir catalog:
// a search request locates the book page, which is then scraped for
// the bibliographic fields.
type KetabirClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// KetabirOption configures a KetabirClient.
type KetabirOption func(*KetabirClient)

// WithKetabirHTTPClient sets a custom HTTP client.
func WithKetabirHTTPClient(hc *http.Client) KetabirOption {
	return func(c *KetabirClient) {
		c.httpClient = hc
	}
}

// WithKetabirBaseURL sets a custom base URL (for testing).
func WithKetabirBaseURL(u string) KetabirOption {
	return func(c *KetabirClient) {
		c.baseURL = u
	}
}

// NewKetabirClient creates a Ketab.ir client.
func NewKetabirClient(opts ...KetabirOption) *KetabirClient {
	c := &KetabirClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		baseURL:    KetabirBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *KetabirClient) Name() string { return "ketabir" }

var bookviewLink = regexp.MustCompile(`bookview\.aspx\?bookid=\d+`)

// Lookup implements Source.
func (c *KetabirClient) Lookup(ctx context.Context, isbn string) (*record.Record, error) {
	bookURL, err := c.isbnToURL(ctx, isbn)
	if err != nil {
		return nil, err
	}
	return c.bookData(ctx, bookURL)
}

// isbnToURL finds the catalog page for an ISBN through the search
// form.
func (c *KetabirClient) isbnToURL(ctx context.Context, isbn string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	searchURL := c.baseURL + "/Search.aspx?Type=Isbn&Term=" + url.QueryEscape(strings.ReplaceAll(isbn, "-", ""))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &APIError{Source: "ketabir", StatusCode: resp.StatusCode, Message: "search request failed"}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	link := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if bookviewLink.MatchString(href) {
			link = href
			return false
		}
		return true
	})
	if link == "" {
		return "", fmt.Errorf("%w: ketabir has no entry for %s", ErrNotFound, isbn)
	}
	if !strings.HasPrefix(link, "http") {
		link = c.baseURL + "/" + strings.TrimPrefix(link, "/")
	}
	return link, nil
}

// Field labels on the Ketab.ir book page.
var ketabirLabels = map[string]string{
	"نام کتاب":   "title",
	"پديدآورنده": "creators",
	"پدیدآورنده": "creators",
	"ناشر":       "publisher",
	"محل نشر":    "address",
	"سال نشر":    "year",
	"شابک":       "isbn",
}

// bookData scrapes the bibliographic table of a book page.
func (c *KetabirClient) bookData(ctx context.Context, bookURL string) (*record.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bookURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &APIError{Source: "ketabir", StatusCode: resp.StatusCode, Message: "book page request failed"}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	fields := map[string]string{}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSuffix(strings.TrimSpace(cells.Eq(0).Text()), ":")
		value := strings.TrimSpace(cells.Eq(1).Text())
		if key, ok := ketabirLabels[label]; ok && value != "" {
			fields[key] = value
		}
	})
	if fields["title"] == "" {
		return nil, fmt.Errorf("%w: no book data at %s", ErrNotFound, bookURL)
	}

	rec := &record.Record{
		Title:     fields["title"],
		Publisher: fields["publisher"],
		Address:   fields["address"],
		Year:      record.ExtractYear(fields["year"]),
		ISBN:      fields["isbn"],
		Language:  "fa",
		URLs:      []string{bookURL},
	}
	if creators := fields["creators"]; creators != "" {
		var refs []record.PersonRef
		for _, part := range strings.FieldsFunc(creators, func(r rune) bool {
			return r == '؛' || r == ';' || r == '،'
		}) {
			if part = strings.TrimSpace(part); part != "" {
				refs = append(refs, record.FreeText(part))
			}
		}
		rec.Authors = record.NormalizeAll(refs)
	}
	return rec, nil
}
