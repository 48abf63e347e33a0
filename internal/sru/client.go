// Package sru implements a client for SRU (Search/Retrieve via URL)
// servers, the search protocol spoken by the national library catalogs
// this tool queries.
package sru

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/time/rate"

	"github.com/CrispStrobe/citer/internal/record"
	"github.com/CrispStrobe/citer/internal/schema"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit caps requests per second per endpoint host. Library
	// SRU servers are conservative backends.
	RateLimit = 5.0

	// DefaultMaxRecords is the record page size requested when the
	// caller does not choose one.
	DefaultMaxRecords = 10

	// DefaultUserAgent identifies the tool to the servers.
	DefaultUserAgent = "citer/1.0 (+https://github.com/CrispStrobe/citer)"
)

// Client is a rate-limited HTTP client for SRU searchRetrieve
// requests. Responses are parsed into the common record model through
// a schema registry.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	registry   *schema.Registry
	userAgent  string
	logf       func(format string, args ...any)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRegistry sets the schema registry used to parse records.
func WithRegistry(r *schema.Registry) ClientOption {
	return func(c *Client) {
		c.registry = r
	}
}

// WithLogf installs a diagnostic log function. By default diagnostics
// are discarded.
func WithLogf(logf func(format string, args ...any)) ClientOption {
	return func(c *Client) {
		c.logf = logf
	}
}

// NewClient creates a new SRU client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		registry:   schema.NewRegistry(),
		userAgent:  DefaultUserAgent,
		logf:       func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchOptions tune a single searchRetrieve call.
type SearchOptions struct {
	MaxRecords  int
	StartRecord int
	Schema      string // overrides the endpoint's default record schema
}

// Result is the outcome of one searchRetrieve call.
type Result struct {
	Endpoint string
	Query    string
	Schema   string // schema actually used, after any substitution
	Total    int    // numberOfRecords reported by the server
	Records  []*record.Record
}

// Search runs a CQL query against a named endpoint and returns parsed
// records. When the server rejects the requested record schema with a
// diagnostic, the call retries exactly once with a compatible schema;
// any other diagnostic, transport failure, or malformed response is
// logged and yields an empty result rather than an error, so one
// misbehaving server cannot fail a whole search.
func (c *Client) Search(ctx context.Context, endpointName, query string, opts *SearchOptions) (*Result, error) {
	ep, ok := LookupEndpoint(endpointName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpointName)
	}
	if opts == nil {
		opts = &SearchOptions{}
	}
	recordSchema := ep.Schema
	if opts.Schema != "" {
		recordSchema = opts.Schema
	}

	res, err := c.searchOnce(ctx, ep, query, recordSchema, opts)
	if IsSchemaUnsupported(err) {
		if sub, ok := compatibleSchema[recordSchema]; ok && sub != recordSchema {
			c.logf("sru: %s rejected schema %q, retrying with %q", ep.Name, recordSchema, sub)
			recordSchema = sub
			res, err = c.searchOnce(ctx, ep, query, sub, opts)
		}
	}
	if err != nil {
		var diag *DiagnosticError
		if errors.As(err, &diag) {
			c.logf("sru: %v", diag)
			return &Result{Endpoint: ep.Name, Query: query, Schema: recordSchema}, nil
		}
		if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrInvalidResponse) {
			c.logf("sru: %s: %v", ep.Name, err)
			return &Result{Endpoint: ep.Name, Query: query, Schema: recordSchema}, nil
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) searchOnce(ctx context.Context, ep Endpoint, query, recordSchema string, opts *SearchOptions) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := buildSearchURL(ep, query, recordSchema, opts)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrInvalidResponse, ep.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	return c.parseEnvelope(ep, query, recordSchema, body)
}

// buildSearchURL assembles the searchRetrieve GET URL.
func buildSearchURL(ep Endpoint, query, recordSchema string, opts *SearchOptions) string {
	maxRecords := opts.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	startRecord := opts.StartRecord
	if startRecord <= 0 {
		startRecord = 1
	}
	values := url.Values{}
	values.Set("version", ep.Version)
	values.Set("operation", "searchRetrieve")
	values.Set("query", query)
	values.Set("maximumRecords", strconv.Itoa(maxRecords))
	values.Set("startRecord", strconv.Itoa(startRecord))
	values.Set("recordSchema", recordSchema)

	sep := "?"
	if strings.Contains(ep.BaseURL, "?") {
		sep = "&"
	}
	return ep.BaseURL + sep + values.Encode()
}

// parseEnvelope unpacks a searchRetrieveResponse: diagnostics first,
// then the record list with identifier assignment and deduplication.
func (c *Client) parseEnvelope(ep Endpoint, query, recordSchema string, body []byte) (*Result, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidResponse)
	}

	if diag := findDiagnostic(root); diag != nil {
		diag.Endpoint = ep.Name
		return nil, diag
	}

	result := &Result{Endpoint: ep.Name, Query: query, Schema: recordSchema}
	if n := findLocalText(root, "numberOfRecords"); n != "" {
		if total, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			result.Total = total
		}
	}

	seen := map[string]int{}
	position := 0
	for _, recEl := range findLocal(root, "record") {
		// rdf:Description children etc. can nest elements named
		// "record"; only direct SRU records carry recordData.
		data := childLocal(recEl, "recordData")
		if data == nil {
			continue
		}
		position++

		id := strings.TrimSpace(textLocal(recEl, "recordIdentifier"))
		if id == "" {
			if pos := strings.TrimSpace(textLocal(recEl, "recordPosition")); pos != "" {
				id = "record-" + pos
			} else {
				id = "record-" + strconv.Itoa(position)
			}
		}
		// Identifiers must be unique within one response; duplicates
		// get a numeric suffix in encounter order.
		if n, dup := seen[id]; dup {
			seen[id] = n + 1
			id = id + "_" + strconv.Itoa(n)
		} else {
			seen[id] = 1
		}

		recSchema := strings.TrimSpace(textLocal(recEl, "recordSchema"))
		if recSchema == "" {
			recSchema = recordSchema
		}

		payload := innerXML(data)
		result.Records = append(result.Records, c.registry.Parse(schema.RawRecord{
			ID:      id,
			Schema:  recSchema,
			Payload: payload,
		}))
	}

	return result, nil
}

// findDiagnostic returns the first diagnostic in the envelope, or nil.
func findDiagnostic(root *etree.Element) *DiagnosticError {
	for _, el := range findLocal(root, "diagnostic") {
		diag := &DiagnosticError{
			URI:     strings.TrimSpace(textLocal(el, "uri")),
			Message: strings.TrimSpace(textLocal(el, "message")),
			Details: strings.TrimSpace(textLocal(el, "details")),
		}
		if diag.URI != "" || diag.Message != "" {
			return diag
		}
	}
	return nil
}

// innerXML serializes the first child element of a container back to
// an XML string, carrying inherited namespace declarations along so
// the fragment parses on its own.
func innerXML(container *etree.Element) string {
	child := firstChildElement(container)
	if child == nil {
		return strings.TrimSpace(container.Text())
	}
	copied := child.Copy()
	for anc := container; anc != nil; anc = anc.Parent() {
		for _, attr := range anc.Attr {
			if attr.Space != "xmlns" && !(attr.Space == "" && attr.Key == "xmlns") {
				continue
			}
			if copied.SelectAttr(attr.FullKey()) == nil {
				copied.CreateAttr(attr.FullKey(), attr.Value)
			}
		}
	}
	doc := etree.NewDocument()
	doc.SetRoot(copied)
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}

func firstChildElement(el *etree.Element) *etree.Element {
	children := el.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// findLocal collects descendant elements by local name, ignoring
// namespaces and prefixes.
func findLocal(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == tag {
			out = append(out, e)
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return out
}

func findLocalText(root *etree.Element, tag string) string {
	for _, el := range findLocal(root, tag) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
	}
	return ""
}

// childLocal returns the first direct child with the local name.
func childLocal(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// textLocal returns the text of the first descendant with the local
// name.
func textLocal(el *etree.Element, tag string) string {
	for _, found := range findLocal(el, tag) {
		return found.Text()
	}
	return ""
}
