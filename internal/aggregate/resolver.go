// Package aggregate merges the answers of multiple bibliographic
// backends into one best-effort record.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/CrispStrobe/citer/internal/input"
	"github.com/CrispStrobe/citer/internal/record"
	"github.com/CrispStrobe/citer/internal/sources"
)

// DefaultTimeout bounds one whole multi-source resolution.
const DefaultTimeout = 15 * time.Second

// Common errors returned by the resolver.
var (
	// ErrNoISBN indicates the input contained no recognizable ISBN.
	ErrNoISBN = errors.New("no valid ISBN found in the input")

	// ErrNoData indicates that no source could supply a title.
	ErrNoData = errors.New("no bibliographic information found")
)

// Resolver fans an ISBN out to all configured sources and merges the
// results by priority.
type Resolver struct {
	oclc    *sources.OCLCClient
	sources []sources.Source
	timeout time.Duration
	lang    string // preferred language, reorders sources for Iranian ISBNs
	logf    func(format string, args ...any)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSources replaces the default source set. Order is merge
// priority.
func WithSources(srcs ...sources.Source) ResolverOption {
	return func(r *Resolver) {
		r.sources = srcs
	}
}

// WithOCLCClient sets the client used for direct OCLC number lookups.
func WithOCLCClient(c *sources.OCLCClient) ResolverOption {
	return func(r *Resolver) {
		r.oclc = c
	}
}

// WithTimeout bounds the whole fan-out.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithLanguage sets the preferred content language.
func WithLanguage(lang string) ResolverOption {
	return func(r *Resolver) {
		r.lang = lang
	}
}

// WithLogf installs a diagnostic log function.
func WithLogf(logf func(format string, args ...any)) ResolverOption {
	return func(r *Resolver) {
		r.logf = logf
	}
}

// NewResolver creates a resolver over the default source set.
func NewResolver(opts ...ResolverOption) *Resolver {
	oclc := sources.NewOCLCClient()
	r := &Resolver{
		oclc:    oclc,
		timeout: DefaultTimeout,
		logf:    func(string, ...any) {},
	}
	r.sources = []sources.Source{
		oclc,
		sources.NewCitoidClient(),
		sources.NewGoogleBooksClient(),
		sources.NewKetabirClient(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveISBN extracts an ISBN from the input, queries every source
// concurrently, and merges the answers. Every source is always
// queried; being Iranian only promotes Ketab.ir in merge priority
// when Persian output is preferred.
func (r *Resolver) ResolveISBN(ctx context.Context, in string) (*record.Record, error) {
	isbn := input.ISBNSearch(in)
	if isbn == "" {
		return nil, ErrNoISBN
	}
	iranian := input.IsIranianISBN(isbn)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make([]*record.Record, len(r.sources))
	var wg sync.WaitGroup
	for i, src := range r.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			rec, err := src.Lookup(ctx, isbn)
			if err != nil {
				r.logf("aggregate: %s lookup failed: %v", src.Name(), err)
				return
			}
			results[i] = rec
		}(i, src)
	}
	wg.Wait()

	ordered := r.prioritize(results, iranian)
	merged := merge(ordered)
	if merged.Title == "" {
		return nil, fmt.Errorf("%w: ISBN %s", ErrNoData, isbn)
	}

	merged.ISBN = input.MaskISBN(isbn)
	if merged.Language == "" {
		info := whatlanggo.Detect(merged.Title)
		merged.Language = info.Lang.Iso6391()
	}
	if merged.CiteType == "" {
		merged.CiteType = "book"
	}
	return merged, nil
}

// ResolveOCLC fetches a record directly by OCLC number.
func (r *Resolver) ResolveOCLC(ctx context.Context, oclc string) (*record.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rec, err := r.oclc.ByOCLC(ctx, oclc)
	if err != nil {
		return nil, err
	}
	if rec.Language == "" && rec.Title != "" {
		rec.Language = whatlanggo.Detect(rec.Title).Lang.Iso6391()
	}
	return rec, nil
}

// prioritize orders completed results by merge priority. The slot
// order of r.sources is the default; Ketab.ir moves first for Iranian
// ISBNs when the preferred language is Persian.
func (r *Resolver) prioritize(results []*record.Record, iranian bool) []*record.Record {
	var ordered []*record.Record
	if iranian && r.lang == "fa" {
		for i := len(results) - 1; i >= 0; i-- {
			if r.sources[i].Name() == "ketabir" && results[i] != nil {
				ordered = append(ordered, results[i])
			}
		}
	}
	for i, rec := range results {
		if rec == nil {
			continue
		}
		if iranian && r.lang == "fa" && r.sources[i].Name() == "ketabir" {
			continue
		}
		ordered = append(ordered, rec)
	}
	return ordered
}

// merge combines partial records field by field: the first source in
// priority order that has a value for a field wins that field.
func merge(ordered []*record.Record) *record.Record {
	out := &record.Record{}
	firstString := func(get func(*record.Record) string) string {
		for _, rec := range ordered {
			if v := strings.TrimSpace(get(rec)); v != "" {
				return v
			}
		}
		return ""
	}

	title := firstString(func(r *record.Record) string { return r.FullTitle() })
	if strings.Contains(title, ":") {
		out.Title, out.Subtitle = record.SplitTitle(title)
	} else {
		out.Title = title
		out.Subtitle = firstString(func(r *record.Record) string { return r.Subtitle })
	}

	// Authors win over editors: only when no source has authors do
	// the first editors found become the creators of record.
	for _, rec := range ordered {
		if len(rec.Authors) > 0 {
			out.Authors = rec.Authors
			break
		}
	}
	if len(out.Authors) == 0 {
		for _, rec := range ordered {
			if len(rec.Editors) > 0 {
				out.Editors = rec.Editors
				break
			}
		}
	}
	for _, rec := range ordered {
		if len(rec.Translators) > 0 {
			out.Translators = rec.Translators
			break
		}
	}

	out.Publisher = firstString(func(r *record.Record) string { return r.Publisher })
	out.Address = firstString(func(r *record.Record) string { return r.Address })
	out.Year = firstString(func(r *record.Record) string { return r.Year })
	out.Edition = firstString(func(r *record.Record) string { return r.Edition })
	out.Series = firstString(func(r *record.Record) string { return r.Series })
	out.Extent = firstString(func(r *record.Record) string { return r.Extent })
	out.Language = firstString(func(r *record.Record) string { return r.Language })
	out.OCLC = firstString(func(r *record.Record) string { return r.OCLC })
	out.ISSN = firstString(func(r *record.Record) string { return r.ISSN })
	out.CiteType = firstString(func(r *record.Record) string { return r.CiteType })
	out.DocumentType = firstString(func(r *record.Record) string { return r.DocumentType })
	for _, rec := range ordered {
		if len(rec.URLs) > 0 {
			out.URLs = rec.URLs
			break
		}
	}
	return out
}
