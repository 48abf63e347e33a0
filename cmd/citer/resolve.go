package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CrispStrobe/citer/internal/aggregate"
	"github.com/CrispStrobe/citer/internal/cache"
	"github.com/CrispStrobe/citer/internal/clipboard"
	"github.com/CrispStrobe/citer/internal/config"
	"github.com/CrispStrobe/citer/internal/export"
	"github.com/CrispStrobe/citer/internal/input"
	"github.com/CrispStrobe/citer/internal/record"
	"github.com/CrispStrobe/citer/internal/sources"
)

var (
	resolveFormat     string
	resolveLang       string
	resolveAppendBib  string
	resolveWithRecord bool
	resolveCopy       bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>...",
	Short: "Resolve ISBN or OCLC identifiers into citations",
	Long: `Resolve identifiers into full citations.

Each identifier is sniffed for its kind, fanned out to every catalog
source, and the answers merged into one record. Hyphenation and
surrounding text are tolerated; "ISBN 978-3-16-148410-0" and
"9783161484100" resolve the same book.

Examples:
  citer resolve 978-3-16-148410-0
  citer resolve OCLC:1004268312 --format bibtex
  citer resolve 9783161484100 9789640000000 --format bibtex --append-bib ~/refs.bib
  citer resolve 964-6045-41-2 --lang fa --format custom --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveFormat, "format", "f", FormatWikipedia, "Output format: wikipedia, custom, bibtex, ris")
	resolveCmd.Flags().StringVar(&resolveLang, "lang", "", "Preferred content language (overrides config)")
	resolveCmd.Flags().StringVar(&resolveAppendBib, "append-bib", "", "Append BibTeX entries to this file, skipping duplicates")
	resolveCmd.Flags().BoolVar(&resolveWithRecord, "record", false, "Include the merged record in JSON output")
	resolveCmd.Flags().BoolVarP(&resolveCopy, "copy", "c", false, "Also copy the rendered citation to the clipboard")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	lang := resolveLang
	if lang == "" {
		lang = config.GetLanguage()
	}

	opts := []aggregate.ResolverOption{
		aggregate.WithLanguage(lang),
		aggregate.WithLogf(logf),
	}
	if d := config.GetTimeout(); d > 0 {
		opts = append(opts, aggregate.WithTimeout(d))
	}
	if key := config.GetGoogleAPIKey(); key != "" {
		opts = append(opts, aggregate.WithSources(
			sources.NewOCLCClient(),
			sources.NewCitoidClient(),
			sources.NewGoogleBooksClient(sources.WithGoogleAPIKey(key)),
			sources.NewKetabirClient(),
		))
	}
	resolver := aggregate.NewResolver(opts...)

	memo, err := cache.NewMemo[*record.Record](config.GetCacheSize())
	if err != nil {
		exitWithError(ExitError, "creating cache: %v", err)
	}

	var recs []*record.Record
	for _, arg := range args {
		rec, err := resolveOne(ctx, resolver, memo, arg)
		if err != nil {
			if errors.Is(err, aggregate.ErrNoData) || errors.Is(err, sources.ErrNotFound) {
				exitWithError(ExitNotFound, "%s: %v", arg, err)
			}
			if errors.Is(err, aggregate.ErrNoISBN) || errors.Is(err, errUnsupportedKind) {
				exitWithError(ExitDataError, "%s: %v", arg, err)
			}
			exitWithError(ExitError, "%s: %v", arg, err)
		}
		recs = append(recs, rec)
	}

	if resolveAppendBib != "" {
		if err := appendBib(recs); err != nil {
			exitWithError(ExitConfigError, "appending to %s: %v", resolveAppendBib, err)
		}
	}

	// A BibTeX batch gets collision-free keys across the whole run.
	if resolveFormat == FormatBibTeX && len(recs) > 1 {
		keys := record.UniqueKeys(recs)
		for i, rec := range recs {
			printResponse(CitationResponse{
				Format:   FormatBibTeX,
				Citation: export.ToBibTeX(rec, keys[i]),
				Record:   rec,
			}, resolveWithRecord)
		}
		return nil
	}

	var copied []string
	for _, rec := range recs {
		resp, err := renderRecord(ctx, rec, resolveFormat)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		resp.Record = rec
		printResponse(resp, resolveWithRecord)
		if resolveCopy {
			if resp.Citation != "" {
				copied = append(copied, resp.Citation)
			} else {
				copied = append(copied, resp.Cit)
			}
		}
	}
	if resolveCopy {
		if err := clipboard.Copy(strings.Join(copied, "\n")); err != nil {
			outputDiag("clipboard: %v", err)
		}
	}
	return nil
}

var errUnsupportedKind = errors.New("unsupported identifier kind")

// resolveOne routes a sniffed identifier to the right lookup. Repeated
// identifiers in one invocation share a single lookup via the memo.
func resolveOne(ctx context.Context, resolver *aggregate.Resolver, memo *cache.Memo[*record.Record], arg string) (*record.Record, error) {
	det := input.Detect(strings.TrimSpace(arg))
	key := cache.Key(string(det.Kind), det.Value)

	switch det.Kind {
	case input.KindISBN:
		return memo.Do(key, func() (*record.Record, error) {
			return resolver.ResolveISBN(ctx, det.Value)
		})
	case input.KindOCLC:
		return memo.Do(key, func() (*record.Record, error) {
			return resolver.ResolveOCLC(ctx, det.Value)
		})
	default:
		return nil, fmt.Errorf("%w: %s (try 'citer search' for free-text queries)", errUnsupportedKind, det.Kind)
	}
}

// appendBib writes the resolved records to the bibliography file,
// skipping entries it already holds.
func appendBib(recs []*record.Record) error {
	path := config.ExpandTilde(resolveAppendBib)
	idx, err := export.LoadBibIndex(path)
	if err != nil {
		return err
	}

	keys := record.UniqueKeys(recs)
	for i, rec := range recs {
		if idx.Has(keys[i], rec.ISBN, rec.DOI) {
			logf("skipping %s: already in %s", keys[i], path)
			continue
		}
		if err := export.AppendToBibFile(path, export.ToBibTeX(rec, keys[i])); err != nil {
			return err
		}
	}
	return nil
}
