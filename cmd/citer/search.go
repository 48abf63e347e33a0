package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/CrispStrobe/citer/internal/config"
	"github.com/CrispStrobe/citer/internal/ixtheo"
	"github.com/CrispStrobe/citer/internal/record"
	"github.com/CrispStrobe/citer/internal/sru"
)

var (
	searchEndpoint   string
	searchProtocol   string
	searchMaxRecords int
	searchSchema     string
	searchFormat     string
	searchWithRecord bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search library catalogs",
	Long: `Search a library catalog and render every hit as a citation.

The sru protocol speaks CQL against any endpoint from 'citer endpoints';
the ixtheo protocol searches the Index Theologicus and enriches each hit
through the catalog's RIS export, ordering books before chapters before
articles.

Examples:
  citer search "Harnack Dogmengeschichte" --endpoint dnb
  citer search "tit=Paulus and jhr=2020" --endpoint zdb --max 5
  citer search "Barth Römerbrief" --protocol ixtheo --format custom --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchEndpoint, "endpoint", "e", "", "SRU endpoint name (default from config, else dnb)")
	searchCmd.Flags().StringVarP(&searchProtocol, "protocol", "p", "sru", "Search protocol: sru or ixtheo")
	searchCmd.Flags().IntVarP(&searchMaxRecords, "max", "n", sru.DefaultMaxRecords, "Maximum number of records")
	searchCmd.Flags().StringVar(&searchSchema, "schema", "", "Record schema override (SRU only)")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", FormatWikipedia, "Output format: wikipedia, custom, bibtex, ris")
	searchCmd.Flags().BoolVar(&searchWithRecord, "record", false, "Include parsed records in JSON output")
}

// SearchResponse is the JSON output of a catalog search.
type SearchResponse struct {
	Endpoint string             `json:"endpoint"`
	Query    string             `json:"query"`
	Total    int                `json:"total"`
	Results  []CitationResponse `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := args[0]

	var (
		endpoint string
		total    int
		recs     []*record.Record
	)

	switch searchProtocol {
	case "sru":
		endpoint = searchEndpoint
		if endpoint == "" {
			endpoint = config.GetDefaultEndpoint()
		}
		if endpoint == "" {
			endpoint = "dnb"
		}

		clientOpts := []sru.ClientOption{sru.WithLogf(logf)}
		if ua := config.GetUserAgent(); ua != "" {
			clientOpts = append(clientOpts, sru.WithUserAgent(ua))
		}
		client := sru.NewClient(clientOpts...)

		res, err := client.Search(ctx, endpoint, query, &sru.SearchOptions{
			MaxRecords: searchMaxRecords,
			Schema:     searchSchema,
		})
		if err != nil {
			exitWithError(ExitError, "searching %s: %v", endpoint, err)
		}
		total, recs = res.Total, res.Records

	case "ixtheo":
		endpoint = "ixtheo"
		handlerOpts := []ixtheo.HandlerOption{ixtheo.WithLogf(logf)}
		if ua := config.GetUserAgent(); ua != "" {
			handlerOpts = append(handlerOpts, ixtheo.WithUserAgent(ua))
		}
		handler := ixtheo.NewHandler(handlerOpts...)

		var err error
		total, recs, err = handler.SearchEnriched(ctx, query, searchMaxRecords)
		if err != nil {
			exitWithError(ExitError, "searching ixtheo: %v", err)
		}

	default:
		exitWithError(ExitDataError, "unknown protocol %q (valid: sru, ixtheo)", searchProtocol)
	}

	if len(recs) == 0 {
		exitWithError(ExitNotFound, "no results for %q on %s", query, endpoint)
	}

	resp := SearchResponse{Endpoint: endpoint, Query: query, Total: total}
	for _, rec := range recs {
		rendered, err := renderRecord(ctx, rec, searchFormat)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if searchWithRecord {
			rendered.Record = rec
		}
		resp.Results = append(resp.Results, rendered)
	}

	if !humanOutput {
		return outputJSON(resp)
	}

	outputHuman("%d of %d results from %s\n\n", len(resp.Results), resp.Total, resp.Endpoint)
	for i, r := range resp.Results {
		outputHuman("--- %d ---\n", i+1)
		printResponse(r, false)
		outputHuman("\n")
	}
	return nil
}
