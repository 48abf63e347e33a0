package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/CrispStrobe/citer/internal/cite"
	"github.com/CrispStrobe/citer/internal/export"
	"github.com/CrispStrobe/citer/internal/record"
)

// Output formats accepted by --format.
const (
	FormatWikipedia = "wikipedia"
	FormatCustom    = "custom"
	FormatBibTeX    = "bibtex"
	FormatRIS       = "ris"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// outputDiag writes a diagnostic line to stderr.
func outputDiag(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CitationResponse is the JSON output for a rendered record.
type CitationResponse struct {
	Format   string         `json:"format"`
	Sfn      string         `json:"sfn,omitempty"`
	Cit      string         `json:"cit,omitempty"`
	Ref      string         `json:"ref,omitempty"`
	Citation string         `json:"citation,omitempty"` // custom, bibtex, ris
	Record   *record.Record `json:"record,omitempty"`
}

// renderRecord produces the requested output format for one record.
func renderRecord(ctx context.Context, rec *record.Record, format string) (CitationResponse, error) {
	resp := CitationResponse{Format: format}
	switch format {
	case FormatWikipedia:
		out := cite.Synthesize(ctx, rec, cite.Options{})
		resp.Sfn, resp.Cit, resp.Ref = out.Sfn, out.Cit, out.Ref
	case FormatCustom:
		resp.Citation = cite.Custom(rec, time.Now)
	case FormatBibTeX:
		resp.Citation = export.ToBibTeX(rec, rec.CiteKey())
	case FormatRIS:
		resp.Citation = export.ToRIS(rec)
	default:
		return resp, fmt.Errorf("unknown format %q (valid: wikipedia, custom, bibtex, ris)", format)
	}
	return resp, nil
}

// printResponse writes one rendered record in the selected mode.
func printResponse(resp CitationResponse, withRecord bool) {
	if !withRecord {
		resp.Record = nil
	}
	if !humanOutput {
		outputJSON(resp)
		return
	}
	if resp.Format == FormatWikipedia {
		outputHuman("%s\n\n%s\n\n%s\n", resp.Sfn, resp.Cit, resp.Ref)
		return
	}
	outputHuman("%s\n", resp.Citation)
}
