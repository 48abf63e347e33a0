// Package main provides the citer CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/CrispStrobe/citer/internal/config"
	"github.com/CrispStrobe/citer/internal/sru"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables diagnostic logging on stderr
var verbose bool

func main() {
	// A .env in the working directory may carry API keys; absence is fine.
	_ = godotenv.Load()
	applyConfigEndpoints()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citer",
	Short: "Bibliographic citation resolver",
	Long: `citer resolves identifiers (ISBN, OCLC) and searches library
catalogs (SRU, IxTheo), then renders the results as Wikipedia citation
templates, narrative references, BibTeX, or RIS.

All commands output JSON by default for easy integration with other
tools; pass --human for readable text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
	rootCmd.Version = Version
}

// applyConfigEndpoints registers endpoint additions and overrides from
// the global config file.
func applyConfigEndpoints() {
	for id, ep := range config.GetEndpoints() {
		if ep.URL == "" {
			continue
		}
		name := ep.Name
		if name == "" {
			name = id
		}
		version := ep.Version
		if version == "" {
			version = "1.1"
		}
		schema := ep.Schema
		if schema == "" {
			schema = "dc"
		}
		sru.RegisterEndpoint(sru.Endpoint{
			Name:        id,
			BaseURL:     ep.URL,
			Version:     version,
			Schema:      schema,
			Description: name,
		})
	}
}

// logf writes diagnostics to stderr when --verbose is set.
func logf(format string, args ...any) {
	if verbose {
		outputDiag(format, args...)
	}
}
