package main

import (
	"github.com/spf13/cobra"

	"github.com/CrispStrobe/citer/internal/sru"
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List available catalog endpoints",
	Long: `List the catalog endpoints the search command can target.

The built-in catalog can be extended through the 'endpoints' map in the
global config file; the ixtheo protocol needs no endpoint entry.`,
	Args: cobra.NoArgs,
	RunE: runEndpoints,
}

func init() {
	rootCmd.AddCommand(endpointsCmd)
}

// EndpointInfo is the JSON listing for one endpoint.
type EndpointInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Schema      string `json:"schema"`
	Version     string `json:"version"`
}

func runEndpoints(cmd *cobra.Command, args []string) error {
	var infos []EndpointInfo
	for _, ep := range sru.AllEndpoints() {
		infos = append(infos, EndpointInfo{
			ID:          ep.Name,
			Description: ep.Description,
			URL:         ep.BaseURL,
			Schema:      ep.Schema,
			Version:     ep.Version,
		})
	}

	if !humanOutput {
		return outputJSON(infos)
	}

	outputHuman("%-8s %-42s %s\n", "ID", "NAME", "SCHEMA")
	for _, info := range infos {
		outputHuman("%-8s %-42s %s\n", info.ID, info.Description, info.Schema)
	}
	return nil
}
