package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/scholarscout/discovery-cli/pkg/searxng"
)

var (
	searchTypes []string
	searchMax   int
)

var searchCmd = &cobra.Command{
	Use:   "search <focus>",
	Short: "Preview opportunity sources for a focus area without crawling",
	Long:  "Fans the focus area out across opportunity types and prints the deduplicated search results as JSON. No crawling, extraction, or persistence.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := searxng.NewClient(searxng.WithBaseURL(cfg.SearXNG.BaseURL))
		return runSearch(cmd.Context(), client, os.Stdout, args[0], searchTypes, searchMax)
	},
}

func runSearch(ctx context.Context, client searxng.Client, w io.Writer, focus string, types []string, max int) error {
	hits, err := client.SearchOpportunities(ctx, focus, types, max)
	if err != nil {
		return eris.Wrap(err, "search opportunities")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"focus":   focus,
		"count":   len(hits),
		"results": hits,
	})
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchTypes, "types", nil, "opportunity types to search (default internship,scholarship,competition,fellowship)")
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "maximum total results (default 30)")
	rootCmd.AddCommand(searchCmd)
}
