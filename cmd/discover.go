package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scholarscout/discovery-cli/internal/discovery"
)

var discoverNoExpand bool

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Discover opportunities for a focus area",
	Long:  "Runs the full discovery pipeline for one query, streaming NDJSON progress events to stdout. Logs go to stderr.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover(cmd.Context(), os.Stdout, args[0], !discoverNoExpand)
	},
}

// runDiscover streams one discovery pass as NDJSON to w. Setup failures
// (missing database, bad config) surface as a terminal error event on the
// stream so a consumer watching stdout sees the abort, not just an exit
// code.
func runDiscover(ctx context.Context, w io.Writer, query string, expand bool) error {
	emit := discovery.NewJSONEmitter(w)

	env, err := initPipeline(ctx)
	if err != nil {
		emit.Emit(discovery.Event{Type: discovery.EventError, Message: err.Error()})
		return err
	}
	defer env.Close()

	env.Pipeline(emit).Run(ctx, query, expand)

	return nil
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverNoExpand, "no-expand", false, "search the query verbatim instead of expanding it")
	rootCmd.AddCommand(discoverCmd)
}
