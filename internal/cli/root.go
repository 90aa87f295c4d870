package cli

import (
	"context"
	"os"

	"folio/internal/util"
	"folio/pkg/logger"
	"folio/pkg/logger/console"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Debug bool
}

// NewRootCommand creates the root command for the folio CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Spreadsheet importer for graph-shaped document stores",
		Long: "folio ingests multi-sheet research spreadsheets into a graph-shaped\n" +
			"document store, deduplicating entities and relations so re-runs are safe.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()

			debug := opts.Debug || util.GetEnvBool("DEBUG", false)
			consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug: debug,
			})
			logger.Init(consoleLogger)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))

	return cmd
}

// Execute runs the CLI with the given context.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
