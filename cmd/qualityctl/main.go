package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"call-quality-go/internal/app"
	"call-quality-go/internal/config"
	"call-quality-go/internal/logger"
)

var (
	noColor bool
	verbose bool
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qualityctl",
		Short:         "Score call transcripts and inspect the review history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at info level")

	root.AddCommand(
		newProcessCmd(),
		newExplainCmd(),
		newImportCmd(),
		newExportCmd(),
		newStatsCmd(),
		newWatchCmd(),
	)
	return root
}

// openApp builds the service against the configured history. Logs go to
// stderr so command output stays parseable.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := "warn"
	if verbose {
		level = "info"
	}
	log := logger.New("qualityctl", logger.WithOutput(cmd.ErrOrStderr()), logger.WithLevel(level))
	return app.Build(ctx, cfg, log)
}
