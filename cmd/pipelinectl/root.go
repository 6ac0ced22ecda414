package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"content-pipeline/cmd/internal/app"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/config"
	"content-pipeline/db"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pipelinectl",
		Short: "Run and inspect the content pipeline from the command line",
		Long: `pipelinectl drives the content pipeline without the HTTP API.

Examples:
  # Discover sources and write an article for a topic, waiting for the result
  pipelinectl run "energía solar"

  # Queue a generation for the worker
  pipelinectl enqueue "energía solar"

  # Inspect stored sources and topic configuration
  pipelinectl sources --unused --min-score 7
  pipelinectl config get "energía solar"`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newEnqueueCmd())
	rootCmd.AddCommand(newSourcesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// withApp loads configuration, connects to MongoDB and wires the application for one command.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	config.InitApp()
	cfg := config.GetConfig()
	logger.InitFromEnv("LOG_LEVEL", cfg.Logging.Level)

	if err := db.Init(ctx, cfg.Mongo); err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer db.Disconnect(context.Background())

	a, err := app.New(ctx, cfg, db.Database())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
