package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"content-pipeline/cmd/internal/app"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect topic configurations",
	}
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigTopicsCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <topic>",
		Short: "Print the effective configuration of a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cfg, stored, err := a.Themes.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				if !stored {
					fmt.Fprintln(cmd.ErrOrStderr(), "no stored configuration, showing defaults")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func newConfigTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics with a stored configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				topics, err := a.Themes.Topics(ctx)
				if err != nil {
					return err
				}
				for _, t := range topics {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	}
}
