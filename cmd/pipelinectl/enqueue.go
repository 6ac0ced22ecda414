package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/app"
	"content-pipeline/repositories"
)

func newEnqueueCmd() *cobra.Command {
	var configID string

	cmd := &cobra.Command{
		Use:   "enqueue <topic>",
		Short: "Queue a generation task for the worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id *primitive.ObjectID
			if configID != "" {
				parsed, err := repositories.ParseObjectID(configID)
				if err != nil {
					return fmt.Errorf("--config-id: %w", err)
				}
				id = &parsed
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				task, err := a.Queue("pipelinectl").Enqueue(ctx, args[0], id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued task %s for %q\n", task.ID.Hex(), task.Topic)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&configID, "config-id", "", "Stored theme configuration to use instead of the topic's own")
	return cmd
}
