package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"content-pipeline/cmd/internal/app"
	"content-pipeline/cmd/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Run the whole pipeline for a topic and wait for the article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if !quiet {
					a.Orchestrator.OnTransition(func(s pipeline.State) {
						fmt.Fprintf(out, "-> %s\n", s)
					})
				}
				res, err := a.Orchestrator.Run(ctx, topic)
				return printRunResult(out, res, err)
			})
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print state transitions")
	return cmd
}

func printRunResult(w io.Writer, res *pipeline.Result, err error) error {
	var abort *pipeline.AbortError
	if errors.As(err, &abort) {
		fmt.Fprintf(w, "aborted in %s: %s\n", abort.State, abort.Outcome())
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "article:      %s\n", res.ArticleID.Hex())
	if res.Article != nil {
		fmt.Fprintf(w, "title:        %s\n", res.Article.Title)
	}
	fmt.Fprintf(w, "new sources:  %d\n", res.NewSources)
	fmt.Fprintf(w, "marked used:  %d\n", res.MarkedUsed)
	fmt.Fprintf(w, "images:       %d\n", len(res.Images))
	if res.PreviewPath != "" {
		fmt.Fprintf(w, "preview:      %s\n", res.PreviewPath)
	}
	return nil
}
