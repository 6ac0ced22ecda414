package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"content-pipeline/cmd/internal/app"
	"content-pipeline/models"
	"content-pipeline/repositories"
)

func newSourcesCmd() *cobra.Command {
	var (
		unused   bool
		used     bool
		minScore int
		tag      string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List discovered sources, best first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if used && unused {
				return fmt.Errorf("--used and --unused are mutually exclusive")
			}
			opt := repositories.ListSourcesOptions{Page: 1, PageSize: limit, MinScore: minScore, Tag: tag}
			if used || unused {
				v := used
				opt.Used = &v
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, total, err := a.Sources.List(ctx, opt)
				if err != nil {
					return err
				}
				printSources(cmd.OutOrStdout(), items, total)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unused, "unused", false, "Only sources not used for an article yet")
	cmd.Flags().BoolVar(&used, "used", false, "Only sources already used for an article")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "Minimum relevance score")
	cmd.Flags().StringVar(&tag, "tag", "", "Only sources with this tag")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows")
	return cmd
}

func printSources(w io.Writer, items []models.SourceArticle, total int64) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tUSED\tDOMAIN\tTITLE")
	for _, s := range items {
		fmt.Fprintf(tw, "%d\t%t\t%s\t%s\n", s.RelevanceScore, s.UsedForGeneration, s.OriginDomain, s.Title)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d sources\n", len(items), total)
}
