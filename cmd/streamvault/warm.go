package main

import (
	"fmt"
	"time"

	"github.com/Sternrassler/streamvault/pkg/browse"
	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/pagination"
	"github.com/spf13/cobra"
)

func newWarmCmd(root *rootOptions) *cobra.Command {
	var (
		pages       int
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "warm <category>",
		Short: "Prefetch the pages of a category",
		Long: `Prefetch the pages of a category in parallel.

With redis.enabled the responses land in the shared response cache, so
later runs and the API server start warm.

Examples:
  streamvault warm trending --pages 10
  streamvault warm top-rated --pages 50 --concurrency 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, ok := catalog.LookupCategory(id); !ok {
				return fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, id)
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be >= 1 (got %d)", pages)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			w := pagination.NewWarmer(a.queries, pagination.Config{
				MaxConcurrency: concurrency,
				Timeout:        timeout,
			})
			res, err := w.Warm(ctx, browse.CategoryKey(id), a.browse.CategoryPages(id), pages)

			fmt.Fprintf(cmd.OutOrStdout(), "Warmed %d/%d pages of %s in %s\n",
				res.Warmed, min(res.TotalPages, pages), id, res.Duration.Round(time.Millisecond))
			if len(res.Failed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Failed pages: %v\n", res.Failed)
			}
			return err
		},
	}

	defaults := pagination.DefaultConfig()
	cmd.Flags().IntVar(&pages, "pages", 5, "Number of pages to fetch")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaults.MaxConcurrency, "Parallel page fetches")
	cmd.Flags().DurationVar(&timeout, "timeout", defaults.Timeout, "Per-page timeout")
	return cmd
}
