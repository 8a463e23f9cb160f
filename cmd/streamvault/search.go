package main

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/streamvault/pkg/browse"
	"github.com/spf13/cobra"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search movies and shows",
		Long: `Search movies and shows. People are not listed.

Examples:
  streamvault search dune
  streamvault search "the matrix" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			if !browse.SearchEnabled(q) {
				return fmt.Errorf("query must be longer than %d characters", browse.MinSearchLength)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			items, e := a.browse.Search(ctx, q)
			if e.Err != nil {
				return fmt.Errorf("search failed: %w", e.Err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}
			return printItems(out, items)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
