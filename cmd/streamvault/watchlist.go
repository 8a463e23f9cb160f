package main

import (
	"fmt"
	"strconv"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
	"github.com/spf13/cobra"
)

func newWatchlistCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage the watchlist",
	}
	cmd.AddCommand(
		newWatchlistListCmd(root),
		newWatchlistAddCmd(root),
		newWatchlistRemoveCmd(root),
	)
	return cmd
}

func newWatchlistListCmd(root *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		filter     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the watchlist, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			wl, err := a.openWatchlist(ctx)
			if err != nil {
				return err
			}

			entries := wl.Filter(filter)
			out := cmd.OutOrStdout()
			if jsonOutput {
				if entries == nil {
					entries = []watchlist.Entry{}
				}
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "Watchlist is empty")
				return nil
			}
			return printEntries(out, entries)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Fuzzy filter by title")
	return cmd
}

func newWatchlistAddCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <movie|tv> <id>",
		Short: "Add a title to the watchlist",
		Long: `Add a title to the watchlist. The title is looked up first.

Examples:
  streamvault watchlist add movie 603
  streamvault watchlist add tv 1399`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mt, err := catalog.ParseMediaType(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			wl, err := a.openWatchlist(ctx)
			if err != nil {
				return err
			}

			d, err := a.browse.Details(ctx, mt, id)
			if err != nil {
				return fmt.Errorf("look up %s %d: %w", mt, id, err)
			}
			if d == nil {
				return fmt.Errorf("%s %d not found", mt, id)
			}

			added, err := wl.Add(ctx, d.Item)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !added {
				fmt.Fprintf(out, "%s is already on the watchlist\n", d.Title)
				return nil
			}
			fmt.Fprintf(out, "Added %s (%s %d)\n", d.Title, mt, id)
			return nil
		},
	}
}

func newWatchlistRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a title from the watchlist",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			wl, err := a.openWatchlist(ctx)
			if err != nil {
				return err
			}

			removed, err := wl.Remove(ctx, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("id %d is not on the watchlist", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
