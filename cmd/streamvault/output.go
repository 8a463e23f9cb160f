package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printItems(w io.Writer, items []catalog.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tYEAR\tRATING\tTITLE")
	for _, it := range items {
		year := it.Year()
		if year == "" {
			year = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\n", it.ID, it.MediaType, year, it.VoteAverage, it.Title)
	}
	return tw.Flush()
}

func printEntries(w io.Writer, entries []watchlist.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tYEAR\tADDED\tTITLE")
	for _, e := range entries {
		year := e.Year()
		if year == "" {
			year = "-"
		}
		added := "-"
		if !e.AddedAt.IsZero() {
			added = e.AddedAt.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.MediaType, year, added, e.Title)
	}
	return tw.Flush()
}
