package main

import (
	"time"

	"github.com/Sternrassler/streamvault/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		region  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and watchlist as a JSON API",
		Long: `Serve the catalog and watchlist as a JSON API.

Examples:
  streamvault serve
  streamvault serve --addr :9090 --region DE`,
		Args: cobra.NoArgs,
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

			if addr == "" {
				addr = root.cfg.Server.Addr
			}
			srv := server.New(a.browse, wl, server.Options{
				RequestTimeout: timeout,
				Region:         region,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")
	cmd.Flags().StringVar(&region, "region", "US", "Default streaming provider region")
	return cmd
}
