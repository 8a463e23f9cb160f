package main

import (
	"fmt"
	"path/filepath"

	"github.com/Sternrassler/streamvault/internal/tui"
	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/config"
	"github.com/Sternrassler/streamvault/pkg/logging"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [category]",
		Short: "Browse a category in the terminal",
		Long: `Browse a category in the terminal.

Categories: trending, originals, top-rated, action, comedy, horror.

Examples:
  streamvault browse
  streamvault browse top-rated`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := ""
			if len(args) == 1 {
				category = args[0]
				if _, ok := catalog.LookupCategory(category); !ok {
					return fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
				}
			}

			// The screen belongs to the browser; logs go to a file.
			logCfg := logging.DefaultConfig()
			logCfg.Level = logging.LogLevel(root.cfg.Logging.Level)
			logCfg.File = root.cfg.Logging.File
			if logCfg.File == "" {
				logCfg.File = filepath.Join(config.DataDir(), "streamvault.log")
			}
			logging.Setup(logCfg)

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

			p := tea.NewProgram(tui.New(ctx, a.browse, wl, category), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
}
