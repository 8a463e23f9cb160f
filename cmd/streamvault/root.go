package main

import (
	"fmt"

	"github.com/Sternrassler/streamvault/pkg/config"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "streamvault",
		Short: "Movie and TV catalog browser",
		Long: `streamvault - movie and TV catalog browser

Browse trending titles and categories with endless scrolling, search the
catalog, keep a watchlist and serve everything as a JSON API.

Configuration is read from ~/.config/streamvault/config.yaml (or --config)
and STREAMVAULT_* environment variables, e.g. STREAMVAULT_TMDB_API_KEY.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/streamvault/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable console logs")

	cmd.Version = version
	cmd.SetVersionTemplate("streamvault {{.Version}}\n")

	cmd.AddCommand(
		newServeCmd(opts),
		newBrowseCmd(opts),
		newSearchCmd(opts),
		newWatchlistCmd(opts),
		newWarmCmd(opts),
	)
	return cmd
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Logging.Pretty = o.pretty
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	o.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.Logging.Level)
	logCfg.Pretty = cfg.Logging.Pretty
	logCfg.File = cfg.Logging.File
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	return nil
}
