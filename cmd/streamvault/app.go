package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/streamvault/pkg/browse"
	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/config"
	"github.com/Sternrassler/streamvault/pkg/gateway"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the wired services of one command run.
type app struct {
	cfg       *config.Config
	redis     *redis.Client
	gateway   *gateway.Client
	queries   *query.Client
	browse    *browse.Service
	watchlist *watchlist.Store

	closers []func() error
	logger  zerolog.Logger
}

// newApp connects Redis when enabled and builds the gateway, query cache,
// browse service and watchlist store.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: logging.NewLogger("app")}

	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		a.closers = append(a.closers, a.redis.Close)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL:    cfg.TMDB.BaseURL,
		APIKey:     cfg.TMDB.APIKey,
		ReadToken:  cfg.TMDB.ReadToken,
		Language:   cfg.TMDB.Language,
		UserAgent:  "streamvault/" + version,
		Redis:      a.redis,
		Timeout:    cfg.TMDB.Timeout,
		MaxRetries: cfg.TMDB.MaxRetries,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	a.gateway = gw
	a.closers = append(a.closers, gw.Close)

	a.queries = query.New(query.Config{
		StaleTime:  cfg.Cache.StaleTime,
		MaxEntries: cfg.Cache.MaxEntries,
	})
	a.browse = browse.New(catalog.New(gw), a.queries)
	return a, nil
}

// openWatchlist opens the configured watchlist backend.
func (a *app) openWatchlist(ctx context.Context) (*watchlist.Store, error) {
	if a.watchlist != nil {
		return a.watchlist, nil
	}

	var p watchlist.Persister
	switch a.cfg.Watchlist.Backend {
	case config.BackendBolt:
		bp, err := watchlist.OpenBolt(a.cfg.Watchlist.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bp.Close)
		p = bp
	case config.BackendRedis:
		if a.redis == nil {
			return nil, errors.New("redis watchlist backend requires redis.enabled")
		}
		p = watchlist.NewRedisPersister(a.redis)
	default:
		p = watchlist.NewMemoryPersister()
	}

	wl, err := watchlist.New(ctx, p, watchlist.Options{})
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("backend", a.cfg.Watchlist.Backend).Int("items", wl.Len()).Msg("Opened watchlist")
	a.watchlist = wl
	return wl, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
