package pagination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds warmer configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page fetches.
	// TMDB allows roughly 40 requests per second per IP.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration for TMDB
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// WarmResult summarizes one warm run.
type WarmResult struct {
	TotalPages int
	Warmed     int
	Failed     []int
	Duration   time.Duration
}

// Warmer preloads the pages of a listing into the query cache in
// parallel, so that an Infinite list over the same key finds them fresh.
type Warmer struct {
	cache  *query.Client
	config Config
}

// NewWarmer creates a warmer writing into cache.
func NewWarmer(cache *query.Client, config Config) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Warmer{cache: cache, config: config}
}

// Warm fetches page 1 of key to learn the page count, then pages
// 2..min(total, maxPages) in parallel. A maxPages of 0 or less means all
// pages. Failed pages do not stop the others; the returned error lists
// them and the result holds the partial counts.
func (w *Warmer) Warm(ctx context.Context, key query.Key, fetch PageFetcher, maxPages int) (WarmResult, error) {
	start := time.Now()
	result := WarmResult{}

	first, err := w.page(ctx, key, fetch, 1)
	if err != nil {
		return result, fmt.Errorf("failed to fetch first page: %w", err)
	}
	result.TotalPages = first.TotalPages
	result.Warmed = 1

	last := first.TotalPages
	if maxPages > 0 && maxPages < last {
		last = maxPages
	}

	log.Info().
		Str("key", key.String()).
		Int("total_pages", first.TotalPages).
		Int("warming", last).
		Msg("Starting parallel page warm")

	if last <= 1 {
		result.Duration = time.Since(start)
		log.Info().
			Str("key", key.String()).
			Int("pages", 1).
			Dur("duration", result.Duration).
			Msg("Warm complete (single page)")
		return result, nil
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.MaxConcurrency)

	for page := 2; page <= last; page++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := w.page(gctx, key, fetch, page)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().
					Err(err).
					Int("page", page).
					Msg("Page warm failed")
				result.Failed = append(result.Failed, page)
				failures = append(failures, fmt.Errorf("page %d: %w", page, err))
				return nil
			}
			result.Warmed++
			if result.Warmed%50 == 0 {
				log.Info().
					Int("warmed", result.Warmed).
					Int("total", last).
					Float64("progress_pct", float64(result.Warmed)/float64(last)*100).
					Msg("Warm progress")
			}
			return nil
		})
	}

	// Only context errors reach the group.
	if err := g.Wait(); err != nil {
		failures = append(failures, err)
	}
	if err := ctx.Err(); err != nil && len(failures) == 0 {
		failures = append(failures, err)
	}
	sort.Ints(result.Failed)
	result.Duration = time.Since(start)

	if len(failures) > 0 {
		log.Warn().
			Int("warmed_pages", result.Warmed).
			Int("total_pages", last).
			Msg("Warm incomplete - returning partial results")
		return result, fmt.Errorf("warm incomplete (%d/%d pages): %w", result.Warmed, last, errors.Join(failures...))
	}

	log.Info().
		Str("key", key.String()).
		Int("pages", result.Warmed).
		Int("total", last).
		Dur("duration", result.Duration).
		Msg("Warm complete")

	return result, nil
}

func (w *Warmer) page(ctx context.Context, key query.Key, fetch PageFetcher, page int) (catalog.Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	got, e := query.Get(pageCtx, w.cache, key.Append(page), func(ctx context.Context) (catalog.Page, error) {
		return fetch(ctx, page)
	})
	if e.Err != nil {
		return catalog.Page{}, e.Err
	}
	return got, nil
}
