package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_rate_limit_blocks_total",
		Help: "Total number of requests refused during a Retry-After window",
	})

	rateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_rate_limit_hits_total",
		Help: "Total number of 429 responses observed from the provider",
	})
)

// Tracker monitors provider rate limiting and gates requests.
// A nil Redis client keeps the state in process memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.Mutex
	local RateLimitState
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current rate limit state.
// Returns an unblocked state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		state := t.local
		return &state, nil
	}

	blockedUntil, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get blocked until: %w", err)
	}
	state := &RateLimitState{}
	if err == nil {
		state.BlockedUntil = time.UnixMilli(blockedUntil)
	}

	hits, err := t.redis.Get(ctx, RedisKeyHits).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get hits: %w", err)
	}

	var lastUpdate time.Time
	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state.LastUpdate = lastUpdate
	state.Hits = hits
	return state, nil
}

// UpdateFromResponse records a block window when the provider answers 429.
// Other status codes are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, statusCode int, headers http.Header) error {
	if statusCode != http.StatusTooManyRequests {
		return nil
	}
	rateLimitHitsTotal.Inc()

	now := time.Now()
	wait, err := ParseRetryAfter(headers.Get("Retry-After"), now)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Unusable Retry-After header, using default window")
		wait = DefaultRetryAfter
	}
	blockedUntil := now.Add(wait)

	if t.redis == nil {
		t.mu.Lock()
		if blockedUntil.After(t.local.BlockedUntil) {
			t.local.BlockedUntil = blockedUntil
		}
		t.local.LastUpdate = now
		t.local.Hits++
		t.mu.Unlock()
	} else {
		lastUpdateJSON, err := json.Marshal(now)
		if err != nil {
			return fmt.Errorf("marshal last update: %w", err)
		}

		// Keys expire with the window so stale blocks never outlive it.
		pipe := t.redis.Pipeline()
		pipe.Set(ctx, RedisKeyBlockedUntil, blockedUntil.UnixMilli(), wait+time.Second)
		pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)
		pipe.Incr(ctx, RedisKeyHits)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store rate limit state in redis: %w", err)
		}
	}

	t.logger.Warn().
		Dur("retry_after", wait).
		Time("blocked_until", blockedUntil).
		Msg("Provider rate limit hit - requests paused")

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// Returns false while a Retry-After window is open.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.IsBlocked() {
		t.logger.Debug().
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Rate limit window open - refusing request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}
