// Package ratelimit implements provider rate limit tracking and request gating.
// It watches for HTTP 429 responses and their Retry-After header and refuses
// further requests until the advertised window has passed.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyBlockedUntil = "sv:rate_limit:blocked_until"
	RedisKeyLastUpdate   = "sv:rate_limit:last_update"
	RedisKeyHits         = "sv:rate_limit:hits"
)

// DefaultRetryAfter is the block window applied when a 429 response carries
// no usable Retry-After header.
const DefaultRetryAfter = 10 * time.Second

// MaxRetryAfter caps the block window so a malformed header cannot stall the
// client indefinitely.
const MaxRetryAfter = 5 * time.Minute

// RateLimitState represents the current provider rate limit state.
// With Redis configured, this state is shared across all client instances.
type RateLimitState struct {
	// BlockedUntil is when requests may resume. Zero means not blocked.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// Hits counts 429 responses observed.
	Hits int64 `json:"hits"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsBlocked returns true while the Retry-After window is open.
func (s *RateLimitState) IsBlocked() bool {
	return time.Now().Before(s.BlockedUntil)
}

// TimeUntilReset returns the duration until requests may resume.
// Returns 0 if the window has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.BlockedUntil)
	if duration < 0 {
		return 0
	}
	return duration
}

// ParseRetryAfter parses a Retry-After header value, which is either a
// number of seconds or an HTTP date. An empty value yields DefaultRetryAfter.
func ParseRetryAfter(value string, now time.Time) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultRetryAfter, nil
	}

	var wait time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative Retry-After %q", value)
		}
		wait = time.Duration(secs) * time.Second
	} else {
		at, perr := http.ParseTime(value)
		if perr != nil {
			return 0, fmt.Errorf("parse Retry-After %q: %w", value, perr)
		}
		wait = at.Sub(now)
		if wait < 0 {
			wait = 0
		}
	}

	if wait > MaxRetryAfter {
		wait = MaxRetryAfter
	}
	return wait, nil
}
