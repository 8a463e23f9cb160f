// Package cache provides a Redis-backed HTTP response cache for the metadata
// provider, with ETag and Last-Modified support for conditional requests.
//
// It sits below the in-process query cache: the query cache deduplicates and
// memoizes decoded results per process, while this package shares raw
// provider responses across processes and revalidates them cheaply.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/discover/movie",
//		QueryParams: url.Values{"with_genres": []string{"28"}, "page": []string{"2"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the provider, then cache.ResponseToEntry + manager.Set
//	}
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
package cache

import (
	"net/http"
	"time"
)

// CacheEntry represents a cached provider response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag"`

	// Expires is when the cache entry becomes stale (Cache-Control max-age or Expires)
	Expires time.Time `json:"expires"`

	// LastModified is when the data was last modified
	LastModified time.Time `json:"last_modified"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
