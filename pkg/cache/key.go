package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every response cache key in Redis.
const KeyPrefix = "sv:resp"

// credentialParams are query parameters that never become part of a key,
// so responses are shared regardless of which API key fetched them.
var credentialParams = map[string]bool{
	"api_key": true,
}

// CacheKey represents a unique identifier for a cached provider response.
type CacheKey struct {
	// Endpoint is the provider path (e.g., "/movie/{id}")
	Endpoint string

	// PathParams are the path parameters (e.g., {"id": "550"})
	PathParams map[string]string

	// QueryParams are the query parameters (e.g., {"page": "2"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: sv:resp:endpoint:param1=val1:query1=val1
//
// Example:
//
//	sv:resp:discover/movie:page=2:with_genres=28
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.PathParams) > 0 {
		pathKeys := make([]string, 0, len(k.PathParams))
		for key := range k.PathParams {
			pathKeys = append(pathKeys, key)
		}
		sort.Strings(pathKeys)

		for _, key := range pathKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.PathParams[key]))
		}
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			if credentialParams[key] {
				continue
			}
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
