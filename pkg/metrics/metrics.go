// Package metrics provides the Prometheus registry reference for StreamVault.
// All metrics are defined in their respective packages (gateway, cache,
// ratelimit, query) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by StreamVault.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the metrics registered on Registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Gateway Metrics (pkg/gateway):
//   - streamvault_gateway_requests_total{endpoint, status} (Counter): Provider requests by endpoint and status
//   - streamvault_gateway_request_duration_seconds{endpoint} (Histogram): Provider request duration
//   - streamvault_gateway_errors_total{kind} (Counter): Normalized errors by kind (network, provider, not_found)
//   - streamvault_gateway_retries_total{error_class} (Counter): Retry attempts by error class
//   - streamvault_gateway_retry_exhausted_total{error_class} (Counter): Requests that exhausted retries
//
// Response Cache Metrics (pkg/cache):
//   - streamvault_response_cache_hits_total{layer="redis"} (Counter)
//   - streamvault_response_cache_misses_total (Counter)
//   - streamvault_304_responses_total (Counter): Conditional request successes
//   - streamvault_conditional_requests_total (Counter): Requests sent with If-None-Match
//   - streamvault_response_cache_errors_total{operation} (Counter)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - streamvault_rate_limit_blocks_total (Counter): Requests refused during a Retry-After window
//   - streamvault_rate_limit_hits_total (Counter): 429 responses observed
//
// Query Cache Metrics (pkg/query):
//   - streamvault_query_hits_total (Counter): Fresh entries served without fetching
//   - streamvault_query_fetches_total{result} (Counter): Fetcher invocations by result (success, error, discarded)
//   - streamvault_query_joins_total (Counter): Callers that attached to an in-flight fetch
//   - streamvault_query_entries (Gauge): Entries currently held
//
// Example Prometheus Queries:
//
//   # Query cache hit rate
//   sum(rate(streamvault_query_hits_total[5m])) /
//   (sum(rate(streamvault_query_hits_total[5m])) + sum(rate(streamvault_query_fetches_total[5m])))
//
//   # Deduplicated requests
//   rate(streamvault_query_joins_total[5m])
//
//   # P95 provider latency
//   histogram_quantile(0.95, rate(streamvault_gateway_request_duration_seconds_bucket[5m]))
