// Package gateway is the remote content gateway: a thin HTTP client for the
// metadata provider that injects authentication and query defaults, gates
// requests on the provider rate limit, revalidates cached responses and
// normalizes every failure into a single *Error shape.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/streamvault/pkg/cache"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/Sternrassler/streamvault/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for gateway operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamvault_gateway_requests_total",
		Help: "Total provider requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamvault_gateway_request_duration_seconds",
		Help:    "Provider request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamvault_gateway_errors_total",
		Help: "Total normalized gateway errors by kind",
	}, []string{"kind"})
)

// DefaultBaseURL is the provider API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// Fetcher is the contract consumers depend on.
type Fetcher interface {
	Fetch(ctx context.Context, ep Endpoint) ([]byte, error)
}

// Endpoint describes one remote operation: a path template plus parameters.
// Path placeholders such as {id} are filled from PathParams.
type Endpoint struct {
	Path       string
	PathParams map[string]string
	Params     url.Values
}

// resolve substitutes path placeholders.
func (e Endpoint) resolve() (string, error) {
	path := e.Path
	for name, value := range e.PathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	if i := strings.IndexByte(path, '{'); i >= 0 {
		return "", fmt.Errorf("endpoint %q: unresolved path parameter at %d", e.Path, i)
	}
	return path, nil
}

// Client is the provider HTTP client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the provider API (default DefaultBaseURL).
	BaseURL string

	// APIKey is sent as the api_key query parameter.
	APIKey string

	// ReadToken is sent as a bearer token. Either it or APIKey is required.
	ReadToken string

	// Language is injected as the language query parameter unless the
	// endpoint sets one.
	Language string

	// UserAgent header.
	UserAgent string

	// Redis enables the shared response cache and rate limit state.
	// Optional.
	Redis *redis.Client

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// MaxRetries for server, network and rate limit failures.
	// Zero disables retries.
	MaxRetries int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIKey:     apiKey,
		Language:   "en-US",
		UserAgent:  "streamvault/0.1.0",
		Timeout:    10 * time.Second,
		MaxRetries: 0,
	}
}

// New creates a new gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.ReadToken == "" {
		return nil, fmt.Errorf("api key or read token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := logging.NewLogger("gateway")

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     base,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		config:      cfg,
		logger:      logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}
	return c, nil
}

type endpointLabelKey struct{}

// endpointLabel returns the low-cardinality metric label for a request:
// the path template when the request came through Fetch.
func endpointLabel(req *http.Request) string {
	if label, ok := req.Context().Value(endpointLabelKey{}).(string); ok {
		return label
	}
	return req.URL.Path
}

// Fetch performs a GET for the endpoint and returns the response body.
// Any transport failure or non-2xx response is returned as *Error.
func (c *Client) Fetch(ctx context.Context, ep Endpoint) ([]byte, error) {
	req, err := c.NewRequest(ctx, ep)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		gwErr := normalizeTransport(fmt.Errorf("read response body: %w", err))
		errorsTotal.WithLabelValues(string(gwErr.Kind)).Inc()
		return nil, gwErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := normalizeResponse(resp.StatusCode, body)
		errorsTotal.WithLabelValues(string(gwErr.Kind)).Inc()
		return nil, gwErr
	}

	return body, nil
}

// NewRequest builds the provider request for ep with default parameters.
func (c *Client) NewRequest(ctx context.Context, ep Endpoint) (*http.Request, error) {
	path, err := ep.resolve()
	if err != nil {
		return nil, err
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")

	query := url.Values{}
	for key, values := range ep.Params {
		query[key] = append([]string(nil), values...)
	}
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}
	if c.config.Language != "" && query.Get("language") == "" {
		query.Set("language", c.config.Language)
	}
	u.RawQuery = query.Encode()

	ctx = context.WithValue(ctx, endpointLabelKey{}, ep.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// Do performs an HTTP request with rate limiting, response caching, retries
// and error normalization. Non-retryable 4xx responses are returned to the
// caller unchanged; everything else that fails is an *Error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Rate limit gate
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Rate limit check failed, sending request anyway")
	} else if !allowed {
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		errorsTotal.WithLabelValues(string(KindProvider)).Inc()
		return nil, &Error{
			Kind:       KindProvider,
			Class:      ErrorClassRateLimit,
			StatusCode: http.StatusTooManyRequests,
			Message:    "request refused while provider rate limit is active",
			Err:        ErrRateLimited,
		}
	}

	// Step 2: Response cache lookup
	cacheKey := cache.CacheKey{
		Endpoint:    strings.TrimPrefix(req.URL.Path, c.baseURL.Path),
		QueryParams: req.URL.Query(),
	}

	var cachedEntry *cache.CacheEntry
	if c.cache != nil {
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Response cache get error")
		}
	}

	// Step 3: Conditional request on cache hit
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 4: Headers
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.ReadToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.ReadToken)
	}

	// Step 5: Execute with retry
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.logger, c.config.MaxRetries+1, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Warn().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return normalizeTransport(reqErr)
		}

		if err := c.rateLimiter.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit state")
		}
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 && shouldRetry(classifyStatus(resp.StatusCode)) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			gwErr := normalizeResponse(resp.StatusCode, body)
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status_code", resp.StatusCode).
				Str("error_class", string(gwErr.Class)).
				Msg("Provider request error")
			resp = nil
			return gwErr
		}
		return nil
	})
	if retryErr != nil {
		errorsTotal.WithLabelValues(string(KindOf(retryErr))).Inc()
		return nil, retryErr
	}

	// Step 6: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if err := c.cache.UpdateTTL(ctx, cacheKey, cache.ExpiresFrom(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Update cache on success
	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			resp.Body.Close()
			return nil, normalizeTransport(fmt.Errorf("read response body: %w", err))
		}
		if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// FetchJSON fetches ep and decodes the body into v.
func FetchJSON(ctx context.Context, f Fetcher, ep Endpoint, v any) error {
	body, err := f.Fetch(ctx, ep)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", ep.Path, err)
	}
	return nil
}

// Close releases client resources. The Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the response cache manager, nil without Redis.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}
