// Package testutil provides testing utilities for the StreamVault client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock provider endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockTMDB is a configurable mock of the metadata provider for testing.
type MockTMDB struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount     int
	conditionalCount int
	pathCounts       map[string]int
	lastRequest      *http.Request
}

// NewMockTMDB creates a new mock provider server.
func NewMockTMDB() *MockTMDB {
	mock := &MockTMDB{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastRequest = r.Clone(r.Context())
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		writeJSON(w, http.StatusNotFound, `{"success":false,"status_code":34,"status_message":"The resource you requested could not be found."}`)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockTMDB) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTMDB) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockTMDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequest = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockTMDB) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockTMDB) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPagedList serves a paginated list at path. Page n holds perPage items
// with ids (n-1)*perPage+1 .. n*perPage. Pages listed in failPages answer 500.
func (m *MockTMDB) SetPagedList(path, mediaType string, totalPages, perPage int, failPages ...int) {
	failing := make(map[int]bool, len(failPages))
	for _, p := range failPages {
		failing[p] = true
	}

	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		if failing[page] {
			writeJSON(w, http.StatusInternalServerError, `{"status_code":11,"status_message":"Internal error: Something went wrong, contact TMDb."}`)
			return
		}
		writeJSON(w, http.StatusOK, ListPage(mediaType, page, totalPages, perPage))
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockTMDB) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made to a path.
func (m *MockTMDB) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// ConditionalCount returns the number of conditional requests.
func (m *MockTMDB) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// LastRequest returns a copy of the most recent request.
func (m *MockTMDB) LastRequest() *http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequest
}

// ListPage renders a provider list response body.
func ListPage(mediaType string, page, totalPages, perPage int) string {
	type item map[string]any
	results := make([]item, 0, perPage)
	for i := 1; i <= perPage; i++ {
		id := (page-1)*perPage + i
		it := item{"id": id, "poster_path": fmt.Sprintf("/p%d.jpg", id), "vote_average": 7.5}
		if mediaType == "tv" {
			it["name"] = fmt.Sprintf("Show %d", id)
			it["first_air_date"] = "2020-01-01"
		} else {
			it["title"] = fmt.Sprintf("Movie %d", id)
			it["release_date"] = "2020-01-01"
		}
		results = append(results, it)
	}
	body, _ := json.Marshal(map[string]any{
		"page":          page,
		"results":       results,
		"total_pages":   totalPages,
		"total_results": totalPages * perPage,
	})
	return string(body)
}

// NewOKResponse creates a standard 200 OK response with validators.
func NewOKResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"ETag":          `"test-etag-123"`,
			"Cache-Control": "public, max-age=300",
			"Content-Type":  "application/json;charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates the provider's 404 body.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"success":false,"status_code":34,"status_message":"The resource you requested could not be found."}`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=utf-8"},
	}
}

// NewUnauthorizedResponse creates the provider's invalid key response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"success":false,"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status_code":25,"status_message":"Your request count (41) is over the allowed limit of 40."}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json;charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status_code":11,"status_message":"Internal error: Something went wrong, contact TMDb."}`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=utf-8"},
	}
}

// NewConditionalHandler creates a handler that responds with 304 when the
// request carries the given ETag.
func NewConditionalHandler(etag string, data string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		writeJSON(w, http.StatusOK, data)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
