package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "response with validators",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Cache-Control": []string{"public, max-age=3600"},
					"Last-Modified": []string{time.Now().Add(-time.Hour).Format(http.TimeFormat)},
					"Etag":          []string{`W/"abc123"`},
					"Content-Type":  []string{"application/json;charset=utf-8"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"page":1,"results":[]}`))),
			},
		},
		{
			name: "response without caching headers",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewReader([]byte(`{"id":550}`))),
			},
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			body, _ := io.ReadAll(tt.resp.Body)
			if !bytes.Equal(body, entry.Data) {
				t.Errorf("Response body not restored: got %q, entry has %q", body, entry.Data)
			}
			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %v, want %v", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.ETag != tt.resp.Header.Get("ETag") {
				t.Errorf("ETag = %v, want %v", entry.ETag, tt.resp.Header.Get("ETag"))
			}
			if !entry.Expires.After(time.Now()) {
				t.Error("Expires should be in the future")
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`{"id":550}`),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	}

	resp := EntryToResponse(entry)
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(body) != `{"id":550}` {
		t.Errorf("Body = %q", body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type header lost")
	}

	// Mutating the response must not touch the cached headers.
	resp.Header.Set("X-Test", "1")
	if entry.Headers.Get("X-Test") != "" {
		t.Error("EntryToResponse must clone headers")
	}
}

func TestExpiresFrom(t *testing.T) {
	now := time.Now()
	tolerance := 2 * time.Second

	tests := []struct {
		name    string
		headers http.Header
		want    time.Time
	}{
		{
			name:    "max-age",
			headers: http.Header{"Cache-Control": []string{"public, max-age=600"}},
			want:    now.Add(10 * time.Minute),
		},
		{
			name: "max-age wins over expires",
			headers: http.Header{
				"Cache-Control": []string{"max-age=60"},
				"Expires":       []string{now.Add(time.Hour).Format(http.TimeFormat)},
			},
			want: now.Add(time.Minute),
		},
		{
			name:    "no-store",
			headers: http.Header{"Cache-Control": []string{"no-store"}},
			want:    now,
		},
		{
			name:    "expires header",
			headers: http.Header{"Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			want:    now.Add(time.Hour),
		},
		{
			name:    "expires in the past",
			headers: http.Header{"Expires": []string{now.Add(-time.Hour).Format(http.TimeFormat)}},
			want:    now,
		},
		{
			name:    "invalid expires header",
			headers: http.Header{"Expires": []string{"not a valid date"}},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "no headers",
			headers: http.Header{},
			want:    now.Add(DefaultTTL),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpiresFrom(tt.headers)
			if diff := got.Sub(tt.want); diff < -tolerance || diff > tolerance {
				t.Errorf("ExpiresFrom() = %v, want approximately %v (diff: %v)", got, tt.want, diff)
			}
		})
	}
}

func TestShouldMakeConditionalRequest(t *testing.T) {
	tests := []struct {
		name  string
		entry *CacheEntry
		want  bool
	}{
		{"nil entry", nil, false},
		{"entry with ETag", &CacheEntry{ETag: `"abc123"`}, true},
		{"entry with Last-Modified", &CacheEntry{LastModified: time.Now()}, true},
		{"entry without validators", &CacheEntry{Data: []byte("data")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		entry      *CacheEntry
		wantHeader string
		wantValue  string
	}{
		{"If-None-Match with ETag", &CacheEntry{ETag: `"abc123"`}, "If-None-Match", `"abc123"`},
		{"If-Modified-Since with Last-Modified", &CacheEntry{LastModified: lastMod}, "If-Modified-Since", "Sun, 01 Jan 2023 12:00:00 GMT"},
		{"ETag preferred", &CacheEntry{ETag: `"abc123"`, LastModified: lastMod}, "If-None-Match", `"abc123"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "https://api.themoviedb.org/3/movie/550", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get(tt.wantHeader); got != tt.wantValue {
				t.Errorf("Header %s = %v, want %v", tt.wantHeader, got, tt.wantValue)
			}
		})
	}

	// nil inputs must not panic
	AddConditionalHeaders(nil, &CacheEntry{ETag: "test"})
	AddConditionalHeaders(&http.Request{Header: http.Header{}}, nil)
}
