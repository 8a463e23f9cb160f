package query

import "time"

// Option adjusts a single query call.
type Option func(*options)

type options struct {
	enabled   bool
	staleTime time.Duration
}

// Enabled gates fetching. A disabled query returns the current snapshot,
// or the idle state, and never invokes the fetcher.
func Enabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// StaleTime overrides the client's freshness window for this call.
func StaleTime(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

func (c *Client) options(opts []Option) options {
	o := options{enabled: true, staleTime: c.staleTime}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
