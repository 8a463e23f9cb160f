// Package query implements the query cache: a keyed, time-bounded store of
// fetch results that runs at most one fetch per key at a time.
//
// Callers asking for a key while its fetch is in flight attach to that
// fetch and receive the same value. Each fetch carries a generation; a
// fetch superseded by Invalidate, Refetch or Remove settles without
// touching the entry. Entries are bounded by an LRU policy.
package query

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/streamvault/pkg/logging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultStaleTime is the freshness window of a successful entry.
	DefaultStaleTime = 5 * time.Minute

	// DefaultMaxEntries bounds the number of keys held.
	DefaultMaxEntries = 512
)

// Config holds the query cache configuration.
type Config struct {
	// StaleTime after which a successful entry is refetched on access.
	StaleTime time.Duration

	// MaxEntries held before least recently used keys are evicted.
	MaxEntries int

	// Now is the clock (default time.Now).
	Now func() time.Time
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		StaleTime:  DefaultStaleTime,
		MaxEntries: DefaultMaxEntries,
	}
}

// Client is the query cache. Construct one with New and pass it to
// consumers; the zero value is not usable.
type Client struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	group   singleflight.Group
	gen     uint64

	// inflight holds entries with a running fetch so that eviction from
	// entries does not lead to a second fetch for the same key.
	inflight map[string]*entry

	subsMu  sync.RWMutex
	subs    map[int]func(Entry)
	nextSub int

	staleTime time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// New creates a query cache.
func New(cfg Config) *Client {
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = DefaultStaleTime
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Client{
		subs:      make(map[int]func(Entry)),
		inflight:  make(map[string]*entry),
		staleTime: cfg.StaleTime,
		now:       cfg.Now,
		logger:    logging.NewLogger("query"),
	}

	entries, err := lru.NewWithEvict(cfg.MaxEntries, func(key string, _ *entry) {
		c.logger.Debug().Str("key", key).Msg("Evicted query entry")
	})
	if err != nil {
		panic(fmt.Sprintf("query: create lru: %v", err))
	}
	c.entries = entries
	return c
}

// Query returns the entry for key, fetching it first when it is absent,
// stale or errored. If a fetch for key is in flight the caller waits for
// it instead of starting another. The fetch runs detached from ctx so
// that one caller leaving does not fail the others; the caller itself
// returns early with a loading snapshot carrying ctx.Err().
func (c *Client) Query(ctx context.Context, key Key, fetch Fetcher, opts ...Option) Entry {
	if err := key.validate(); err != nil {
		return Entry{Key: key, Status: StatusError, Err: err}
	}
	o := c.options(opts)
	if !o.enabled {
		return c.peekOrIdle(key)
	}

	ch, snap, done := c.start(ctx, key, fetch, o)
	if done {
		return snap
	}

	select {
	case <-ctx.Done():
		return Entry{Key: key, Status: StatusLoading, Err: ctx.Err()}
	case res := <-ch:
		return res.Val.(Entry)
	}
}

// Async is Query without waiting: it starts or joins a fetch when one is
// needed and returns the current snapshot immediately. Subscribers are
// notified when the fetch settles.
func (c *Client) Async(ctx context.Context, key Key, fetch Fetcher, opts ...Option) Entry {
	if err := key.validate(); err != nil {
		return Entry{Key: key, Status: StatusError, Err: err}
	}
	o := c.options(opts)
	if !o.enabled {
		return c.peekOrIdle(key)
	}

	_, snap, _ := c.start(ctx, key, fetch, o)
	return snap
}

// Refetch invalidates key and queries it again.
func (c *Client) Refetch(ctx context.Context, key Key, fetch Fetcher, opts ...Option) Entry {
	c.Invalidate(key)
	return c.Query(ctx, key, fetch, opts...)
}

// start resolves a request under the lock. done is true when snap is a
// fresh hit; otherwise ch delivers the settled entry of the fetch the
// caller started or joined.
func (c *Client) start(ctx context.Context, key Key, fetch Fetcher, o options) (<-chan singleflight.Result, Entry, bool) {
	ks := key.String()

	c.mu.Lock()
	e, ok := c.entries.Get(ks)
	if !ok {
		if e, ok = c.inflight[ks]; !ok {
			e = &entry{key: key.Append(), status: StatusIdle}
		}
		c.entries.Add(ks, e)
		queryEntries.Set(float64(c.entries.Len()))
	}

	if !e.fetching && !e.invalid && !e.snapshot().IsStale(c.now(), o.staleTime) {
		snap := e.snapshot()
		c.mu.Unlock()
		queryHits.Inc()
		c.logger.Debug().Str("key", ks).Msg("Query hit")
		return nil, snap, true
	}

	var changed bool
	if e.fetching {
		queryJoins.Inc()
		c.logger.Debug().Str("key", ks).Msg("Joined in-flight fetch")
	} else {
		c.gen++
		e.gen = c.gen
		e.fetching = true
		e.flight = ks + "#" + strconv.FormatUint(e.gen, 10)
		e.status = StatusLoading
		e.data = nil
		e.err = nil
		c.inflight[ks] = e
		changed = true
		c.logger.Debug().Str("key", ks).Uint64("gen", e.gen).Msg("Starting fetch")
	}

	// DoChan is called under the lock: the flight cannot settle (and leave
	// the group) until the lock is released, so joiners always find it.
	gen := e.gen
	snap := e.snapshot()
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(e.flight, func() (any, error) {
		// Notified from the flight goroutine so loading always precedes
		// the settled state.
		if changed {
			c.notify(snap)
		}
		return c.run(detached, key, ks, gen, fetch), nil
	})
	c.mu.Unlock()

	return ch, snap, false
}

// run invokes the fetcher and settles the result if gen is still current.
func (c *Client) run(ctx context.Context, key Key, ks string, gen uint64, fetch Fetcher) Entry {
	started := time.Now()
	data, err := safeFetch(ctx, fetch)
	if err == nil && data == nil {
		err = ErrNilData
	}

	settled := Entry{Key: key}
	if err != nil {
		settled.Status = StatusError
		settled.Err = err
	} else {
		settled.Status = StatusSuccess
		settled.Data = data
		settled.FetchedAt = c.now()
	}

	c.mu.Lock()
	e, ok := c.lookup(ks)
	if !ok || !e.fetching || e.gen != gen {
		c.mu.Unlock()
		queryFetches.WithLabelValues("discarded").Inc()
		c.logger.Debug().Str("key", ks).Uint64("gen", gen).Msg("Discarded superseded fetch result")
		return settled
	}
	e.fetching = false
	e.flight = ""
	e.invalid = false
	delete(c.inflight, ks)
	if !c.entries.Contains(ks) {
		// Evicted while fetching; the result is still the newest state.
		c.entries.Add(ks, e)
		queryEntries.Set(float64(c.entries.Len()))
	}
	e.status = settled.Status
	e.data = settled.Data
	e.err = settled.Err
	if settled.Status == StatusSuccess {
		e.fetchedAt = settled.FetchedAt
	}
	snap := e.snapshot()
	c.mu.Unlock()

	if err != nil {
		queryFetches.WithLabelValues("error").Inc()
		c.logger.Warn().Err(err).Str("key", ks).Dur("duration", time.Since(started)).Msg("Query fetch failed")
	} else {
		queryFetches.WithLabelValues("success").Inc()
		c.logger.Debug().Str("key", ks).Dur("duration", time.Since(started)).Msg("Query fetch succeeded")
	}
	c.notify(snap)
	return snap
}

// lookup finds the entry for ks, including one evicted mid-fetch.
// c.mu must be held.
func (c *Client) lookup(ks string) (*entry, bool) {
	if e, ok := c.entries.Peek(ks); ok {
		return e, true
	}
	e, ok := c.inflight[ks]
	return e, ok
}

func safeFetch(ctx context.Context, fetch Fetcher) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("query fetcher panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// Peek returns the current snapshot for key without fetching and without
// affecting eviction order. Stale data is returned as is.
func (c *Client) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key.String())
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

func (c *Client) peekOrIdle(key Key) Entry {
	if snap, ok := c.Peek(key); ok {
		return snap
	}
	return Entry{Key: key, Status: StatusIdle}
}

// Invalidate marks key stale and supersedes any in-flight fetch for it.
// Successful data stays readable through Peek until the next fetch.
func (c *Client) Invalidate(key Key) {
	ks := key.String()
	c.mu.Lock()
	e, ok := c.lookup(ks)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.gen++
	e.gen = c.gen
	e.invalid = true
	if e.fetching {
		e.fetching = false
		e.flight = ""
		e.status = StatusIdle
		delete(c.inflight, ks)
	}
	snap := e.snapshot()
	c.mu.Unlock()

	c.notify(snap)
}

// InvalidatePrefix invalidates every key that starts with prefix.
func (c *Client) InvalidatePrefix(prefix Key) int {
	p := prefix.String()
	var matched []Key

	c.mu.Lock()
	for _, ks := range c.entries.Keys() {
		if ks == p || (len(ks) > len(p) && ks[:len(p)] == p && ks[len(p)] == ':') {
			if e, ok := c.entries.Peek(ks); ok {
				matched = append(matched, e.key)
			}
		}
	}
	c.mu.Unlock()

	for _, k := range matched {
		c.Invalidate(k)
	}
	return len(matched)
}

// Remove drops key. An in-flight fetch for it settles without effect.
func (c *Client) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ks := key.String()
	removed := c.entries.Remove(ks)
	if _, ok := c.inflight[ks]; ok {
		delete(c.inflight, ks)
		removed = true
	}
	queryEntries.Set(float64(c.entries.Len()))
	return removed
}

// Clear drops every entry.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	clear(c.inflight)
	queryEntries.Set(0)
}

// Len returns the number of entries held.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Subscribe registers fn for every entry state change and returns a
// function that removes it. fn runs on the goroutine that made the change
// and must not block.
func (c *Client) Subscribe(fn func(Entry)) (unsubscribe func()) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

func (c *Client) notify(snap Entry) {
	c.subsMu.RLock()
	fns := make([]func(Entry), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
