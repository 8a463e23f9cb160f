package pagination

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/rs/zerolog"
)

// PageFetcher loads one page of a listing. Pages start at 1.
type PageFetcher func(ctx context.Context, page int) (catalog.Page, error)

// Options configures an Infinite list.
type Options struct {
	// Cache shares pages with other consumers under key+page.
	// Without it pages are fetched directly.
	Cache *query.Client

	// StaleTime overrides the cache freshness window for pages.
	StaleTime time.Duration
}

// State is a consistent snapshot of an Infinite list.
type State struct {
	Pages              []catalog.Page
	HasNextPage        bool
	IsFetchingNextPage bool
	Status             query.Status
	Err                error
}

// Items stitches the pages' results in page order.
func (s State) Items() []catalog.Item {
	return stitch(s.Pages)
}

// Infinite is one logical list built from sequential numbered pages.
// Page fetches never overlap: FetchNextPage is a no-op while one is in
// flight. Pages are kept in strictly increasing order without gaps.
type Infinite struct {
	key   query.Key
	fetch PageFetcher
	opts  Options

	mu       sync.Mutex
	pages    []catalog.Page
	status   query.Status
	err      error
	fetching bool
	gen      uint64

	listenersMu sync.Mutex
	listeners   map[int]func()
	nextID      int

	logger zerolog.Logger
}

// NewInfinite creates a list for key. Nothing is fetched until Start or
// FetchNextPage is called.
func NewInfinite(key query.Key, fetch PageFetcher, opts Options) *Infinite {
	return &Infinite{
		key:       key,
		fetch:     fetch,
		opts:      opts,
		status:    query.StatusIdle,
		listeners: make(map[int]func()),
		logger:    logging.NewLogger("pagination").With().Str("key", key.String()).Logger(),
	}
}

// Key returns the list's query key.
func (p *Infinite) Key() query.Key {
	return p.key
}

// Start fetches the first page if nothing has been fetched yet.
func (p *Infinite) Start(ctx context.Context) error {
	p.mu.Lock()
	started := len(p.pages) > 0 || p.fetching
	p.mu.Unlock()
	if started {
		return nil
	}
	return p.FetchNextPage(ctx)
}

// FetchNextPage fetches the page after the last one held and appends it.
// It returns nil without fetching while another page is in flight or
// when there is no next page. A failed page is fetched again by the
// next call; pages already held are left untouched.
func (p *Infinite) FetchNextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.fetching || !p.hasNextPage() {
		p.mu.Unlock()
		return nil
	}
	next := 1
	if n := len(p.pages); n > 0 {
		next = p.pages[n-1].Page + 1
	}
	p.fetching = true
	if len(p.pages) == 0 {
		p.status = query.StatusLoading
	}
	gen := p.gen
	p.mu.Unlock()
	p.changed()

	p.logger.Debug().Int("page", next).Msg("Fetching page")
	page, err := p.load(ctx, next)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		p.logger.Debug().Int("page", next).Msg("Discarded page from before refetch")
		return nil
	}
	p.fetching = false
	if err != nil {
		p.status = query.StatusError
		p.err = err
	} else {
		page.Page = next
		p.pages = append(p.pages, page)
		p.status = query.StatusSuccess
		p.err = nil
	}
	p.mu.Unlock()
	p.changed()

	if err != nil {
		p.logger.Warn().Err(err).Int("page", next).Msg("Page fetch failed")
		return err
	}
	return nil
}

// FetchPages fetches sequentially until n pages are held, the list is
// exhausted or a fetch fails.
func (p *Infinite) FetchPages(ctx context.Context, n int) error {
	for {
		s := p.State()
		if len(s.Pages) >= n || !s.HasNextPage {
			return nil
		}
		if err := p.FetchNextPage(ctx); err != nil {
			return err
		}
		if after := p.State(); len(after.Pages) == len(s.Pages) {
			// Another caller holds the in-flight fetch.
			return nil
		}
	}
}

// Refetch drops every page, supersedes any in-flight fetch and loads the
// first page again. Cached pages for the key are invalidated.
func (p *Infinite) Refetch(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	p.pages = nil
	p.fetching = false
	p.status = query.StatusIdle
	p.err = nil
	p.mu.Unlock()

	if p.opts.Cache != nil {
		p.opts.Cache.InvalidatePrefix(p.key)
	}
	p.changed()
	return p.FetchNextPage(ctx)
}

func (p *Infinite) load(ctx context.Context, page int) (catalog.Page, error) {
	if p.opts.Cache == nil {
		return p.fetch(ctx, page)
	}

	var opts []query.Option
	if p.opts.StaleTime > 0 {
		opts = append(opts, query.StaleTime(p.opts.StaleTime))
	}
	got, e := query.Get(ctx, p.opts.Cache, p.key.Append(page), func(ctx context.Context) (catalog.Page, error) {
		return p.fetch(ctx, page)
	}, opts...)
	if e.Err != nil {
		return catalog.Page{}, e.Err
	}
	return got, nil
}

// hasNextPage requires p.mu.
func (p *Infinite) hasNextPage() bool {
	if len(p.pages) == 0 {
		return true
	}
	return p.pages[len(p.pages)-1].HasNext()
}

// HasNextPage reports whether the last fetched page is not the last one.
// It is true before the first page is fetched.
func (p *Infinite) HasNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNextPage()
}

// IsFetchingNextPage reports whether a page fetch is in flight.
func (p *Infinite) IsFetchingNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetching
}

// Status returns the list status: idle before Start, loading while the
// first page is in flight, then success or error of the latest fetch.
func (p *Infinite) Status() query.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Err returns the error of the latest failed fetch.
func (p *Infinite) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Pages returns a copy of the pages held.
func (p *Infinite) Pages() []catalog.Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]catalog.Page(nil), p.pages...)
}

// Items returns every item of every page in order.
func (p *Infinite) Items() []catalog.Item {
	return stitch(p.Pages())
}

// State returns a consistent snapshot.
func (p *Infinite) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Pages:              append([]catalog.Page(nil), p.pages...),
		HasNextPage:        p.hasNextPage(),
		IsFetchingNextPage: p.fetching,
		Status:             p.status,
		Err:                p.err,
	}
}

// OnChange registers fn to run after every state change and returns a
// function removing it.
func (p *Infinite) OnChange(fn func()) (remove func()) {
	p.listenersMu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.listenersMu.Lock()
			delete(p.listeners, id)
			p.listenersMu.Unlock()
		})
	}
}

func (p *Infinite) changed() {
	p.listenersMu.Lock()
	fns := make([]func(), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func stitch(pages []catalog.Page) []catalog.Item {
	n := 0
	for _, pg := range pages {
		n += len(pg.Results)
	}
	items := make([]catalog.Item, 0, n)
	for _, pg := range pages {
		items = append(items, pg.Results...)
	}
	return items
}
