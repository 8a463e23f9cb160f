package viewport

import (
	"context"
	"sync"

	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/rs/zerolog"
)

// Options configures a Trigger.
type Options struct {
	// Context is passed to FetchNextPage (default context.Background).
	Context context.Context

	// Run executes a page fetch (default: a new goroutine).
	Run func(func())

	// OnError receives FetchNextPage errors.
	OnError func(error)
}

// Trigger fetches the next page of a Pager when the attached target
// intersects the observer's view.
type Trigger struct {
	observer Observer
	pager    Pager
	opts     Options

	mu      sync.Mutex
	target  *Target
	sub     Subscription
	gen     uint64
	pending bool
	halted  bool
	closed  bool

	logger zerolog.Logger
}

// NewTrigger creates a trigger. Nothing is observed until Attach.
func NewTrigger(observer Observer, pager Pager, opts Options) *Trigger {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Run == nil {
		opts.Run = func(fn func()) { go fn() }
	}
	return &Trigger{
		observer: observer,
		pager:    pager,
		opts:     opts,
		logger:   logging.NewLogger("viewport"),
	}
}

// Attach observes target, replacing any previous observation. The
// observation starts only when the pager is not fetching. Attach also
// resumes a trigger halted by a failed fetch.
func (t *Trigger) Attach(target Target) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	old := t.sub
	t.sub = nil
	t.target = &target
	t.halted = false
	t.gen++
	t.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	t.Sync()
}

// Detach ends the observation and forgets the target.
func (t *Trigger) Detach() {
	t.mu.Lock()
	old := t.sub
	t.sub = nil
	t.target = nil
	t.gen++
	t.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
}

// Close detaches for good. Later Attach and Sync calls do nothing.
func (t *Trigger) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Detach()
}

// Attached reports whether an observation is currently held.
func (t *Trigger) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sub != nil
}

// Sync re-evaluates the observation against the pager: it is dropped
// while a fetch is in flight and restored afterwards. After a failed
// fetch it stays dropped until the next Attach. Call Sync whenever the
// pager's state changes.
func (t *Trigger) Sync() {
	t.mu.Lock()
	if t.target == nil || t.closed || t.pending || t.halted || t.pager.IsFetchingNextPage() {
		old := t.sub
		t.sub = nil
		t.gen++
		t.mu.Unlock()
		if old != nil {
			old.Unsubscribe()
		}
		return
	}
	if t.sub != nil {
		t.mu.Unlock()
		return
	}
	t.gen++
	gen := t.gen
	target := *t.target
	t.mu.Unlock()

	// Observe may deliver the initial event synchronously.
	sub := t.observer.Observe(target, func(ev Event) { t.handle(gen, ev) })

	t.mu.Lock()
	if t.gen != gen || t.sub != nil {
		t.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	t.sub = sub
	t.mu.Unlock()
}

func (t *Trigger) handle(gen uint64, ev Event) {
	t.mu.Lock()
	if gen != t.gen || t.closed || t.pending || !ev.Intersecting || !t.pager.HasNextPage() {
		t.mu.Unlock()
		return
	}
	t.pending = true
	t.gen++
	old := t.sub
	t.sub = nil
	t.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}

	t.logger.Debug().Int("target", int(ev.Target)).Msg("Sentinel visible, fetching next page")
	t.opts.Run(func() {
		err := t.pager.FetchNextPage(t.opts.Context)
		if err != nil {
			t.logger.Warn().Err(err).Msg("Next page fetch failed")
			if t.opts.OnError != nil {
				t.opts.OnError(err)
			}
		}

		t.mu.Lock()
		t.pending = false
		t.halted = err != nil
		t.mu.Unlock()
		t.Sync()
	})
}
