// Package watchlist keeps the user's saved movies and shows.
//
// The list is ordered most recent first and holds at most one item per
// id. Every effective change is written through to a Persister under a
// fixed namespace; no-op changes are not written.
package watchlist

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"
)

// Namespace is the persistence key of the watchlist.
const Namespace = "streamvault-watchlist"

// Entry is a saved item and when it was added. Lists saved before
// AddedAt existed load with a zero AddedAt.
type Entry struct {
	catalog.Item
	AddedAt time.Time `json:"added_at,omitzero"`
}

// Persister loads and saves the watchlist under a key. Load returns an
// empty list when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context, key string) ([]Entry, error)
	Save(ctx context.Context, key string, entries []Entry) error
}

// Options configures a Store.
type Options struct {
	// Key overrides Namespace.
	Key string

	// Now stamps AddedAt (default time.Now).
	Now func() time.Time
}

// Store is the watchlist.
type Store struct {
	mu        sync.RWMutex
	entries   []Entry
	persister Persister
	key       string
	now       func() time.Time
	logger    zerolog.Logger
}

// New loads the watchlist from p.
func New(ctx context.Context, p Persister, opts Options) (*Store, error) {
	if opts.Key == "" {
		opts.Key = Namespace
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		persister: p,
		key:       opts.Key,
		now:       opts.Now,
		logger:    logging.NewLogger("watchlist"),
	}

	entries, err := p.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	s.entries = dedupe(entries)
	s.logger.Debug().Int("items", len(s.entries)).Msg("Watchlist loaded")
	return s, nil
}

// Add prepends item unless an item with the same id is already present.
// It reports whether the list changed.
func (s *Store) Add(ctx context.Context, item catalog.Item) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(item.ID) >= 0 {
		return false, nil
	}

	next := make([]Entry, 0, len(s.entries)+1)
	next = append(next, Entry{Item: item, AddedAt: s.now().UTC()})
	next = append(next, s.entries...)
	if err := s.persister.Save(ctx, s.key, next); err != nil {
		return false, fmt.Errorf("save watchlist: %w", err)
	}
	s.entries = next
	s.logger.Info().Str("ref", item.Ref().String()).Str("title", item.Title).Msg("Added to watchlist")
	return true, nil
}

// Remove drops the item with id. It reports whether the list changed.
func (s *Store) Remove(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false, nil
	}

	next := make([]Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:i]...)
	next = append(next, s.entries[i+1:]...)
	if err := s.persister.Save(ctx, s.key, next); err != nil {
		return false, fmt.Errorf("save watchlist: %w", err)
	}
	s.entries = next
	s.logger.Info().Int("id", id).Msg("Removed from watchlist")
	return true, nil
}

// Toggle adds item when absent and removes it otherwise. It reports
// whether the item is present afterwards.
func (s *Store) Toggle(ctx context.Context, item catalog.Item) (bool, error) {
	if s.Contains(item.ID) {
		_, err := s.Remove(ctx, item.ID)
		return err != nil, err
	}
	_, err := s.Add(ctx, item)
	return err == nil, err
}

// Contains reports whether an item with id is present. Ids are compared
// without regard to media type.
func (s *Store) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(id) >= 0
}

// ContainsRef reports whether the exact movie or show is present.
func (s *Store) ContainsRef(ref catalog.Ref) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(ref.ID)
	return i >= 0 && s.entries[i].MediaType == ref.MediaType
}

// Entries returns a copy of the list, most recent first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Items returns the saved items, most recent first.
func (s *Store) Items() []catalog.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]catalog.Item, len(s.entries))
	for i, e := range s.entries {
		items[i] = e.Item
	}
	return items
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// titles implements fuzzy.Source over lowercase titles.
type titles []string

func (t titles) String(i int) string { return t[i] }
func (t titles) Len() int            { return len(t) }

// Filter returns the entries whose title fuzzy-matches q, best match
// first. An empty q returns every entry.
func (s *Store) Filter(q string) []Entry {
	entries := s.Entries()
	q = strings.TrimSpace(q)
	if q == "" {
		return entries
	}

	src := make(titles, len(entries))
	for i, e := range entries {
		src[i] = strings.ToLower(e.Title)
	}
	matches := fuzzy.FindFrom(strings.ToLower(q), src)

	out := make([]Entry, len(matches))
	for i, m := range matches {
		out[i] = entries[m.Index]
	}
	return out
}

// index requires s.mu.
func (s *Store) index(id int) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(entries []Entry) []Entry {
	seen := make(map[int]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
