package tui

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/streamvault/internal/testutil"
	"github.com/Sternrassler/streamvault/pkg/browse"
	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/gateway"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mock *testutil.MockTMDB
	svc  *browse.Service
	wl   *watchlist.Store
	ctx  context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := testutil.NewMockTMDB()
	t.Cleanup(mock.Close)

	cfg := gateway.DefaultConfig("test-key")
	cfg.BaseURL = mock.URL()
	client, err := gateway.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	wl, err := watchlist.New(ctx, watchlist.NewMemoryPersister(), watchlist.Options{})
	require.NoError(t, err)

	return &fixture{
		mock: mock,
		svc:  browse.New(catalog.New(client), query.New(query.DefaultConfig())),
		wl:   wl,
		ctx:  ctx,
	}
}

// start opens the model on category with room for visible list rows.
func (f *fixture) start(t *testing.T, category string, visible int) Model {
	t.Helper()
	m := New(f.ctx, f.svc, f.wl, category)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: headerRows + footerRows + visible})
	return update(t, m, openMsg{tab: m.tab})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = update(t, m, msg)
	}
	return m
}

// pump feeds queued events into the model until cond holds.
func pump(t *testing.T, m Model, cond func(Model) bool) Model {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond(m) {
		select {
		case msg := <-m.events:
			m = update(t, m, msg)
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
	return m
}

func settled(n int) func(Model) bool {
	return func(m Model) bool {
		l := m.list()
		return l != nil && len(l.Items()) == n && !l.IsFetchingNextPage()
	}
}

func TestModel_LoadsPagesUntilViewportFilled(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 3, 4)

	m := f.start(t, "trending", 6)
	assert.Equal(t, "trending", m.Category())

	// Page 1 leaves the sentinel (row 4) visible, page 2 pushes it out.
	m = pump(t, m, settled(8))
	assert.Len(t, m.list().Pages(), 2)
	assert.Equal(t, 2, f.mock.PathCount("/trending/all/week"))
	assert.False(t, m.vp.IsVisible(8))
}

func TestModel_CursorToEndLoadsNextPage(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 3, 4)

	m := f.start(t, "trending", 6)
	m = pump(t, m, settled(8))

	m = press(t, m, "j", "j", "j", "j", "j", "j", "j")
	assert.Equal(t, 7, m.cursor)
	m = pump(t, m, settled(12))
	assert.False(t, m.list().HasNextPage())
	assert.Equal(t, 3, f.mock.PathCount("/trending/all/week"))

	item, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, 8, item.ID)
}

func TestModel_FailedPageWaitsForRetry(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 3, 4, 2)

	m := f.start(t, "trending", 6)
	m = pump(t, m, func(m Model) bool { return m.err != nil })
	require.Len(t, m.list().Pages(), 1)
	assert.Equal(t, 2, f.mock.PathCount("/trending/all/week"))

	// No retry while the sentinel just stays visible.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, f.mock.PathCount("/trending/all/week"))
	assert.Contains(t, m.View(), "retry")

	f.mock.SetPagedList("/trending/all/week", "movie", 3, 4)
	m = press(t, m, "r")
	m = pump(t, m, func(m Model) bool { return settled(8)(m) && m.err == nil })
	assert.Len(t, m.list().Pages(), 2)
}

func TestModel_SwitchCategory(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 1, 3)
	f.mock.SetPagedList("/discover/tv", "tv", 1, 2)

	m := f.start(t, "trending", 10)
	m = pump(t, m, settled(3))

	m = press(t, m, "j", "tab")
	assert.Equal(t, "originals", m.Category())
	assert.Equal(t, 0, m.cursor)
	m = pump(t, m, settled(2))
	assert.Equal(t, catalog.TV, m.list().Items()[0].MediaType)
}

func TestModel_WatchlistToggle(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 1, 3)

	m := f.start(t, "trending", 10)
	m = pump(t, m, settled(3))
	m = press(t, m, "j")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	require.NotNil(t, cmd)
	m = update(t, next.(Model), cmd())
	assert.True(t, f.wl.Contains(2))
	assert.Contains(t, m.status, "Added")
	assert.Contains(t, m.View(), InWatchlist)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = update(t, next.(Model), cmd())
	assert.False(t, f.wl.Contains(2))
	assert.Contains(t, m.status, "Removed")
}

func TestModel_Search(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 1, 3)
	f.mock.SetHandler("/search/multi", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page":1,"total_pages":1,"total_results":2,"results":[
			{"id":11,"media_type":"movie","title":"Dune"},
			{"id":12,"media_type":"person","name":"Denis"}]}`))
	})

	m := f.start(t, "trending", 10)
	m = pump(t, m, settled(3))

	m = press(t, m, "/")
	require.True(t, m.searching)

	m = press(t, m, "d", "u")
	assert.Equal(t, query.StatusIdle, m.searchStatus)
	assert.Equal(t, 0, f.mock.PathCount("/search/multi"))
	assert.Contains(t, m.View(), "at least 3")

	m = press(t, m, "n")
	m = pump(t, m, func(m Model) bool { return m.searchStatus == query.StatusSuccess })
	require.Len(t, m.results, 1)
	assert.Equal(t, "Dune", m.results[0].Title)
	assert.Equal(t, 1, f.mock.PathCount("/search/multi"))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = update(t, next.(Model), cmd())
	assert.True(t, f.wl.Contains(11))

	m = press(t, m, "esc")
	assert.False(t, m.searching)
}

func TestModel_QuitClosesSession(t *testing.T) {
	f := newFixture(t)
	f.mock.SetPagedList("/trending/all/week", "movie", 1, 3)

	m := f.start(t, "trending", 10)
	m = pump(t, m, settled(3))
	cur := m.cur

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cur.trigger.Attach(0)
	assert.False(t, cur.trigger.Attached())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Dune", 10, "Dune"},
		{"Dune: Part Two", 6, "Dune:…"},
		{"Dune", 1, "…"},
		{"Dune", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), tt.in)
	}
}
