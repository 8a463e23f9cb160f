// Package tui is a terminal browser over the browse service: one
// category at a time as an endlessly scrolling list, a live search
// dropdown and watchlist toggling.
package tui

import (
	"context"
	"strings"

	"github.com/Sternrassler/streamvault/pkg/browse"
	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/Sternrassler/streamvault/pkg/pagination"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/Sternrassler/streamvault/pkg/viewport"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// listChangedMsg reports a state change of the list it carries.
type listChangedMsg struct {
	list *pagination.Infinite
}

// pageErrMsg reports a failed page load.
type pageErrMsg struct {
	list *pagination.Infinite
	err  error
}

// searchMsg carries a settled search entry.
type searchMsg struct {
	entry query.Entry
}

// watchlistMsg reports the result of a watchlist toggle.
type watchlistMsg struct {
	item    catalog.Item
	present bool
	err     error
}

// headerRows is the number of lines above the list.
const headerRows = 4

// footerRows is the number of lines below the list.
const footerRows = 4

// Model is the bubbletea model of the browser.
type Model struct {
	ctx       context.Context
	browse    *browse.Service
	watchlist *watchlist.Store
	keys      KeyMap
	logger    zerolog.Logger

	events   chan tea.Msg
	unsubQry func()

	categories []catalog.Feed
	tab        int

	cur    *session
	vp     *viewport.Viewport
	cursor int

	searching    bool
	input        textinput.Model
	results      []catalog.Item
	searchStatus query.Status
	searchErr    error
	resultCursor int

	status string
	err    error
	width  int
	height int
}

// New creates the browser model starting on category id. An empty id
// starts on the first category.
func New(ctx context.Context, b *browse.Service, wl *watchlist.Store, category string) Model {
	ti := textinput.New()
	ti.Placeholder = "Titles, people, genres"
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = BrandStyle
	ti.PlaceholderStyle = DimStyle

	m := Model{
		ctx:        ctx,
		browse:     b,
		watchlist:  wl,
		keys:       DefaultKeyMap(),
		logger:     logging.NewLogger("tui"),
		events:     make(chan tea.Msg, 64),
		categories: catalog.Categories(),
		vp:         viewport.New(10),
		input:      ti,
		height:     headerRows + footerRows + 10,
	}
	for i, c := range m.categories {
		if c.ID == category {
			m.tab = i
		}
	}

	events := m.events
	m.unsubQry = b.Queries().Subscribe(func(e query.Entry) {
		if len(e.Key) == 0 || e.Key[0] != "search" || e.IsLoading() || e.IsIdle() {
			return
		}
		send(ctx, events, searchMsg{entry: e})
	})
	return m
}

func send(ctx context.Context, ch chan<- tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	case <-ctx.Done():
	}
}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Init opens the starting category.
func (m Model) Init() tea.Cmd {
	return tea.Batch(listen(m.events), m.openCmd(m.tab))
}

type openMsg struct{ tab int }

func (m Model) openCmd(tab int) tea.Cmd {
	return func() tea.Msg { return openMsg{tab: tab} }
}

// open replaces the current list with the category at tab.
func (m Model) open(tab int) Model {
	m.close()

	feed := m.categories[tab]
	list, err := m.browse.Category(feed.ID)
	if err != nil {
		m.logger.Error().Err(err).Str("category", feed.ID).Msg("Failed to open category")
		m.err = err
		return m
	}

	m.tab = tab
	m.cursor = 0
	m.err = nil
	m.status = ""
	m.vp.ScrollTo(0)
	m.cur = openSession(m.ctx, feed, list, m.vp, m.events)
	m.cur.sync(false)
	return m
}

func (m *Model) close() {
	if m.cur != nil {
		m.cur.close()
		m.cur = nil
	}
}

func (m Model) list() *pagination.Infinite {
	if m.cur == nil {
		return nil
	}
	return m.cur.list
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.SetHeight(max(msg.Height-headerRows-footerRows, 1))
		m.input.Width = max(msg.Width-10, 10)
		return m, nil

	case openMsg:
		return m.open(msg.tab), nil

	case listChangedMsg:
		if msg.list == m.list() && msg.list.Err() == nil {
			m.err = nil
		}
		return m, listen(m.events)

	case pageErrMsg:
		if msg.list == m.list() {
			m.err = msg.err
		}
		return m, listen(m.events)

	case searchMsg:
		if m.searching && msg.entry.Key.Equal(browse.SearchKey(m.input.Value())) {
			m = m.applySearch(msg.entry)
		}
		return m, listen(m.events)

	case watchlistMsg:
		switch {
		case msg.err != nil:
			m.logger.Warn().Err(msg.err).Int("id", msg.item.ID).Msg("Watchlist update failed")
			m.err = msg.err
		case msg.present:
			m.status = "Added " + msg.item.Title + " to watchlist"
		default:
			m.status = "Removed " + msg.item.Title + " from watchlist"
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.close()
		if m.unsubQry != nil {
			m.unsubQry()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m = m.moveCursor(1)

	case key.Matches(msg, m.keys.Up):
		m = m.moveCursor(-1)

	case key.Matches(msg, m.keys.PageDown):
		m = m.moveCursor(m.vp.Height())

	case key.Matches(msg, m.keys.PageUp):
		m = m.moveCursor(-m.vp.Height())

	case key.Matches(msg, m.keys.NextTab):
		return m.open((m.tab + 1) % len(m.categories)), nil

	case key.Matches(msg, m.keys.PrevTab):
		return m.open((m.tab + len(m.categories) - 1) % len(m.categories)), nil

	case key.Matches(msg, m.keys.Retry):
		m.err = nil
		if m.cur != nil {
			m.cur.sync(true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.input.SetValue("")
		m.results = nil
		m.searchStatus = query.StatusIdle
		m.searchErr = nil
		m.resultCursor = 0
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Watchlist), key.Matches(msg, m.keys.Select):
		if item, ok := m.selected(); ok {
			return m, m.toggleCmd(item)
		}
	}
	return m, nil
}

// moveCursor moves by delta and keeps the row after the cursor in view,
// so the sentinel comes into view when the cursor reaches the last item.
func (m Model) moveCursor(delta int) Model {
	items := m.items()
	if len(items) == 0 {
		return m
	}
	m.cursor = min(max(m.cursor+delta, 0), len(items)-1)
	m.vp.EnsureVisible(m.cursor)
	m.vp.EnsureVisible(min(m.cursor+1, m.vp.Rows()-1))
	return m
}

func (m Model) items() []catalog.Item {
	if m.cur == nil {
		return nil
	}
	return m.cur.list.Items()
}

func (m Model) selected() (catalog.Item, bool) {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return catalog.Item{}, false
	}
	return items[m.cursor], true
}

func (m Model) toggleCmd(item catalog.Item) tea.Cmd {
	ctx, wl := m.ctx, m.watchlist
	return func() tea.Msg {
		present, err := wl.Toggle(ctx, item)
		return watchlistMsg{item: item, present: present, err: err}
	}
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.input.Blur()
		return m, nil

	case msg.Type == tea.KeyDown:
		if m.resultCursor < len(m.results)-1 {
			m.resultCursor++
		}
		return m, nil

	case msg.Type == tea.KeyUp:
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.resultCursor < len(m.results) {
			return m, m.toggleCmd(m.results[m.resultCursor])
		}
		return m, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != prev {
		m = m.runSearch(q)
	}
	return m, cmd
}

// runSearch starts or joins the search for q. Short queries clear the
// dropdown without fetching.
func (m Model) runSearch(q string) Model {
	m.resultCursor = 0
	if !browse.SearchEnabled(q) {
		m.results = nil
		m.searchStatus = query.StatusIdle
		m.searchErr = nil
		return m
	}
	return m.applySearch(m.browse.SearchAsync(m.ctx, q))
}

func (m Model) applySearch(e query.Entry) Model {
	m.searchStatus = e.Status
	m.searchErr = e.Err
	if items, ok := query.Typed[[]catalog.Item](e); ok {
		m.results = items
		m.resultCursor = min(m.resultCursor, max(len(items)-1, 0))
	} else if !e.IsLoading() {
		m.results = nil
	}
	return m
}

// Selected returns the highlighted item of the current list.
func (m Model) Selected() (catalog.Item, bool) {
	return m.selected()
}

// Category returns the id of the open category.
func (m Model) Category() string {
	return m.categories[m.tab].ID
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
