package tui

import (
	"context"
	"sync"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/pagination"
	"github.com/Sternrassler/streamvault/pkg/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// session binds one open category list to the viewport. The sentinel
// is moved from the list's change callback, before the trigger
// re-evaluates its observation, so a finished page never re-fires on
// the old sentinel row.
type session struct {
	feed    catalog.Feed
	list    *pagination.Infinite
	vp      *viewport.Viewport
	trigger *viewport.Trigger
	remove  func()

	mu       sync.Mutex
	sentinel int
}

func openSession(ctx context.Context, feed catalog.Feed, list *pagination.Infinite, vp *viewport.Viewport, events chan<- tea.Msg) *session {
	s := &session{feed: feed, list: list, vp: vp, sentinel: -1}
	s.trigger = viewport.NewTrigger(vp, list, viewport.Options{
		Context: ctx,
		OnError: func(err error) {
			send(ctx, events, pageErrMsg{list: list, err: err})
		},
	})
	s.remove = list.OnChange(func() {
		s.sync(false)
		send(ctx, events, listChangedMsg{list: list})
	})
	return s
}

// sync sizes the viewport to the list and moves the sentinel to the row
// after the last item. The trigger is re-attached only when the
// sentinel moved or force is set.
func (s *session) sync(force bool) {
	st := s.list.State()
	n := len(st.Items())
	rows := n
	if st.HasNextPage {
		rows++
	}
	s.vp.SetRows(rows)

	if st.IsFetchingNextPage {
		return
	}

	s.mu.Lock()
	moved := n != s.sentinel
	s.sentinel = n
	s.mu.Unlock()

	if !st.HasNextPage {
		s.trigger.Detach()
		return
	}
	if moved || force {
		s.trigger.Attach(viewport.Target(n))
	}
}

func (s *session) close() {
	s.trigger.Close()
	s.remove()
}
