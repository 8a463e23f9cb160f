package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) fn(ev Event) { r.events = append(r.events, ev) }

func TestViewport_Window(t *testing.T) {
	v := New(3)
	v.SetRows(10)

	start, end := v.Window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	v.ScrollTo(100)
	assert.Equal(t, 7, v.Offset(), "clamped to last full window")

	v.ScrollBy(-20)
	assert.Equal(t, 0, v.Offset())

	v.SetRows(2)
	start, end = v.Window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
}

func TestViewport_EnsureVisible(t *testing.T) {
	v := New(4)
	v.SetRows(20)

	v.EnsureVisible(6)
	assert.Equal(t, 3, v.Offset())
	assert.True(t, v.IsVisible(6))

	v.EnsureVisible(4)
	assert.Equal(t, 3, v.Offset(), "already visible")

	v.EnsureVisible(1)
	assert.Equal(t, 1, v.Offset())
}

func TestViewport_ObserveReportsInitialState(t *testing.T) {
	v := New(5)
	v.SetRows(3)

	var visible, hidden recorder
	v.Observe(2, visible.fn)
	v.Observe(9, hidden.fn)

	require.Len(t, visible.events, 1)
	assert.True(t, visible.events[0].Intersecting)
	assert.Equal(t, Target(2), visible.events[0].Target)

	require.Len(t, hidden.events, 1)
	assert.False(t, hidden.events[0].Intersecting)
}

func TestViewport_ReportsOnlyChanges(t *testing.T) {
	v := New(3)
	v.SetRows(10)

	var r recorder
	sub := v.Observe(5, r.fn)
	require.Len(t, r.events, 1)
	assert.False(t, r.events[0].Intersecting)

	v.ScrollTo(1)
	assert.Len(t, r.events, 1, "row 5 still hidden")

	v.ScrollTo(4)
	require.Len(t, r.events, 2)
	assert.True(t, r.events[1].Intersecting)

	v.ScrollTo(5)
	assert.Len(t, r.events, 2, "row 5 still visible")

	v.ScrollTo(0)
	require.Len(t, r.events, 3)
	assert.False(t, r.events[2].Intersecting)

	sub.Unsubscribe()
	sub.Unsubscribe()
	v.ScrollTo(4)
	assert.Len(t, r.events, 3)
}

func TestViewport_RowsAppearing(t *testing.T) {
	v := New(10)

	var r recorder
	v.Observe(4, r.fn)
	require.Len(t, r.events, 1)
	assert.False(t, r.events[0].Intersecting, "row does not exist yet")

	v.SetRows(5)
	require.Len(t, r.events, 2)
	assert.True(t, r.events[1].Intersecting)
}

func TestViewport_ObserverMayUnsubscribeInCallback(t *testing.T) {
	v := New(2)
	v.SetRows(10)

	var sub Subscription
	calls := 0
	sub = v.Observe(3, func(ev Event) {
		calls++
		if ev.Intersecting {
			sub.Unsubscribe()
		}
	})

	v.ScrollTo(2)
	v.ScrollTo(0)
	v.ScrollTo(2)
	assert.Equal(t, 2, calls)
}
