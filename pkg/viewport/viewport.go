package viewport

import "sync"

// Viewport models a scrolling list of rows with a fixed visible height.
// It is an Observer over row indexes: observers are told when their row
// enters or leaves the visible window.
type Viewport struct {
	mu     sync.Mutex
	rows   int
	height int
	offset int

	observations map[int]*observation
	nextID       int
}

type observation struct {
	target  Target
	fn      func(Event)
	visible bool
}

// New creates an empty viewport showing height rows.
func New(height int) *Viewport {
	if height < 1 {
		height = 1
	}
	return &Viewport{
		height:       height,
		observations: make(map[int]*observation),
	}
}

// Observe implements Observer. The current visibility of target is
// reported once right away.
func (v *Viewport) Observe(target Target, fn func(Event)) Subscription {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	o := &observation{target: target, fn: fn, visible: v.visible(int(target))}
	v.observations[id] = o
	ev := Event{Target: target, Intersecting: o.visible}
	v.mu.Unlock()

	fn(ev)

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.observations, id)
			v.mu.Unlock()
		})
	})
}

// Rows returns the number of rows.
func (v *Viewport) Rows() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rows
}

// Height returns the number of visible rows.
func (v *Viewport) Height() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height
}

// Offset returns the index of the first visible row.
func (v *Viewport) Offset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

// Window returns the visible half-open row range [start, end).
func (v *Viewport) Window() (start, end int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset, min(v.offset+v.height, v.rows)
}

// IsVisible reports whether row is inside the visible window.
func (v *Viewport) IsVisible(row int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible(row)
}

// SetRows changes the row count, clamping the offset.
func (v *Viewport) SetRows(n int) {
	v.update(func() {
		v.rows = max(n, 0)
	})
}

// SetHeight changes the visible height, clamping the offset.
func (v *Viewport) SetHeight(h int) {
	v.update(func() {
		v.height = max(h, 1)
	})
}

// ScrollTo sets the first visible row, clamped to the scrollable range.
func (v *Viewport) ScrollTo(offset int) {
	v.update(func() {
		v.offset = offset
	})
}

// ScrollBy scrolls by delta rows.
func (v *Viewport) ScrollBy(delta int) {
	v.update(func() {
		v.offset += delta
	})
}

// EnsureVisible scrolls the least amount that brings row into view.
func (v *Viewport) EnsureVisible(row int) {
	v.update(func() {
		switch {
		case row < v.offset:
			v.offset = row
		case row >= v.offset+v.height:
			v.offset = row - v.height + 1
		}
	})
}

// update applies change, clamps the offset and reports visibility changes
// outside the lock.
func (v *Viewport) update(change func()) {
	v.mu.Lock()
	change()
	v.offset = min(v.offset, max(v.rows-v.height, 0))
	v.offset = max(v.offset, 0)

	var pending []func()
	for _, o := range v.observations {
		vis := v.visible(int(o.target))
		if vis == o.visible {
			continue
		}
		o.visible = vis
		fn, ev := o.fn, Event{Target: o.target, Intersecting: vis}
		pending = append(pending, func() { fn(ev) })
	}
	v.mu.Unlock()

	for _, call := range pending {
		call()
	}
}

// visible requires v.mu.
func (v *Viewport) visible(row int) bool {
	return row >= 0 && row < v.rows && row >= v.offset && row < v.offset+v.height
}
