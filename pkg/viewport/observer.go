// Package viewport loads the next page of a list when its last element
// becomes visible.
//
// An Observer reports when a target enters or leaves view. A Trigger
// keeps one observation on the list's sentinel target and calls
// FetchNextPage on the pager when the sentinel intersects and more pages
// exist. While a page is being fetched no observation is held, so a
// visible sentinel cannot start a second fetch.
package viewport

import "context"

// Target identifies an observed element. For Viewport it is a row index.
type Target int

// Event reports a target's visibility change.
type Event struct {
	Target       Target
	Intersecting bool
}

// Subscription ends an observation. Unsubscribe may be called more than once.
type Subscription interface {
	Unsubscribe()
}

// Observer delivers visibility events for a target. Implementations
// report the target's current state once when the observation starts
// and must call fn without holding their own locks.
type Observer interface {
	Observe(target Target, fn func(Event)) Subscription
}

// Pager is the list a Trigger advances.
type Pager interface {
	HasNextPage() bool
	IsFetchingNextPage() bool
	FetchNextPage(ctx context.Context) error
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }
