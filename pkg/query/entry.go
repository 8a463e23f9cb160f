package query

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a query entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrNilData is stored when a fetcher reports success without data.
// Fetchers that mean "nothing here" return a typed nil instead.
var ErrNilData = errors.New("fetcher returned nil data")

// Fetcher loads the data for one key.
type Fetcher func(ctx context.Context) (any, error)

// Entry is a snapshot of one cached query. Data is non-nil iff Status is
// StatusSuccess; Err is non-nil iff Status is StatusError, except for a
// loading snapshot returned to a caller whose own context ended.
type Entry struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	FetchedAt time.Time
}

func (e Entry) IsIdle() bool    { return e.Status == StatusIdle }
func (e Entry) IsLoading() bool { return e.Status == StatusLoading }
func (e Entry) IsSuccess() bool { return e.Status == StatusSuccess }
func (e Entry) IsError() bool   { return e.Status == StatusError }

// IsStale reports whether a successful entry is older than staleTime.
// Entries that are not successful are always stale.
func (e Entry) IsStale(now time.Time, staleTime time.Duration) bool {
	if e.Status != StatusSuccess {
		return true
	}
	return now.Sub(e.FetchedAt) >= staleTime
}

// entry is the cache-owned record behind an Entry.
type entry struct {
	key       Key
	status    Status
	data      any
	err       error
	fetchedAt time.Time

	// gen identifies the fetch whose result may settle into this entry.
	gen      uint64
	fetching bool
	flight   string
	invalid  bool
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
	}
}
