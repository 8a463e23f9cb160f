// Package browse composes catalog operations with the query cache into
// the screens of the application: home rows, category and genre lists,
// live search, details, streaming providers and people.
//
// Every read goes through one shared query.Client so that repeated and
// concurrent reads of the same key cost one provider request. Not-found
// ids are an empty state (nil value, nil error) rather than an error.
package browse

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/gateway"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/Sternrassler/streamvault/pkg/pagination"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MinSearchLength is the query length above which search runs.
const MinSearchLength = 2

// RowResult is one home row. Rows fail independently.
type RowResult struct {
	Feed  catalog.Feed
	Items []catalog.Item
	Err   error
}

// Service serves browse reads.
type Service struct {
	catalog *catalog.Catalog
	queries *query.Client
	logger  zerolog.Logger
}

// New creates a browse service.
func New(cat *catalog.Catalog, qc *query.Client) *Service {
	return &Service{
		catalog: cat,
		queries: qc,
		logger:  logging.NewLogger("browse"),
	}
}

// Queries returns the shared query cache.
func (s *Service) Queries() *query.Client {
	return s.queries
}

// RowKey is the query key of a home row.
func RowKey(id string) query.Key { return query.K(id) }

// CategoryKey is the query key prefix of a category list.
func CategoryKey(id string) query.Key { return query.K("category", id) }

// GenreKey is the query key prefix of a genre list.
func GenreKey(id int) query.Key { return query.K("genre", id) }

// SearchKey is the query key of a search.
// Surrounding whitespace is not part of a search.
func SearchKey(q string) query.Key { return query.K("search", strings.TrimSpace(q)) }

// DetailsKey is the query key of a details record.
func DetailsKey(mt catalog.MediaType, id int) query.Key {
	return query.K("details", string(mt), id)
}

// ProvidersKey is the query key of streaming availability.
func ProvidersKey(mt catalog.MediaType, id int) query.Key {
	return query.K("providers", string(mt), id)
}

// PersonKey is the query key of a person.
func PersonKey(id int) query.Key { return query.K("person", id) }

// Row returns the first page of a home row.
func (s *Service) Row(ctx context.Context, id string) ([]catalog.Item, error) {
	if _, ok := catalog.LookupRow(id); !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, id)
	}
	items, e := query.Get(ctx, s.queries, RowKey(id), func(ctx context.Context) ([]catalog.Item, error) {
		return s.catalog.Row(ctx, id)
	})
	return items, e.Err
}

// Rows fetches every home row concurrently.
func (s *Service) Rows(ctx context.Context) []RowResult {
	feeds := catalog.Rows()
	out := make([]RowResult, len(feeds))

	var g errgroup.Group
	for i, feed := range feeds {
		g.Go(func() error {
			items, err := s.Row(ctx, feed.ID)
			out[i] = RowResult{Feed: feed, Items: items, Err: err}
			if err != nil {
				s.logger.Warn().Err(err).Str("row", feed.ID).Msg("Row failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Category returns an infinite list over a browsable category.
func (s *Service) Category(id string) (*pagination.Infinite, error) {
	if _, ok := catalog.LookupCategory(id); !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, id)
	}
	return pagination.NewInfinite(CategoryKey(id), s.CategoryPages(id), pagination.Options{Cache: s.queries}), nil
}

// CategoryPages returns the page fetcher of a category.
func (s *Service) CategoryPages(id string) pagination.PageFetcher {
	return func(ctx context.Context, page int) (catalog.Page, error) {
		return s.catalog.CategoryPage(ctx, id, page)
	}
}

// Genre returns an infinite list over the movies of a genre.
func (s *Service) Genre(id int) *pagination.Infinite {
	return pagination.NewInfinite(GenreKey(id), s.GenrePages(id), pagination.Options{Cache: s.queries})
}

// GenrePages returns the page fetcher of a genre.
func (s *Service) GenrePages(id int) pagination.PageFetcher {
	return func(ctx context.Context, page int) (catalog.Page, error) {
		return s.catalog.GenrePage(ctx, id, page)
	}
}

// SearchEnabled reports whether q, trimmed, is long enough to search.
func SearchEnabled(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) > MinSearchLength
}

// Search runs a live search. Queries of MinSearchLength characters or
// fewer do not fetch and return an idle entry. Person results are never
// returned.
func (s *Service) Search(ctx context.Context, q string) ([]catalog.Item, query.Entry) {
	q = strings.TrimSpace(q)
	return query.Get(ctx, s.queries, SearchKey(q), func(ctx context.Context) ([]catalog.Item, error) {
		return s.catalog.Search(ctx, q)
	}, query.Enabled(SearchEnabled(q)))
}

// SearchAsync starts a search in the background. The settled entry is
// delivered to query subscribers.
func (s *Service) SearchAsync(ctx context.Context, q string) query.Entry {
	q = strings.TrimSpace(q)
	return s.queries.Async(ctx, SearchKey(q), func(ctx context.Context) (any, error) {
		items, err := s.catalog.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		return items, nil
	}, query.Enabled(SearchEnabled(q)))
}

// Details returns the full record of a movie or show, or nil when the
// provider has no such id.
func (s *Service) Details(ctx context.Context, mt catalog.MediaType, id int) (*catalog.Details, error) {
	d, e := query.Get(ctx, s.queries, DetailsKey(mt, id), func(ctx context.Context) (*catalog.Details, error) {
		return notFoundAsNil(s.catalog.Details(ctx, mt, id))
	})
	return d, e.Err
}

// Providers returns streaming availability, or nil when the provider
// has no such id.
func (s *Service) Providers(ctx context.Context, mt catalog.MediaType, id int) (catalog.Providers, error) {
	p, e := query.Get(ctx, s.queries, ProvidersKey(mt, id), func(ctx context.Context) (catalog.Providers, error) {
		return notFoundAsNil(s.catalog.Providers(ctx, mt, id))
	})
	return p, e.Err
}

// Person returns a person, or nil when the provider has no such id.
func (s *Service) Person(ctx context.Context, id int) (*catalog.Person, error) {
	p, e := query.Get(ctx, s.queries, PersonKey(id), func(ctx context.Context) (*catalog.Person, error) {
		return notFoundAsNil(s.catalog.Person(ctx, id))
	})
	return p, e.Err
}

func notFoundAsNil[T any](v T, err error) (T, error) {
	if gateway.IsNotFound(err) {
		var zero T
		return zero, nil
	}
	return v, err
}
