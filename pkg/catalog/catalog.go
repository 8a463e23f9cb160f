// Package catalog provides typed provider operations on top of the gateway:
// listings, search, details, people and streaming availability. Provider
// payloads are decoded once here into the Item tagged union.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/streamvault/pkg/gateway"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownCategory is returned for category ids without a feed.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page must be >= 1")
)

// Catalog issues provider requests through a gateway.Fetcher.
type Catalog struct {
	gw     gateway.Fetcher
	logger zerolog.Logger
}

// New creates a catalog over the given fetcher.
func New(f gateway.Fetcher) *Catalog {
	return &Catalog{
		gw:     f,
		logger: logging.NewLogger("catalog"),
	}
}

// FeedPage fetches one page of a feed.
func (c *Catalog) FeedPage(ctx context.Context, feed Feed, page int) (Page, error) {
	if page < 1 {
		return Page{}, ErrInvalidPage
	}

	params := url.Values{}
	for k, v := range feed.Params {
		params[k] = v
	}
	params.Set("page", strconv.Itoa(page))

	var raw rawPage
	if err := gateway.FetchJSON(ctx, c.gw, gateway.Endpoint{Path: feed.Path, Params: params}, &raw); err != nil {
		return Page{}, fmt.Errorf("feed %s page %d: %w", feed.ID, page, err)
	}

	p := raw.page(feed.MediaType)
	c.logger.Debug().
		Str("feed", feed.ID).
		Int("page", p.Page).
		Int("total_pages", p.TotalPages).
		Int("results", len(p.Results)).
		Msg("Fetched feed page")
	return p, nil
}

// Row returns the first page of a home row.
func (c *Catalog) Row(ctx context.Context, id string) ([]Item, error) {
	feed, ok := LookupRow(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	p, err := c.FeedPage(ctx, feed, 1)
	if err != nil {
		return nil, err
	}
	return p.Results, nil
}

// CategoryPage fetches one page of a browsable category.
func (c *Catalog) CategoryPage(ctx context.Context, id string, page int) (Page, error) {
	feed, ok := LookupCategory(id)
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	return c.FeedPage(ctx, feed, page)
}

// GenrePage fetches one page of movies for a genre.
func (c *Catalog) GenrePage(ctx context.Context, genreID, page int) (Page, error) {
	return c.FeedPage(ctx, GenreFeed(genreID), page)
}

// Search runs a multi search and keeps only movies and shows.
func (c *Catalog) Search(ctx context.Context, query string) ([]Item, error) {
	var raw rawPage
	ep := gateway.Endpoint{
		Path:   "/search/multi",
		Params: url.Values{"query": {query}, "include_adult": {"false"}},
	}
	if err := gateway.FetchJSON(ctx, c.gw, ep, &raw); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return items(raw.Results, ""), nil
}

// Details fetches a movie or show with credits, similar titles and videos.
func (c *Catalog) Details(ctx context.Context, mt MediaType, id int) (*Details, error) {
	var raw rawDetails
	ep := gateway.Endpoint{
		Path:       "/{type}/{id}",
		PathParams: refParams(mt, id),
		Params:     url.Values{"append_to_response": {"credits,similar,videos"}},
	}
	if err := gateway.FetchJSON(ctx, c.gw, ep, &raw); err != nil {
		return nil, fmt.Errorf("details %s/%d: %w", mt, id, err)
	}
	return raw.details(mt), nil
}

// Person fetches a person with combined credits.
func (c *Catalog) Person(ctx context.Context, id int) (*Person, error) {
	var raw rawPerson
	ep := gateway.Endpoint{
		Path:       "/person/{id}",
		PathParams: map[string]string{"id": strconv.Itoa(id)},
		Params:     url.Values{"append_to_response": {"combined_credits"}},
	}
	if err := gateway.FetchJSON(ctx, c.gw, ep, &raw); err != nil {
		return nil, fmt.Errorf("person %d: %w", id, err)
	}
	return raw.person(), nil
}

// Providers fetches streaming availability per country.
func (c *Catalog) Providers(ctx context.Context, mt MediaType, id int) (Providers, error) {
	var raw rawProviders
	ep := gateway.Endpoint{
		Path:       "/{type}/{id}/watch/providers",
		PathParams: refParams(mt, id),
	}
	if err := gateway.FetchJSON(ctx, c.gw, ep, &raw); err != nil {
		return nil, fmt.Errorf("providers %s/%d: %w", mt, id, err)
	}
	if raw.Results == nil {
		return Providers{}, nil
	}
	return raw.Results, nil
}

func refParams(mt MediaType, id int) map[string]string {
	return map[string]string{"type": string(mt), "id": strconv.Itoa(id)}
}
