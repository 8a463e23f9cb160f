package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/streamvault/internal/testutil"
	"github.com/Sternrassler/streamvault/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*Catalog, *testutil.MockTMDB) {
	t.Helper()
	mock := testutil.NewMockTMDB()
	t.Cleanup(mock.Close)

	cfg := gateway.DefaultConfig("test-key")
	cfg.BaseURL = mock.URL()
	client, err := gateway.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return New(client), mock
}

func TestCategoryPage_Movies(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetPagedList("/discover/movie", "movie", 3, 2)

	page, err := cat.CategoryPage(context.Background(), "action", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext())
	require.Len(t, page.Results, 2)
	assert.Equal(t, Ref{MediaType: Movie, ID: 3}, page.Results[0].Ref())
	assert.Equal(t, "Movie 3", page.Results[0].Title)
	assert.Equal(t, "2020", page.Results[0].Year())

	q := mock.LastRequest().URL.Query()
	assert.Equal(t, "28", q.Get("with_genres"))
	assert.Equal(t, "2", q.Get("page"))
}

func TestCategoryPage_OriginalsAreShows(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetPagedList("/discover/tv", "tv", 1, 1)

	page, err := cat.CategoryPage(context.Background(), "originals", 1)
	require.NoError(t, err)

	require.Len(t, page.Results, 1)
	assert.Equal(t, TV, page.Results[0].MediaType)
	assert.Equal(t, "Show 1", page.Results[0].Title)
	assert.False(t, page.HasNext())
	assert.Equal(t, "213", mock.LastRequest().URL.Query().Get("with_networks"))
}

func TestCategoryPage_Errors(t *testing.T) {
	cat, _ := newTestCatalog(t)

	_, err := cat.CategoryPage(context.Background(), "romance", 1)
	assert.ErrorIs(t, err, ErrUnknownCategory, "romance is a row, not a category")

	_, err = cat.CategoryPage(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = cat.CategoryPage(context.Background(), "action", 0)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestTrending_TagsEachResult(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetResponse("/trending/all/week", testutil.NewOKResponse(`{
		"page": 1, "total_pages": 1, "total_results": 3,
		"results": [
			{"id": 1, "media_type": "movie", "title": "Heat", "release_date": "1995-12-15", "poster_path": null},
			{"id": 1, "media_type": "tv", "name": "Lost", "first_air_date": "2004-09-22"},
			{"id": 9, "media_type": "person", "name": "Someone"}
		]}`))

	items, err := cat.Row(context.Background(), "trending")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, Ref{MediaType: Movie, ID: 1}, items[0].Ref())
	assert.Equal(t, "", items[0].PosterPath)
	assert.Equal(t, Ref{MediaType: TV, ID: 1}, items[1].Ref())
	assert.Equal(t, "Lost", items[1].Title)
	assert.Equal(t, "2004-09-22", items[1].ReleaseDate)
	assert.NotEqual(t, items[0].Ref(), items[1].Ref())
}

func TestGenrePage(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetPagedList("/discover/movie", "movie", 5, 1)

	page, err := cat.GenrePage(context.Background(), 878, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, "878", mock.LastRequest().URL.Query().Get("with_genres"))
	assert.Equal(t, "Sci-Fi", GenreFeed(878).Title)
	assert.Equal(t, "Genre 12", GenreFeed(12).Title)
}

func TestSearch_DropsPeople(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetResponse("/search/multi", testutil.NewOKResponse(`{
		"page": 1, "total_pages": 1, "total_results": 3,
		"results": [
			{"id": 268, "media_type": "movie", "title": "Batman"},
			{"id": 3110, "media_type": "person", "name": "Batman Person"},
			{"id": 2098, "media_type": "tv", "name": "Batman: The Animated Series"}
		]}`))

	items, err := cat.Search(context.Background(), "batman")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, Movie, items[0].MediaType)
	assert.Equal(t, TV, items[1].MediaType)

	q := mock.LastRequest().URL.Query()
	assert.Equal(t, "batman", q.Get("query"))
	assert.Equal(t, "false", q.Get("include_adult"))
}

func TestDetails(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetResponse("/tv/1399", testutil.NewOKResponse(`{
		"id": 1399, "name": "Game of Thrones", "first_air_date": "2011-04-17",
		"episode_run_time": [60], "number_of_seasons": 8, "status": "Ended",
		"genres": [{"id": 18, "name": "Drama"}],
		"credits": {"cast": [{"id": 22970, "name": "Peter Dinklage", "character": "Tyrion", "profile_path": null}], "crew": []},
		"similar": {"page": 1, "total_pages": 1, "results": [{"id": 1402, "name": "The Walking Dead"}]},
		"videos": {"results": [
			{"id": "a", "key": "teaser", "site": "YouTube", "type": "Teaser"},
			{"id": "b", "key": "vimeo", "site": "Vimeo", "type": "Trailer"},
			{"id": "c", "key": "KPLWWIOCOOQ", "site": "YouTube", "type": "Trailer"}
		]}}`))

	d, err := cat.Details(context.Background(), TV, 1399)
	require.NoError(t, err)

	assert.Equal(t, Ref{MediaType: TV, ID: 1399}, d.Ref())
	assert.Equal(t, "Game of Thrones", d.Title)
	assert.Equal(t, 60, d.RunningTime())
	assert.Equal(t, 8, d.NumberOfSeasons)
	require.Len(t, d.Credits.Cast, 1)
	assert.Equal(t, "Tyrion", d.Credits.Cast[0].Character)
	require.Len(t, d.Similar, 1)
	assert.Equal(t, TV, d.Similar[0].MediaType)

	trailer, ok := d.Trailer()
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/embed/KPLWWIOCOOQ", trailer.YouTubeURL())

	assert.Equal(t, "credits,similar,videos", mock.LastRequest().URL.Query().Get("append_to_response"))
}

func TestDetails_NotFound(t *testing.T) {
	cat, _ := newTestCatalog(t)

	_, err := cat.Details(context.Background(), Movie, 404404)
	require.Error(t, err)
	assert.True(t, gateway.IsNotFound(err))
}

func TestPerson(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetResponse("/person/287", testutil.NewOKResponse(`{
		"id": 287, "name": "Brad Pitt", "birthday": "1963-12-18", "place_of_birth": null,
		"known_for_department": "Acting",
		"combined_credits": {"cast": [
			{"id": 550, "media_type": "movie", "title": "Fight Club", "popularity": 40},
			{"id": 1, "media_type": "tv", "name": "Friends", "popularity": 90},
			{"id": 2, "media_type": "movie", "title": "Troy", "popularity": 60}
		]}}`))

	p, err := cat.Person(context.Background(), 287)
	require.NoError(t, err)

	assert.Equal(t, "Brad Pitt", p.Name)
	assert.Equal(t, "", p.PlaceOfBirth)
	age, ok := p.Age(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 62, age)

	top := p.KnownFor(2)
	require.Len(t, top, 2)
	assert.Equal(t, "Friends", top[0].Title)
	assert.Equal(t, "Troy", top[1].Title)
	assert.Len(t, p.Credits, 3, "KnownFor must not reorder the person's credits")
	assert.Equal(t, "Fight Club", p.Credits[0].Title)
}

func TestProviders(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetResponse("/movie/550/watch/providers", testutil.NewOKResponse(`{
		"id": 550,
		"results": {
			"GB": {"link": "https://example.org/gb", "flatrate": [{"provider_id": 8, "provider_name": "Netflix"}]},
			"DE": {"link": "https://example.org/de", "buy": [{"provider_id": 2, "provider_name": "Apple TV"}]}
		}}`))

	providers, err := cat.Providers(context.Background(), Movie, 550)
	require.NoError(t, err)

	region, code, ok := providers.ForRegion("US", "GB")
	require.True(t, ok)
	assert.Equal(t, "GB", code)
	require.Len(t, region.Flatrate, 1)
	assert.Equal(t, "Netflix", region.Flatrate[0].Name)

	_, _, ok = providers.ForRegion("FR")
	assert.False(t, ok)
}

func TestFeedPage_WrapsGatewayErrors(t *testing.T) {
	cat, mock := newTestCatalog(t)
	mock.SetResponse("/movie/top_rated", testutil.NewServerErrorResponse())

	_, err := cat.CategoryPage(context.Background(), "top-rated", 1)
	require.Error(t, err)

	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, gateway.KindProvider, gwErr.Kind)
	assert.Equal(t, 500, gwErr.StatusCode)
}

func TestFeeds(t *testing.T) {
	assert.Len(t, Rows(), 8)
	assert.Len(t, Categories(), 6)
	assert.Len(t, Genres(), 10)

	_, ok := LookupRow("documentaries")
	assert.True(t, ok)
	_, ok = LookupCategory("documentaries")
	assert.False(t, ok)
}

func TestImageURLs(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", PosterURL("/abc.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/abc.jpg", OriginalURL("/abc.jpg"))
	assert.Equal(t, "", PosterURL(""))
}

func TestParseMediaType(t *testing.T) {
	mt, err := ParseMediaType("tv")
	require.NoError(t, err)
	assert.Equal(t, TV, mt)

	_, err = ParseMediaType("person")
	assert.Error(t, err)
}
