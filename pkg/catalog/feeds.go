package catalog

import (
	"net/url"
	"sort"
	"strconv"
)

// Feed is a named provider listing: a home row and, when Browsable,
// a paginated category page.
type Feed struct {
	ID        string
	Title     string
	Path      string
	Params    url.Values
	MediaType MediaType // "" for mixed listings that tag each result
	Browsable bool
}

var feeds = []Feed{
	{ID: "trending", Title: "Trending Now", Path: "/trending/all/week", Browsable: true},
	{ID: "originals", Title: "StreamVault Originals", Path: "/discover/tv", Params: url.Values{"with_networks": {"213"}}, MediaType: TV, Browsable: true},
	{ID: "top-rated", Title: "Top Rated Movies", Path: "/movie/top_rated", MediaType: Movie, Browsable: true},
	{ID: "action", Title: "Action Thrillers", Path: "/discover/movie", Params: genreParams(28), MediaType: Movie, Browsable: true},
	{ID: "comedy", Title: "Comedy Favorites", Path: "/discover/movie", Params: genreParams(35), MediaType: Movie, Browsable: true},
	{ID: "horror", Title: "Scary Movies", Path: "/discover/movie", Params: genreParams(27), MediaType: Movie, Browsable: true},
	{ID: "romance", Title: "Romance", Path: "/discover/movie", Params: genreParams(10749), MediaType: Movie},
	{ID: "documentaries", Title: "Documentaries", Path: "/discover/movie", Params: genreParams(99), MediaType: Movie},
}

// genres browsable from the home screen.
var genres = map[int]string{
	28:  "Action",
	16:  "Animation",
	35:  "Comedy",
	80:  "Crime",
	99:  "Documentary",
	18:  "Drama",
	27:  "Horror",
	878: "Sci-Fi",
	53:  "Thriller",
	37:  "Western",
}

func genreParams(id int) url.Values {
	return url.Values{"with_genres": {strconv.Itoa(id)}}
}

// Rows returns the home screen rows in display order.
func Rows() []Feed {
	out := make([]Feed, len(feeds))
	copy(out, feeds)
	return out
}

// Categories returns the feeds that have a paginated category page.
func Categories() []Feed {
	var out []Feed
	for _, f := range feeds {
		if f.Browsable {
			out = append(out, f)
		}
	}
	return out
}

// LookupRow finds a home row by id.
func LookupRow(id string) (Feed, bool) {
	for _, f := range feeds {
		if f.ID == id {
			return f, true
		}
	}
	return Feed{}, false
}

// LookupCategory finds a browsable category by id.
func LookupCategory(id string) (Feed, bool) {
	f, ok := LookupRow(id)
	if !ok || !f.Browsable {
		return Feed{}, false
	}
	return f, true
}

// GenreFeed returns the movie listing for a genre. Genres outside the
// home screen list are valid; their title is the numeric id.
func GenreFeed(id int) Feed {
	title, ok := genres[id]
	if !ok {
		title = "Genre " + strconv.Itoa(id)
	}
	return Feed{
		ID:        strconv.Itoa(id),
		Title:     title,
		Path:      "/discover/movie",
		Params:    genreParams(id),
		MediaType: Movie,
		Browsable: true,
	}
}

// Genres returns the home screen genres sorted by name.
func Genres() []Genre {
	out := make([]Genre, 0, len(genres))
	for id, name := range genres {
		out = append(out, Genre{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
