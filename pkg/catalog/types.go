package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// MediaType discriminates the two kinds of catalog items.
type MediaType string

const (
	Movie MediaType = "movie"
	TV    MediaType = "tv"
)

// ParseMediaType accepts "movie" or "tv".
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case Movie, TV:
		return MediaType(s), nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// Ref identifies an item. Provider ids are only unique per media type.
type Ref struct {
	MediaType MediaType `json:"media_type"`
	ID        int       `json:"id"`
}

func (r Ref) String() string {
	return string(r.MediaType) + "/" + strconv.Itoa(r.ID)
}

// Item is a movie or TV show. MediaType is set once when the provider
// payload is decoded and never inferred afterwards.
type Item struct {
	ID            int       `json:"id"`
	MediaType     MediaType `json:"media_type"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title,omitempty"`
	Overview      string    `json:"overview,omitempty"`
	PosterPath    string    `json:"poster_path,omitempty"`
	BackdropPath  string    `json:"backdrop_path,omitempty"`
	VoteAverage   float64   `json:"vote_average"`
	VoteCount     int       `json:"vote_count,omitempty"`
	ReleaseDate   string    `json:"release_date,omitempty"`
	GenreIDs      []int     `json:"genre_ids,omitempty"`
	Popularity    float64   `json:"popularity,omitempty"`
}

// Ref returns the item's identity.
func (i Item) Ref() Ref {
	return Ref{MediaType: i.MediaType, ID: i.ID}
}

// Year returns the release year, or "" when unknown.
func (i Item) Year() string {
	if len(i.ReleaseDate) >= 4 {
		return i.ReleaseDate[:4]
	}
	return ""
}

// Page is one fetched batch of a paginated listing.
type Page struct {
	Page         int    `json:"page"`
	Results      []Item `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// HasNext reports whether the provider has more pages after this one.
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type CrewMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// YouTubeURL returns the embed URL for YouTube videos.
func (v Video) YouTubeURL() string {
	if v.Site != "YouTube" || v.Key == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + v.Key
}

// Details is the full record for one movie or show.
type Details struct {
	Item
	Runtime         int     `json:"runtime,omitempty"`
	EpisodeRunTime  []int   `json:"episode_run_time,omitempty"`
	Status          string  `json:"status,omitempty"`
	NumberOfSeasons int     `json:"number_of_seasons,omitempty"`
	Genres          []Genre `json:"genres,omitempty"`
	Credits         Credits `json:"credits"`
	Similar         []Item  `json:"similar,omitempty"`
	Videos          []Video `json:"videos,omitempty"`
}

// Trailer returns the first YouTube trailer.
func (d *Details) Trailer() (Video, bool) {
	for _, v := range d.Videos {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			return v, true
		}
	}
	return Video{}, false
}

// RunningTime returns the movie runtime or the first episode run time
// in minutes, 0 when unknown.
func (d *Details) RunningTime() int {
	if d.Runtime > 0 {
		return d.Runtime
	}
	if len(d.EpisodeRunTime) > 0 {
		return d.EpisodeRunTime[0]
	}
	return 0
}

// Person is an actor or crew member with their combined credits.
type Person struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Biography          string `json:"biography,omitempty"`
	Birthday           string `json:"birthday,omitempty"`
	PlaceOfBirth       string `json:"place_of_birth,omitempty"`
	ProfilePath        string `json:"profile_path,omitempty"`
	KnownForDepartment string `json:"known_for_department,omitempty"`
	Credits            []Item `json:"credits"`
}

// KnownFor returns up to n credits ordered by popularity, most popular first.
func (p *Person) KnownFor(n int) []Item {
	items := make([]Item, len(p.Credits))
	copy(items, p.Credits)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Age returns the age in whole calendar years at now.
func (p *Person) Age(now time.Time) (int, bool) {
	born, err := time.Parse("2006-01-02", p.Birthday)
	if err != nil {
		return 0, false
	}
	return now.Year() - born.Year(), true
}

type Provider struct {
	ID              int    `json:"provider_id"`
	Name            string `json:"provider_name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority"`
}

// RegionProviders lists where a title is available in one country.
type RegionProviders struct {
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// Providers maps ISO 3166-1 country codes to availability.
type Providers map[string]RegionProviders

// ForRegion returns the first listed region present.
func (p Providers) ForRegion(regions ...string) (RegionProviders, string, bool) {
	for _, region := range regions {
		if rp, ok := p[region]; ok {
			return rp, region, true
		}
	}
	return RegionProviders{}, "", false
}
