package catalog

// Provider payload shapes. Movies carry title/release_date, shows carry
// name/first_air_date; media_type is present only on mixed listings.

type rawItem struct {
	ID            int     `json:"id"`
	MediaType     string  `json:"media_type"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	PosterPath    *string `json:"poster_path"`
	BackdropPath  *string `json:"backdrop_path"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	GenreIDs      []int   `json:"genre_ids"`
	Popularity    float64 `json:"popularity"`
}

// mediaType resolves the discriminant: the explicit media_type field,
// then the listing's known type, then the presence of name over title.
// ok is false for entries that are neither movies nor shows.
func (r rawItem) mediaType(known MediaType) (MediaType, bool) {
	switch r.MediaType {
	case string(Movie):
		return Movie, true
	case string(TV):
		return TV, true
	case "":
	default:
		return "", false
	}
	if known != "" {
		return known, true
	}
	if r.Title == "" && r.Name != "" {
		return TV, true
	}
	return Movie, true
}

func (r rawItem) item(known MediaType) (Item, bool) {
	mt, ok := r.mediaType(known)
	if !ok {
		return Item{}, false
	}

	it := Item{
		ID:          r.ID,
		MediaType:   mt,
		Overview:    r.Overview,
		VoteAverage: r.VoteAverage,
		VoteCount:   r.VoteCount,
		GenreIDs:    r.GenreIDs,
		Popularity:  r.Popularity,
	}
	if r.PosterPath != nil {
		it.PosterPath = *r.PosterPath
	}
	if r.BackdropPath != nil {
		it.BackdropPath = *r.BackdropPath
	}

	if mt == TV {
		it.Title = firstNonEmpty(r.Name, r.Title)
		it.OriginalTitle = firstNonEmpty(r.OriginalName, r.OriginalTitle)
		it.ReleaseDate = firstNonEmpty(r.FirstAirDate, r.ReleaseDate)
	} else {
		it.Title = firstNonEmpty(r.Title, r.Name)
		it.OriginalTitle = firstNonEmpty(r.OriginalTitle, r.OriginalName)
		it.ReleaseDate = firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
	}
	return it, true
}

func items(raw []rawItem, known MediaType) []Item {
	out := make([]Item, 0, len(raw))
	for _, r := range raw {
		if it, ok := r.item(known); ok {
			out = append(out, it)
		}
	}
	return out
}

type rawPage struct {
	Page         int       `json:"page"`
	Results      []rawItem `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

func (r rawPage) page(known MediaType) Page {
	return Page{
		Page:         r.Page,
		Results:      items(r.Results, known),
		TotalPages:   r.TotalPages,
		TotalResults: r.TotalResults,
	}
}

type rawDetails struct {
	rawItem
	Runtime         int     `json:"runtime"`
	EpisodeRunTime  []int   `json:"episode_run_time"`
	Status          string  `json:"status"`
	NumberOfSeasons int     `json:"number_of_seasons"`
	Genres          []Genre `json:"genres"`
	Credits         struct {
		Cast []struct {
			ID          int     `json:"id"`
			Name        string  `json:"name"`
			Character   string  `json:"character"`
			ProfilePath *string `json:"profile_path"`
		} `json:"cast"`
		Crew []CrewMember `json:"crew"`
	} `json:"credits"`
	Similar rawPage `json:"similar"`
	Videos  struct {
		Results []Video `json:"results"`
	} `json:"videos"`
}

func (r rawDetails) details(mt MediaType) *Details {
	base, _ := r.rawItem.item(mt)
	base.MediaType = mt

	d := &Details{
		Item:            base,
		Runtime:         r.Runtime,
		EpisodeRunTime:  r.EpisodeRunTime,
		Status:          r.Status,
		NumberOfSeasons: r.NumberOfSeasons,
		Genres:          r.Genres,
		Similar:         items(r.Similar.Results, mt),
		Videos:          r.Videos.Results,
	}
	for _, c := range r.Credits.Cast {
		member := CastMember{ID: c.ID, Name: c.Name, Character: c.Character}
		if c.ProfilePath != nil {
			member.ProfilePath = *c.ProfilePath
		}
		d.Credits.Cast = append(d.Credits.Cast, member)
	}
	d.Credits.Crew = r.Credits.Crew
	return d
}

type rawPerson struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Biography          string  `json:"biography"`
	Birthday           *string `json:"birthday"`
	PlaceOfBirth       *string `json:"place_of_birth"`
	ProfilePath        *string `json:"profile_path"`
	KnownForDepartment string  `json:"known_for_department"`
	CombinedCredits    struct {
		Cast []rawItem `json:"cast"`
	} `json:"combined_credits"`
}

func (r rawPerson) person() *Person {
	return &Person{
		ID:                 r.ID,
		Name:               r.Name,
		Biography:          r.Biography,
		Birthday:           deref(r.Birthday),
		PlaceOfBirth:       deref(r.PlaceOfBirth),
		ProfilePath:        deref(r.ProfilePath),
		KnownForDepartment: r.KnownForDepartment,
		Credits:            items(r.CombinedCredits.Cast, ""),
	}
}

type rawProviders struct {
	ID      int       `json:"id"`
	Results Providers `json:"results"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
