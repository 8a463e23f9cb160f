package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/gateway"
	"github.com/Sternrassler/streamvault/pkg/pagination"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
	"github.com/gorilla/mux"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type rowResponse struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Items []catalog.Item `json:"items"`
	Error string         `json:"error,omitempty"`
}

type listResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Pages       int            `json:"pages"`
	TotalPages  int            `json:"total_pages"`
	HasNextPage bool           `json:"has_next_page"`
	Items       []catalog.Item `json:"items"`
	Error       string         `json:"error,omitempty"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Enabled bool           `json:"enabled"`
	Results []catalog.Item `json:"results"`
}

type providersResponse struct {
	Region    string                  `json:"region"`
	Available bool                    `json:"available"`
	Providers catalog.RegionProviders `json:"providers"`
}

type watchlistResponse struct {
	Items []watchlist.Entry `json:"items"`
	Count int               `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, catalog.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnknownCategory), gateway.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case gateway.KindOf(err) != "":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, mux.Vars(r)[name])
	}
	return v, nil
}

func (s *Server) pagesParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("pages")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: pages must be a positive integer", errBadRequest)
	}
	return min(n, s.opts.MaxPages), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	rows := s.browse.Rows(r.Context())
	out := make([]rowResponse, 0, len(rows))
	for _, row := range rows {
		resp := rowResponse{ID: row.Feed.ID, Title: row.Feed.Title, Items: row.Items}
		if row.Err != nil {
			resp.Error = row.Err.Error()
		}
		if resp.Items == nil {
			resp.Items = []catalog.Item{}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["row"]
	items, err := s.browse.Row(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	feed, _ := catalog.LookupRow(id)
	writeJSON(w, http.StatusOK, rowResponse{ID: feed.ID, Title: feed.Title, Items: items})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	pages, err := s.pagesParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.browse.Category(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	feed, _ := catalog.LookupCategory(id)
	s.writeList(w, r, feed, list, pages)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Genres())
}

func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pages, err := s.pagesParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeList(w, r, catalog.GenreFeed(id), s.browse.Genre(id), pages)
}

// writeList loads pages sequentially. A failed page after the first
// returns the pages loaded so far with the error attached.
func (s *Server) writeList(w http.ResponseWriter, r *http.Request, feed catalog.Feed, list *pagination.Infinite, pages int) {
	err := list.FetchPages(r.Context(), pages)
	state := list.State()
	if err != nil && len(state.Pages) == 0 {
		s.fail(w, r, err)
		return
	}

	resp := listResponse{
		ID:          feed.ID,
		Title:       feed.Title,
		Pages:       len(state.Pages),
		HasNextPage: state.HasNextPage,
		Items:       state.Items(),
	}
	if n := len(state.Pages); n > 0 {
		resp.TotalPages = state.Pages[n-1].TotalPages
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	items, e := s.browse.Search(r.Context(), q)
	if e.Err != nil {
		s.fail(w, r, e.Err)
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Enabled: !e.IsIdle(), Results: items})
}

func (s *Server) parseRef(r *http.Request) (catalog.MediaType, int, error) {
	mt, err := catalog.ParseMediaType(mux.Vars(r)["type"])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	id, err := pathInt(r, "id")
	if err != nil {
		return "", 0, err
	}
	return mt, id, nil
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	mt, id, err := s.parseRef(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.browse.Details(r.Context(), mt, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", mt, id))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	mt, id, err := s.parseRef(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.browse.Providers(r.Context(), mt, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", mt, id))
		return
	}

	region := strings.ToUpper(r.URL.Query().Get("region"))
	if region == "" {
		region = s.opts.Region
	}
	rp, _, ok := p.ForRegion(region)
	writeJSON(w, http.StatusOK, providersResponse{Region: region, Available: ok, Providers: rp})
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.browse.Person(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("person %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleWatchlistList(w http.ResponseWriter, r *http.Request) {
	items := s.watchlist.Filter(r.URL.Query().Get("q"))
	if items == nil {
		items = []watchlist.Entry{}
	}
	writeJSON(w, http.StatusOK, watchlistResponse{Items: items, Count: len(items)})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var item catalog.Item
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&item); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if item.ID < 1 {
		s.fail(w, r, fmt.Errorf("%w: id is required", errBadRequest))
		return
	}
	if _, err := catalog.ParseMediaType(string(item.MediaType)); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	added, err := s.watchlist.Add(r.Context(), item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	removed, err := s.watchlist.Remove(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("id %d not in watchlist", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
