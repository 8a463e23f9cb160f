// Package server exposes the browse service and the watchlist over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/streamvault/pkg/browse"
	"github.com/Sternrassler/streamvault/pkg/logging"
	"github.com/Sternrassler/streamvault/pkg/metrics"
	"github.com/Sternrassler/streamvault/pkg/watchlist"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options configures a Server.
type Options struct {
	// RequestTimeout bounds each API request (default 30s).
	RequestTimeout time.Duration

	// MaxPages caps the pages query parameter (default 20).
	MaxPages int

	// Region is the default country for streaming providers (default US).
	Region string
}

// Server is the HTTP API.
type Server struct {
	browse    *browse.Service
	watchlist *watchlist.Store
	opts      Options
	router    *mux.Router
	logger    zerolog.Logger
}

// New builds the API router.
func New(b *browse.Service, wl *watchlist.Store, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 20
	}
	if opts.Region == "" {
		opts.Region = "US"
	}

	s := &Server{
		browse:    b,
		watchlist: wl,
		opts:      opts,
		logger:    logging.NewLogger("server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, s.loggingMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.timeoutMiddleware)
	api.HandleFunc("/rows", s.handleRows).Methods(http.MethodGet)
	api.HandleFunc("/rows/{row}", s.handleRow).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", s.handleCategory).Methods(http.MethodGet)
	api.HandleFunc("/genres", s.handleGenres).Methods(http.MethodGet)
	api.HandleFunc("/genres/{id:[0-9]+}", s.handleGenre).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/person/{id:[0-9]+}", s.handlePerson).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", s.handleWatchlistList).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", s.handleWatchlistAdd).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/{id:[0-9]+}", s.handleWatchlistRemove).Methods(http.MethodDelete)
	api.HandleFunc("/{type:movie|tv}/{id:[0-9]+}", s.handleDetails).Methods(http.MethodGet)
	api.HandleFunc("/{type:movie|tv}/{id:[0-9]+}/providers", s.handleProviders).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
