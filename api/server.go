// Package api provides the HTTP REST API for stockrec.
//
// It exposes user portfolios, sector and risk recommendations, reference
// lookup and search, per-symbol headlines, snapshot management, Prometheus
// metrics and a WebSocket stream of snapshot events.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seenimoa/stockrec/internal/config"
	"github.com/seenimoa/stockrec/internal/logging"
	"github.com/seenimoa/stockrec/internal/recommend"
	"github.com/seenimoa/stockrec/internal/search"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
)

// SnapshotStore is the part of *store.Holder the API uses.
type SnapshotStore interface {
	Current() (*store.Snapshot, error)
	Reload(ctx context.Context) (*store.Snapshot, error)
	Paths() store.Paths
}

// Searcher looks up reference stocks by free text.
type Searcher interface {
	Search(q string, limit int) ([]search.Hit, error)
}

// NewsSource returns recent headlines for a symbol.
type NewsSource interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]models.Headline, error)
}

// Deps are the components a Server routes to. News and Hub are optional.
type Deps struct {
	Store   SnapshotStore
	Engine  *recommend.Engine
	Search  Searcher
	News    NewsSource
	Hub     *WSHub
	Logger  zerolog.Logger
	Version string
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	store   SnapshotStore
	engine  *recommend.Engine
	search  Searcher
	news    NewsSource
	wsHub   *WSHub
	logger  zerolog.Logger
	version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	hub := deps.Hub
	if hub == nil {
		hub = NewWSHub(deps.Logger)
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		cfg:     cfg,
		store:   deps.Store,
		engine:  deps.Engine,
		search:  deps.Search,
		news:    deps.News,
		wsHub:   hub,
		logger:  deps.Logger.With().Str("component", "api").Logger(),
		version: version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub the server registers clients with.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:         s.cfg.API.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpSrv.Addr).Msg("HTTP server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) String() string { return "http-api" }

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket is outside the timeout group; the connection is long-lived.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			if timeout := s.cfg.API.RequestTimeout(); timeout > 0 {
				r.Use(middleware.Timeout(timeout))
			}

			r.Get("/health", s.handleHealth)
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/data-files", s.handleGetDataFiles)

			// Users
			r.Get("/users", s.handleUsers)
			r.Get("/users/{id}/portfolio", s.handlePortfolio)
			r.Get("/users/{id}/recommendations/sector", s.handleRecommend(models.KindSector))
			r.Get("/users/{id}/recommendations/risk", s.handleRecommend(models.KindRisk))

			// Stocks
			r.Get("/stocks/search", s.handleSearch)
			r.Get("/stocks/{symbol}", s.handleStock)
			r.Get("/stocks/{symbol}/news", s.handleNews)

			// Snapshot
			r.Get("/snapshot", s.handleSnapshot)
			r.Post("/snapshot/reload", s.handleReload)
		})
	})

	return r
}

// APIResponse is the standard envelope for every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.Logger()
		logger.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
