package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oddsradar/surebet/internal/ingest"
	"github.com/oddsradar/surebet/internal/notify"
	"github.com/oddsradar/surebet/internal/oddsfeed"
	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides the HTTP API, websocket fan-out endpoint, metrics and
// health checks.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Port        string
	Logger      *zap.Logger
	Health      *healthprobe.Checker
	Coordinator *ingest.Coordinator
	Surebets    *surebet.Service
	Store       storage.Store
	Hub         *notify.Hub
	Fetcher     *oddsfeed.Fetcher
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.Health.Health())
	r.Get("/ready", cfg.Health.Ready())

	api := newAPIHandler(cfg.Coordinator, cfg.Surebets, cfg.Store, cfg.Fetcher, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/data/ingest", api.handleIngest)
		r.Post("/data/fetch", api.handleFetch)
		r.Get("/surebets", api.handleSurebets)
		r.Get("/events", api.handleEvents)
		r.Get("/settings", api.handleGetSettings)
		r.Put("/settings", api.handlePutSettings)
		r.Get("/scraper-targets", api.handleListTargets)
		r.Post("/scraper-targets", api.handleCreateTarget)
		r.Put("/scraper-targets/{id}", api.handleUpdateTarget)
		r.Delete("/scraper-targets/{id}", api.handleDeleteTarget)
	})

	if cfg.Hub != nil {
		r.Get("/ws/surebets", cfg.Hub.ServeWS)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server: server,
		logger: cfg.Logger,
	}
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
