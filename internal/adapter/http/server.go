// Package http serves the climate risk dashboard: the HTML page, its JSON
// API, server-rendered charts, and the health and metrics endpoints.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/dashboard"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

// SnapshotStore provides the artifact contents to handlers.
type SnapshotStore interface {
	Snapshot() (*dashboard.Snapshot, error)
	Path() string
	CheckReadiness(ctx context.Context) error
}

// Options configures optional server behaviour.
type Options struct {
	// Geocoder adds coordinates to map points. Nil disables geocoding.
	Geocoder domain.Geocoder
	// TopK is the default leaderboard size.
	TopK int
}

// Server exposes the dashboard, its API, and health, readiness and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	store      SnapshotStore
	geocoder   domain.Geocoder
	topK       int
	pages      *template.Template
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server for the dashboard routes.
func NewServer(addr string, store SnapshotStore, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:    store,
		geocoder: opts.Geocoder,
		topK:     opts.TopK,
		pages:    template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
		metrics:  metrics,
		logger:   logger,
	}
	if s.topK <= 0 {
		s.topK = domain.DefaultTopK
	}

	mux.Handle("GET /{$}", s.instrument("index", s.handleIndex))
	mux.Handle("GET /api/years", s.instrument("years", s.handleYears))
	mux.Handle("GET /api/overview", s.instrument("overview", s.handleOverview))
	mux.Handle("GET /api/map", s.instrument("map", s.handleMap))
	mux.Handle("GET /api/trend", s.instrument("trend", s.handleTrend))
	mux.Handle("GET /api/leaderboard", s.instrument("leaderboard", s.handleLeaderboard))
	mux.Handle("GET /charts/trend.svg", s.instrument("trend_chart", s.handleTrendChart))
	mux.Handle("GET /charts/leaderboard.svg", s.instrument("leaderboard_chart", s.handleLeaderboardChart))
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(store))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// snapshot loads the artifact for an API handler. When it fails the error
// response has been written and ok is false.
func (s *Server) snapshot(w http.ResponseWriter) (*dashboard.Snapshot, bool) {
	snap, err := s.store.Snapshot()
	if err == nil {
		return snap, true
	}
	if errors.Is(err, domain.ErrArtifactMissing) {
		writeError(w, http.StatusServiceUnavailable, domain.ArtifactMissingMessage(s.store.Path()))
		return nil, false
	}
	s.logger.Error("artifact unavailable", "path", s.store.Path(), "error", err)
	writeError(w, http.StatusInternalServerError, "processed data could not be read: "+err.Error())
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
