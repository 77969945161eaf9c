package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/medal-flow-etl/internal/adapter/memory"
	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DashboardProvider returns the latest rendered dashboard.
type DashboardProvider interface {
	Latest() (domain.Dashboard, error)
}

// Server exposes health, readiness, metrics, and chart HTTP endpoints.
type Server struct {
	httpServer *http.Server
	dashboards DashboardProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// the /api chart routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, dashboards DashboardProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboards: dashboards,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/{chart}", s.handleChart)

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

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	d, ok := s.latest(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chart")
	d, ok := s.latest(w)
	if !ok {
		return
	}
	doc, found := d.Chart(name)
	if !found {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown chart " + name})
		return
	}
	w.Header().Set("X-Render-Id", d.RenderID)
	sharedobs.WriteJSON(w, http.StatusOK, doc)
}

// latest writes the error response itself when no dashboard is available.
func (s *Server) latest(w http.ResponseWriter) (domain.Dashboard, bool) {
	d, err := s.dashboards.Latest()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, memory.ErrNoSnapshot) {
			status = http.StatusServiceUnavailable
		} else {
			s.logger.Error("read dashboard failed", "error", err)
		}
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return domain.Dashboard{}, false
	}
	return d, true
}
