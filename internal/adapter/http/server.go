package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asesor-publico/noticias/internal/adapter/filestore"
	"github.com/asesor-publico/noticias/internal/domain"
	"github.com/asesor-publico/noticias/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LocalityStore is the catalog of served localities.
type LocalityStore interface {
	Lookup(id string) (domain.LocalityContext, error)
	IDs() []string
}

// ArtifactReader returns the latest published artifact of a locality.
type ArtifactReader interface {
	Read(localityID string) ([]byte, error)
}

// Server exposes the published reports, the static frontend, and health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	localities LocalityStore
	artifacts  ArtifactReader
	static     http.Handler
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Artifacts are served by name at the root
// (/noticias_<id>.json) next to the frontend assets in staticDir, so both
// share an origin. Only artifact names reach the output directory. An empty
// staticDir disables the frontend.
func NewServer(addr string, ready ReadinessChecker, localities LocalityStore, artifacts ArtifactReader, staticDir string, gatherer prometheus.Gatherer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		localities: localities,
		artifacts:  artifacts,
		metrics:    metrics,
		logger:     logger,
	}
	if staticDir != "" {
		s.static = http.FileServer(http.Dir(staticDir))
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /localidades", s.handleLocalities)
	mux.HandleFunc("GET /noticias/{id}", s.handleReport)
	mux.HandleFunc("GET /", s.handleStatic)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLocalities(w http.ResponseWriter, _ *http.Request) {
	type locality struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	ids := s.localities.IDs()
	out := make([]locality, 0, len(ids))
	for _, id := range ids {
		loc, err := s.localities.Lookup(id)
		if err != nil {
			continue
		}
		out = append(out, locality{ID: loc.ID, Name: loc.FullName()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r.PathValue("id"))
}

// handleStatic serves /noticias_<id>.json from the artifact reader and
// everything else from the frontend directory. Dot-files and dot-directories
// are never served.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	if id, ok := filestore.LocalityFromArtifact(name); ok && name == filestore.ArtifactName(id) {
		s.serveReport(w, id)
		return
	}
	if s.static == nil || hidden(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	s.static.ServeHTTP(w, r)
}

func (s *Server) serveReport(w http.ResponseWriter, id string) {
	if _, err := s.localities.Lookup(id); err != nil {
		s.metrics.ReportRequests.WithLabelValues("not_found").Inc()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	data, err := s.artifacts.Read(id)
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.ReportRequests.WithLabelValues("not_found").Inc()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report published yet"})
		return
	}
	if err != nil {
		s.metrics.ReportRequests.WithLabelValues("error").Inc()
		s.logger.Error("read artifact failed", "locality", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	s.metrics.ReportRequests.WithLabelValues("served").Inc()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client went away
}

func hidden(urlPath string) bool {
	for _, seg := range strings.Split(path.Clean("/"+urlPath), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
