package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rwatch/datagen/internal/loadgen"
	"github.com/rwatch/datagen/internal/storage"
)

// HTTPServer serves diagnostics: Prometheus metrics, statistics and a
// liveness probe. It never exposes stored entries.
type HTTPServer struct {
	store    storage.Store
	pipeline *loadgen.Pipeline
	gatherer prometheus.Gatherer
}

// NewHTTPServer creates a diagnostics server. pipeline is nil in
// interactive mode.
func NewHTTPServer(store storage.Store, pipeline *loadgen.Pipeline, gatherer prometheus.Gatherer) *HTTPServer {
	return &HTTPServer{
		store:    store,
		pipeline: pipeline,
		gatherer: gatherer,
	}
}

// Routes returns the HTTP handler with all routes configured.
func (s *HTTPServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.withLogging(mux)
}

// withLogging wraps a handler with request logging.
func (s *HTTPServer) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Mode     string                 `json:"mode"`
	Buffer   storage.Stats          `json:"buffer"`
	Pipeline *loadgen.PipelineStats `json:"pipeline,omitempty"`
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Mode:   "interactive",
		Buffer: s.store.Stats(),
	}
	if s.pipeline != nil {
		stats := s.pipeline.Stats()
		resp.Mode = "random"
		resp.Pipeline = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
