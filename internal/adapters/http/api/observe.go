package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// HandleHealth serves the Prometheus registry on GET /healthz.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

// HandleStats reports service counters plus the API limits on GET /stats.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := s.deps.GetStats()
	stats["maxUploadBytes"] = s.maxUploadBytes
	stats["uptimeSeconds"] = int64(s.now().Sub(s.started) / time.Second)
	writeJSON(w, http.StatusOK, stats)
}
