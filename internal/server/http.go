package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/eventsvc/internal/logsink"
	"github.com/alfredjeanlab/eventsvc/internal/metrics"
)

// maxBodyBytes bounds the size of a create request body.
const maxBodyBytes = 1 << 20

// Handler returns an http.Handler with all routes and middleware registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/stream", s.handleEventStream)
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = metrics.HTTPMiddleware(mux)
	h = Recovery(h)
	h = RequestLogging(h)
	return RequestID(s.logger)(h)
}

// handleHealth handles GET /health. It always answers 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health(r.Context())

	s.observe(r.Context(), logsink.NewRecord(logsink.TypeHealthCheck).With("data", status))
	writeJSON(w, http.StatusOK, status)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
