package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler responds with a simple status check.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// ReadyHandler reports whether the platform backend answers. Redis is
// checked too when configured.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"backend": "ok"}
	status := http.StatusOK
	if err := s.Backend.HealthCheck(ctx); err != nil {
		checks["backend"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if s.Store != nil && s.Store.Client != nil {
		checks["redis"] = "ok"
		if err := s.Store.Client.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(checks)
}
