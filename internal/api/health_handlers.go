package api

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides health and readiness check endpoints for probes.
type HealthHandlers struct {
	dbChecker HealthChecker
}

// NewHealthHandlers creates a new health check handler. The database checker
// is optional; the in-memory store has nothing to probe.
func NewHealthHandlers(dbChecker HealthChecker) *HealthHandlers {
	return &HealthHandlers{dbChecker: dbChecker}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// Returns 200 if the application is running and can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Checks:    map[string]string{"process": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, r.Context(), http.StatusOK, resp)
}

// Ready handles GET /ready (readiness probe).
// Returns 200 when all configured dependencies respond, 503 otherwise.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK
	overall := "ok"

	if h.dbChecker != nil {
		if err := h.dbChecker.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
			overall = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}

	resp := HealthResponse{
		Status:    overall,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, r.Context(), status, resp)
}
