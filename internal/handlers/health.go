package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Pinger is a dependency the extended health check probes
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// HealthCheck calls f
func (f PingerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker handles health check requests
type HealthChecker struct {
	checks  map[string]Pinger
	timeout time.Duration
}

const (
	checkHealthy       = "healthy"
	checkNotConfigured = "not configured"
)

// NewHealthChecker creates a new health checker. A nil pinger marks an optional
// dependency that is not configured; it is reported but never fails the check.
func NewHealthChecker(checks map[string]Pinger) *HealthChecker {
	return &HealthChecker{checks: checks, timeout: 5 * time.Second}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		for _, result := range response.Checks {
			if result != checkHealthy && result != checkNotConfigured {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		p := h.checks[name]
		if p == nil {
			results[name] = checkNotConfigured
			continue
		}
		if err := p.HealthCheck(ctx); err != nil {
			results[name] = "unhealthy: " + err.Error()
			continue
		}
		results[name] = checkHealthy
	}
	return results
}

// VersionInfo is served by the /version endpoint
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// VersionHandler serves build information
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, info)
	}
}
