// Package health serves liveness, readiness and status probes.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"dhruva/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Checker is a dependency the readiness probe pings.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type Handler struct {
	startTime   time.Time
	environment string
	timeout     time.Duration

	mu     sync.RWMutex
	checks []Checker
}

func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		timeout:     2 * time.Second,
	}
}

// Register adds checkers; nil entries are skipped so optional backends can
// be passed unconditionally.
func (h *Handler) RegisterCheck(checks ...Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range checks {
		if c != nil {
			h.checks = append(h.checks, c)
		}
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness returns 503 when any registered dependency is down.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := append([]Checker(nil), h.checks...)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
	for _, c := range checks {
		if err := c.Check(ctx); err != nil {
			resp.Checks[c.Name()] = "down: " + err.Error()
			resp.Status = "not_ready"
			continue
		}
		resp.Checks[c.Name()] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
