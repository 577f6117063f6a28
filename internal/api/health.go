package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	respond "github.com/confera/matching-service/internal/api/respond"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// global health flag (1 = healthy, 0 = unhealthy)
var healthyFlag atomic.Int32

// serviceIsHealthy is injected at startup once dependency probes are wired.
var serviceIsHealthy func() bool = func() bool { return healthyFlag.Load() == 1 }

// BindServiceHealth allows the bootstrap to inject the health function.
func BindServiceHealth(f func() bool) { serviceIsHealthy = f }

// StartHealthMonitor probes the wired dependencies on an interval and keeps
// the health flag current. Nil pingers are ignored. Runs until ctx is done.
func StartHealthMonitor(ctx context.Context, probes map[string]Pinger, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		for name, p := range probes {
			if p == nil {
				continue
			}
			if err := p.HealthPing(pctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("health probe failed")
				healthyFlag.Store(0)
				return
			}
		}
		healthyFlag.Store(1)
	}

	go func() {
		probe()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probe()
			}
		}
	}()
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if serviceIsHealthy() {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	respond.WriteJSON(w, http.StatusOK, response)
}

// Pinger probes one dependency.
type Pinger interface {
	HealthPing(ctx context.Context) error
}

// DeepHealthHandler probes named dependencies on demand.
type DeepHealthHandler struct {
	probes map[string]Pinger
}

// NewDeepHealthHandler builds the deep probe handler. Nil pingers are
// skipped so optional dependencies (vector index) do not fail the check.
func NewDeepHealthHandler(probes map[string]Pinger) *DeepHealthHandler {
	return &DeepHealthHandler{probes: probes}
}

// CheckDeep handles GET /api/health/deep
// Returns 503 when any wired dependency fails its probe.
func (h *DeepHealthHandler) CheckDeep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.probes))
	code := http.StatusOK
	for name, p := range h.probes {
		if p == nil {
			results[name] = "skipped"
			continue
		}
		if err := p.HealthPing(ctx); err != nil {
			results[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	status := "healthy"
	if code != http.StatusOK {
		status = "unhealthy"
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":       status,
		"dependencies": results,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}
