package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks one dependency's liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorStatus reports whether the polling loop is live.
type MonitorStatus interface {
	Running() bool
}

// HealthHandler serves the health-check endpoint with per-component status.
type HealthHandler struct {
	components map[string]Pinger
	monitor    MonitorStatus
	logger     *slog.Logger
}

// NewHealthHandler creates a HealthHandler. components maps a name ("feed",
// "postgres", "redis") to its liveness check; nil entries are skipped.
func NewHealthHandler(components map[string]Pinger, monitor MonitorStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		components: components,
		monitor:    monitor,
		logger:     logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck pings every component. The overall status is "ok" only when
// all components answer; otherwise "degraded". The endpoint itself always
// returns 200 so orchestrators treat a degraded process as alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.components))
	for name, p := range h.components {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			h.logger.WarnContext(ctx, "health: component check failed",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		components[name] = "ok"
	}

	monitoring := false
	if h.monitor != nil {
		monitoring = h.monitor.Running()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"components": components,
		"monitoring": monitoring,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
