package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/service"
)

// MonitorHandler controls the polling loop over REST.
type MonitorHandler struct {
	monitor *service.MonitorService
	logger  *slog.Logger
}

// NewMonitorHandler creates a MonitorHandler.
func NewMonitorHandler(monitor *service.MonitorService, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor: monitor,
		logger:  logger.With(slog.String("handler", "monitor")),
	}
}

type startRequest struct {
	// IntervalSeconds overrides the configured polling interval; zero keeps
	// the default.
	IntervalSeconds float64 `json:"interval_seconds"`
}

// Start launches the loop. Starting a live loop is a conflict. The body is
// optional.
// POST /api/monitor/start
func (h *MonitorHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.IntervalSeconds < 0 {
			writeError(w, http.StatusBadRequest, "interval_seconds must not be negative")
			return
		}
	}

	interval := time.Duration(req.IntervalSeconds * float64(time.Second))
	if err := h.monitor.Start(interval); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "monitoring is already running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Stop halts the loop. Stopping a stopped loop is a conflict.
// POST /api/monitor/stop
func (h *MonitorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Stop(); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			writeError(w, http.StatusConflict, "monitoring is not running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Status reports the loop's current state.
// GET /api/monitor/status
func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Status())
}
