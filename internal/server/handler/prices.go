package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/pricing"
)

// PricesHandler serves live price endpoints off the aggregator.
type PricesHandler struct {
	agg    *pricing.Aggregator
	logger *slog.Logger
}

// NewPricesHandler creates a PricesHandler.
func NewPricesHandler(agg *pricing.Aggregator, logger *slog.Logger) *PricesHandler {
	return &PricesHandler{
		agg:    agg,
		logger: logger.With(slog.String("handler", "prices")),
	}
}

// Current polls all venues and returns whatever answered. With zero venues
// responding the poll degraded completely, so the endpoint reports 503.
// GET /api/prices/current
func (h *PricesHandler) Current(w http.ResponseWriter, r *http.Request) {
	snapshot := h.agg.Snapshot(r.Context())
	if len(snapshot) == 0 {
		writeError(w, http.StatusServiceUnavailable, "no venue prices available")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prices":    snapshot,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Comparison polls all venues and derives the high/low spread view. Fewer
// than two responding venues means no comparison is possible.
// GET /api/prices/comparison
func (h *PricesHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	cmp := h.agg.Compare(h.agg.Snapshot(r.Context()))
	if cmp == nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrInsufficientVenues.Error())
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
