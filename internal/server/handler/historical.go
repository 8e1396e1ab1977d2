package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// HistoricalHandler serves the persisted price history.
type HistoricalHandler struct {
	store  domain.HistoryStore
	logger *slog.Logger
}

// NewHistoricalHandler creates a HistoricalHandler.
func NewHistoricalHandler(store domain.HistoryStore, logger *slog.Logger) *HistoricalHandler {
	return &HistoricalHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "historical")),
	}
}

// Prices returns recent price rows, newest first. Query parameters: venue
// (empty for all), hours (default 24), limit (default 100).
// GET /api/historical/prices
func (h *HistoricalHandler) Prices(w http.ResponseWriter, r *http.Request) {
	venue := r.URL.Query().Get("venue")
	hours := queryInt(r, "hours", 24)
	limit := queryInt(r, "limit", 100)

	rows, err := h.store.RecentPrices(r.Context(), venue, hours, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "historical: prices query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if rows == nil {
		rows = []domain.PriceHistoryRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prices": rows,
		"count":  len(rows),
	})
}

// Stats aggregates a venue's prices over a window. The venue parameter is
// required; a window with no data is a 404.
// GET /api/historical/stats
func (h *HistoricalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	venue := r.URL.Query().Get("venue")
	if venue == "" {
		writeError(w, http.StatusBadRequest, "venue parameter is required")
		return
	}
	hours := queryInt(r, "hours", 24)

	stats, err := h.store.PriceStats(r.Context(), venue, hours)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no data for venue "+venue)
			return
		}
		h.logger.ErrorContext(r.Context(), "historical: stats query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
