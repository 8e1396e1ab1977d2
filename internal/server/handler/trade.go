package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/simulator"
)

// TradeHandler serves the paper-trading endpoints.
type TradeHandler struct {
	sim    *simulator.Simulator
	venues VenueChecker
	blob   domain.BlobWriter
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler. venues may be nil to accept any
// venue name. blob may be nil when no object store is configured; export
// then reports 503.
func NewTradeHandler(sim *simulator.Simulator, venues VenueChecker, blob domain.BlobWriter, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		sim:    sim,
		venues: venues,
		blob:   blob,
		logger: logger.With(slog.String("handler", "trade")),
	}
}

type simulateRequest struct {
	BuyVenue  string  `json:"buy_venue"`
	SellVenue string  `json:"sell_venue"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	TradeSize float64 `json:"trade_size"`
}

// Simulate executes one paper trade with the full cost model.
// POST /api/trade/simulate
func (h *TradeHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := checkVenues(h.venues, req.BuyVenue, req.SellVenue); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.sim.Simulate(req.BuyVenue, req.SellVenue, req.BuyPrice, req.SellPrice, req.TradeSize)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTradeParams) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "trade: simulate failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Statistics summarizes all simulated trades.
// GET /api/trade/statistics
func (h *TradeHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.Statistics())
}

// History returns recent simulated trades in chronological order.
// GET /api/trade/history
func (h *TradeHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	trades := h.sim.Recent(limit)
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"count":  len(trades),
	})
}

// Export uploads the full trade history as a JSON object to blob storage and
// returns the object key.
// POST /api/trade/export
func (h *TradeHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.blob == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	data, err := h.sim.ExportJSON()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "trade: export render failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	key := fmt.Sprintf("exports/trades-%s.json", time.Now().UTC().Format("20060102T150405Z"))
	if err := h.blob.Put(r.Context(), key, data, "application/json"); err != nil {
		h.logger.ErrorContext(r.Context(), "trade: export upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":    key,
		"trades": h.sim.TradeCount(),
	})
}
