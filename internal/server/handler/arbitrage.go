package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexarb/internal/arbitrage"
	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/pricing"
)

// OpportunityReader reads persisted arbitrage events.
type OpportunityReader interface {
	RecentOpportunities(ctx context.Context, limit int) ([]domain.ArbitrageHistoryRow, error)
}

// ArbHandler serves on-demand detection and the persisted opportunity feed.
type ArbHandler struct {
	agg      *pricing.Aggregator
	detector *arbitrage.Detector
	reader   OpportunityReader
	logger   *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(agg *pricing.Aggregator, detector *arbitrage.Detector, reader OpportunityReader, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{
		agg:      agg,
		detector: detector,
		reader:   reader,
		logger:   logger.With(slog.String("handler", "arbitrage")),
	}
}

type detectRequest struct {
	TradeSizes []float64 `json:"trade_sizes"`
}

// Detect runs one detection round against live prices. Omitted trade sizes
// fall back to the configured defaults. An empty opportunity list is a
// normal 200 response, including when fewer than two venues answered and no
// comparison exists at all.
// POST /api/arbitrage/detect
func (h *ArbHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	cmp := h.agg.Compare(h.agg.Snapshot(r.Context()))
	opps := h.detector.Detect(cmp, req.TradeSizes)
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comparison":    cmp,
		"opportunities": opps,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// Recent returns the newest persisted opportunities.
// GET /api/arbitrage/recent
func (h *ArbHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	rows, err := h.reader.RecentOpportunities(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "arbitrage: recent query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if rows == nil {
		rows = []domain.ArbitrageHistoryRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": rows,
		"count":         len(rows),
	})
}
