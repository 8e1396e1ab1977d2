package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexarb/internal/profit"
)

// ProfitHandler exposes the cost model directly for what-if queries.
type ProfitHandler struct {
	calc   *profit.Calculator
	venues VenueChecker
	logger *slog.Logger
}

// NewProfitHandler creates a ProfitHandler. venues may be nil; unknown venue
// names then fall through to the default fee rate.
func NewProfitHandler(calc *profit.Calculator, venues VenueChecker, logger *slog.Logger) *ProfitHandler {
	return &ProfitHandler{
		calc:   calc,
		venues: venues,
		logger: logger.With(slog.String("handler", "profit")),
	}
}

type calculateRequest struct {
	BuyVenue        string  `json:"buy_venue"`
	SellVenue       string  `json:"sell_venue"`
	BuyPrice        float64 `json:"buy_price"`
	SellPrice       float64 `json:"sell_price"`
	TradeSize       float64 `json:"trade_size"`
	IncludeSlippage *bool   `json:"include_slippage"`
}

// Calculate returns the full profit breakdown for the given trade. Slippage
// defaults to included.
// POST /api/profit/calculate
func (h *ProfitHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.BuyPrice <= 0 || req.SellPrice <= 0 || req.TradeSize <= 0 {
		writeError(w, http.StatusBadRequest, "buy_price, sell_price, and trade_size must be positive")
		return
	}
	if err := checkVenues(h.venues, req.BuyVenue, req.SellVenue); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	includeSlippage := true
	if req.IncludeSlippage != nil {
		includeSlippage = *req.IncludeSlippage
	}

	breakdown := h.calc.NetProfit(req.BuyPrice, req.SellPrice, req.TradeSize,
		req.BuyVenue, req.SellVenue, includeSlippage)
	writeJSON(w, http.StatusOK, breakdown)
}

type optimalSizeRequest struct {
	BuyVenue  string  `json:"buy_venue"`
	SellVenue string  `json:"sell_venue"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	MaxSize   float64 `json:"max_size"`
	Step      float64 `json:"step"`
}

// OptimalSize scans trade sizes and returns the most profitable one.
// POST /api/profit/optimal-size
func (h *ProfitHandler) OptimalSize(w http.ResponseWriter, r *http.Request) {
	var req optimalSizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.BuyPrice <= 0 || req.SellPrice <= 0 {
		writeError(w, http.StatusBadRequest, "buy_price and sell_price must be positive")
		return
	}
	if req.MaxSize <= 0 || req.Step <= 0 {
		writeError(w, http.StatusBadRequest, "max_size and step must be positive")
		return
	}
	if err := checkVenues(h.venues, req.BuyVenue, req.SellVenue); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.calc.OptimalSize(req.BuyPrice, req.SellPrice,
		req.BuyVenue, req.SellVenue, req.MaxSize, req.Step)
	writeJSON(w, http.StatusOK, result)
}
