// Package arbitrage finds cross-venue price gaps worth acting on.
package arbitrage

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/profit"
)

// Config holds the detector's qualification thresholds and the trade sizes it
// evaluates when the caller does not supply any.
type Config struct {
	// MinProfitUSD is the minimum net profit in USD. Inclusive: an
	// opportunity exactly at the threshold qualifies.
	MinProfitUSD float64
	// MinProfitPct is the minimum gross profit as a percentage of buy
	// cost. Inclusive as well.
	MinProfitPct float64
	// TradeSizes are the default sizes to evaluate, in base units.
	TradeSizes []float64
}

// Detector evaluates price comparisons against the profit model and keeps
// only opportunities that clear both thresholds.
//
// Detection uses the coarse cost path (fees and gas, no slippage). Slippage
// is a per-execution estimate; applying it here would hide gaps that a
// well-routed trade could still capture. The simulator applies the full
// model before anything is recorded as an executed trade.
type Detector struct {
	calc   *profit.Calculator
	cfg    Config
	logger *slog.Logger
}

// NewDetector creates a Detector using calc for profit math.
func NewDetector(calc *profit.Calculator, cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		calc:   calc,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "detector")),
	}
}

// TradeSizes returns the configured default sizes.
func (d *Detector) TradeSizes() []float64 {
	return d.cfg.TradeSizes
}

// Detect evaluates one opportunity per trade size: buy at the comparison's
// lowest venue, sell at its highest. Sizes are evaluated in the order given;
// pass nil to use the configured defaults. An explicitly empty size list
// evaluates nothing. A nil comparison, a degenerate one where both extremes
// are the same venue, and a round with no qualifying sizes all yield an
// empty result, never an error.
func (d *Detector) Detect(cmp *domain.PriceComparison, sizes []float64) []domain.ArbitrageOpportunity {
	if cmp == nil || cmp.Highest.Venue == cmp.Lowest.Venue {
		return nil
	}
	if sizes == nil {
		sizes = d.cfg.TradeSizes
	}

	buyVenue, sellVenue := cmp.Lowest.Venue, cmp.Highest.Venue
	buyPrice, sellPrice := cmp.Lowest.Price, cmp.Highest.Price

	var opps []domain.ArbitrageOpportunity
	for _, size := range sizes {
		if size <= 0 {
			continue
		}
		b := d.calc.NetProfit(buyPrice, sellPrice, size, buyVenue, sellVenue, false)
		if b.NetProfit < d.cfg.MinProfitUSD || b.ProfitPct < d.cfg.MinProfitPct {
			continue
		}

		opp := domain.ArbitrageOpportunity{
			ID:           uuid.New().String(),
			TradeSize:    size,
			BuyVenue:     buyVenue,
			SellVenue:    sellVenue,
			BuyPrice:     buyPrice,
			SellPrice:    sellPrice,
			BuyCost:      b.BuyCost,
			SellRevenue:  b.SellRevenue,
			GrossProfit:  b.GrossProfit,
			GasCost:      b.GasCost,
			NetProfit:    b.NetProfit,
			ProfitPct:    b.ProfitPct,
			NetProfitPct: b.NetProfitPct,
			IsProfitable: true,
			Timestamp:    time.Now().UTC(),
		}
		opps = append(opps, opp)

		d.logger.Info("detector: opportunity found",
			slog.String("id", opp.ID),
			slog.Float64("size", size),
			slog.String("buy_venue", buyVenue),
			slog.String("sell_venue", sellVenue),
			slog.Float64("net_profit", b.NetProfit),
			slog.Float64("net_profit_pct", b.NetProfitPct),
		)
	}
	return opps
}
