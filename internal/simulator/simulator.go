// Package simulator executes paper trades against the full cost model and
// keeps an in-process history of every execution.
package simulator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/profit"
)

// Simulator runs paper trades. The history is append-only for the process
// lifetime; all methods are safe for concurrent use.
type Simulator struct {
	calc   *profit.Calculator
	logger *slog.Logger

	mu     sync.Mutex
	trades []domain.TradeRecord
	seq    int
}

// New creates an empty Simulator on the given cost model.
func New(calc *profit.Calculator, logger *slog.Logger) *Simulator {
	return &Simulator{
		calc:   calc,
		logger: logger.With(slog.String("component", "simulator")),
	}
}

// Simulate executes one paper trade with the full cost model, slippage
// included, and appends it to the history. A trade succeeds only when its net
// profit is strictly positive; breaking even counts as a failure. Trade IDs
// are sequential within the process.
func (s *Simulator) Simulate(buyVenue, sellVenue string, buyPrice, sellPrice, size float64) (domain.TradeRecord, error) {
	if buyPrice <= 0 || sellPrice <= 0 || size <= 0 {
		return domain.TradeRecord{}, fmt.Errorf("simulator: %w: buy=%v sell=%v size=%v",
			domain.ErrInvalidTradeParams, buyPrice, sellPrice, size)
	}

	breakdown := s.calc.NetProfit(buyPrice, sellPrice, size, buyVenue, sellVenue, true)

	status := domain.TradeStatusFailed
	successful := breakdown.NetProfit > 0
	if successful {
		status = domain.TradeStatusSuccess
	}

	s.mu.Lock()
	s.seq++
	record := domain.TradeRecord{
		TradeID:      fmt.Sprintf("TRADE_%d", s.seq),
		Timestamp:    time.Now().UTC(),
		BuyVenue:     buyVenue,
		SellVenue:    sellVenue,
		BuyPrice:     buyPrice,
		SellPrice:    sellPrice,
		TradeSize:    size,
		Breakdown:    breakdown,
		IsSuccessful: successful,
		Status:       status,
	}
	s.trades = append(s.trades, record)
	s.mu.Unlock()

	s.logger.Info("simulator: trade executed",
		slog.String("trade_id", record.TradeID),
		slog.String("status", status),
		slog.Float64("net_profit", breakdown.NetProfit),
	)
	return record, nil
}

// Statistics summarizes the full history. With no trades it returns the zero
// stats rather than an error. Ties for best or worst keep the earlier trade.
func (s *Simulator) Statistics() domain.TradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.TradeStats{TotalTrades: len(s.trades)}
	if len(s.trades) == 0 {
		return stats
	}

	var totalProfit, winProfit float64
	var best, worst *domain.TradeSummary
	for i := range s.trades {
		tr := &s.trades[i]
		net := tr.Breakdown.NetProfit
		totalProfit += net

		if tr.IsSuccessful {
			stats.SuccessfulTrades++
			winProfit += net
		} else {
			stats.FailedTrades++
		}

		if best == nil || net > best.NetProfit {
			best = summarize(tr)
		}
		if worst == nil || net < worst.NetProfit {
			worst = summarize(tr)
		}
	}

	stats.SuccessRate = round2(float64(stats.SuccessfulTrades) / float64(stats.TotalTrades) * 100)
	stats.TotalProfit = round2(totalProfit)
	if stats.SuccessfulTrades > 0 {
		stats.AvgProfitPerWin = round2(winProfit / float64(stats.SuccessfulTrades))
	}
	stats.Best = best
	stats.Worst = worst
	return stats
}

// Recent returns up to limit most recent trades in chronological order.
// limit <= 0 returns the whole history. The result is a copy.
func (s *Simulator) Recent(limit int) []domain.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if limit > 0 && len(s.trades) > limit {
		start = len(s.trades) - limit
	}
	out := make([]domain.TradeRecord, len(s.trades)-start)
	copy(out, s.trades[start:])
	return out
}

// TradeCount returns the number of trades simulated so far.
func (s *Simulator) TradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

// export is the serialized shape of a history export.
type export struct {
	ExportedAt time.Time            `json:"exported_at"`
	Stats      domain.TradeStats    `json:"stats"`
	Trades     []domain.TradeRecord `json:"trades"`
}

// ExportJSON renders the full history with its statistics as indented JSON,
// suitable for archiving.
func (s *Simulator) ExportJSON() ([]byte, error) {
	snapshot := export{
		ExportedAt: time.Now().UTC(),
		Stats:      s.Statistics(),
		Trades:     s.Recent(0),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("simulator: export: %w", err)
	}
	return data, nil
}

func summarize(tr *domain.TradeRecord) *domain.TradeSummary {
	return &domain.TradeSummary{
		TradeID:   tr.TradeID,
		Timestamp: tr.Timestamp,
		NetProfit: tr.Breakdown.NetProfit,
		TradeSize: tr.TradeSize,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
