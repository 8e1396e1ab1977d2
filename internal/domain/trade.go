package domain

import "time"

// Trade status labels recorded by the simulator.
const (
	TradeStatusSuccess = "SUCCESS"
	TradeStatusFailed  = "FAILED"
)

// TradeRecord is one simulated trade execution. Records are created once by
// the simulator, appended to its in-process history, and never mutated or
// deleted during the process lifetime.
type TradeRecord struct {
	TradeID      string          `json:"trade_id"`
	Timestamp    time.Time       `json:"timestamp"`
	BuyVenue     string          `json:"buy_venue"`
	SellVenue    string          `json:"sell_venue"`
	BuyPrice     float64         `json:"buy_price"`
	SellPrice    float64         `json:"sell_price"`
	TradeSize    float64         `json:"trade_size"`
	Breakdown    ProfitBreakdown `json:"profit_breakdown"`
	IsSuccessful bool            `json:"is_successful"`
	Status       string          `json:"status"`
}

// TradeSummary is a compact reference to a single trade, used for the
// best/worst entries in TradeStats.
type TradeSummary struct {
	TradeID   string    `json:"trade_id"`
	Timestamp time.Time `json:"timestamp"`
	NetProfit float64   `json:"net_profit"`
	TradeSize float64   `json:"trade_size"`
}

// TradeStats are the simulator's running statistics. All fields are zero
// valued (and Best/Worst nil) when no trades have been simulated.
type TradeStats struct {
	TotalTrades      int           `json:"total_trades"`
	SuccessfulTrades int           `json:"successful_trades"`
	FailedTrades     int           `json:"failed_trades"`
	SuccessRate      float64       `json:"success_rate"`
	TotalProfit      float64       `json:"total_profit"`
	AvgProfitPerWin  float64       `json:"avg_profit_per_trade"`
	Best             *TradeSummary `json:"best_trade,omitempty"`
	Worst            *TradeSummary `json:"worst_trade,omitempty"`
}
