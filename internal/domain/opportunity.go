package domain

import "time"

// ProfitBreakdown is the full cost accounting for a hypothetical cross-venue
// trade. Money fields are rounded to 2 decimals, percentage fields to 3, so
// recomputing with identical inputs reproduces the stored values exactly.
type ProfitBreakdown struct {
	TradeSize    float64 `json:"trade_size"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	BuyCost      float64 `json:"buy_cost"`
	SellRevenue  float64 `json:"sell_revenue"`
	GrossProfit  float64 `json:"gross_profit"`
	BuyFee       float64 `json:"buy_fee"`
	SellFee      float64 `json:"sell_fee"`
	TotalFees    float64 `json:"total_fees"`
	GasCost      float64 `json:"gas_cost"`
	SlippageCost float64 `json:"slippage_cost"`
	TotalCosts   float64 `json:"total_costs"`
	NetProfit    float64 `json:"net_profit"`
	ProfitPct    float64 `json:"profit_pct"`
	NetProfitPct float64 `json:"net_profit_pct"`
	ROIPct       float64 `json:"roi_pct"`
}

// ArbitrageOpportunity is a candidate cross-venue trade at a specific size.
// The IsProfitable flag is true iff net profit meets the configured minimum
// USD threshold AND the gross profit percentage meets the configured minimum
// percentage threshold (both inclusive). Immutable once computed.
type ArbitrageOpportunity struct {
	ID           string    `json:"id"`
	TradeSize    float64   `json:"trade_size"`
	BuyVenue     string    `json:"buy_venue"`
	SellVenue    string    `json:"sell_venue"`
	BuyPrice     float64   `json:"buy_price"`
	SellPrice    float64   `json:"sell_price"`
	BuyCost      float64   `json:"buy_cost"`
	SellRevenue  float64   `json:"sell_revenue"`
	GrossProfit  float64   `json:"gross_profit"`
	GasCost      float64   `json:"gas_cost"`
	NetProfit    float64   `json:"net_profit"`
	ProfitPct    float64   `json:"profit_pct"`
	NetProfitPct float64   `json:"net_profit_pct"`
	IsProfitable bool      `json:"is_profitable"`
	Timestamp    time.Time `json:"timestamp"`
}

// OptimalSizeResult is the outcome of an exhaustive trade-size scan. Ties on
// net profit keep the first (smallest) size that reached the maximum.
type OptimalSizeResult struct {
	OptimalSize float64 `json:"optimal_size"`
	MaxProfit   float64 `json:"max_profit"`
	TestedSizes int     `json:"tested_sizes"`
}

// ArbitrageHistoryRow is a persisted projection of an ArbitrageOpportunity.
type ArbitrageHistoryRow struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	BuyVenue    string    `json:"buy_venue"`
	SellVenue   string    `json:"sell_venue"`
	BuyPrice    float64   `json:"buy_price"`
	SellPrice   float64   `json:"sell_price"`
	TradeSize   float64   `json:"trade_size"`
	GrossProfit float64   `json:"gross_profit"`
	NetProfit   float64   `json:"net_profit"`
	ProfitPct   float64   `json:"profit_pct"`
}
