// Package domain contains the core types shared by the price aggregation,
// arbitrage detection, and persistence layers. All monetary values are USD
// quote-denominated float64s that have already been rounded by the component
// that produced them (2 decimals for money, 3 for percentages).
package domain

import "time"

// VenuePrice is a single venue's pool-derived price at one poll. It is
// produced fresh on every poll and never mutated.
type VenuePrice struct {
	Venue        string    `json:"venue"`
	Price        float64   `json:"price"`
	BaseReserve  float64   `json:"base_reserve"`
	QuoteReserve float64   `json:"quote_reserve"`
	Timestamp    time.Time `json:"timestamp"`
}

// PriceSnapshot maps venue name to its latest price. A snapshot may be
// partial: venues that failed to respond are simply absent.
type PriceSnapshot map[string]VenuePrice

// VenueQuote pairs a venue name with its price for comparison output.
type VenueQuote struct {
	Venue string  `json:"venue"`
	Price float64 `json:"price"`
}

// PriceComparison is the per-poll high/low view across venues. It is derived
// from a snapshot with at least two venues and recomputed every poll.
type PriceComparison struct {
	Prices    PriceSnapshot `json:"prices"`
	Highest   VenueQuote    `json:"highest"`
	Lowest    VenueQuote    `json:"lowest"`
	Spread    float64       `json:"spread"`
	SpreadPct float64       `json:"spread_pct"`
	Timestamp time.Time     `json:"timestamp"`
}

// PriceHistoryRow is a persisted projection of a VenuePrice. The ID and
// timestamp are assigned by the store; rows are written once and never
// updated.
type PriceHistoryRow struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Venue        string    `json:"venue"`
	Price        float64   `json:"price"`
	BaseReserve  float64   `json:"base_reserve"`
	QuoteReserve float64   `json:"quote_reserve"`
}

// PriceStats summarizes a venue's price over a time window.
type PriceStats struct {
	Venue      string  `json:"venue"`
	Current    float64 `json:"current"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Average    float64 `json:"average"`
	DataPoints int     `json:"data_points"`
}
