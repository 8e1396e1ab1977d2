package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// HistoryStore implements domain.HistoryStore on PostgreSQL. Writes are
// append-only; nothing updates or deletes history rows.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a HistoryStore backed by the given pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// RecordPrices writes one price_history row per venue in the snapshot using a
// single batch. An empty snapshot is a no-op.
func (s *HistoryStore) RecordPrices(ctx context.Context, snapshot domain.PriceSnapshot) error {
	if len(snapshot) == 0 {
		return nil
	}

	const query = `
		INSERT INTO price_history (timestamp, venue, price, base_reserve, quote_reserve)
		VALUES ($1, $2, $3, $4, $5)`

	batch := &pgx.Batch{}
	for _, p := range snapshot {
		batch.Queue(query, p.Timestamp, p.Venue, p.Price, p.BaseReserve, p.QuoteReserve)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(snapshot); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: record prices item %d: %w", i, err)
		}
	}
	return nil
}

// RecordOpportunity appends one arbitrage_history row.
func (s *HistoryStore) RecordOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	const query = `
		INSERT INTO arbitrage_history (
			opportunity_id, timestamp, buy_venue, sell_venue,
			buy_price, sell_price, trade_size,
			gross_profit, net_profit, profit_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.Timestamp, opp.BuyVenue, opp.SellVenue,
		opp.BuyPrice, opp.SellPrice, opp.TradeSize,
		opp.GrossProfit, opp.NetProfit, opp.ProfitPct,
	)
	if err != nil {
		return fmt.Errorf("postgres: record opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// RecentPrices returns rows within the last windowHours newest first, capped
// at limit. An empty venue matches all venues.
func (s *HistoryStore) RecentPrices(ctx context.Context, venue string, windowHours, limit int) ([]domain.PriceHistoryRow, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, timestamp, venue, price, base_reserve, quote_reserve
		FROM price_history
		WHERE timestamp >= NOW() - make_interval(hours => $1)`
	args := []any{windowHours}

	if venue != "" {
		query += " AND venue = $2"
		args = append(args, venue)
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent prices: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceHistoryRow
	for rows.Next() {
		var r domain.PriceHistoryRow
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Venue, &r.Price, &r.BaseReserve, &r.QuoteReserve); err != nil {
			return nil, fmt.Errorf("postgres: scan price row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: recent prices rows: %w", err)
	}
	return out, nil
}

// PriceStats aggregates a venue's prices over the window. The current price
// is the newest row in the window. ErrNotFound signals an empty window.
func (s *HistoryStore) PriceStats(ctx context.Context, venue string, windowHours int) (*domain.PriceStats, error) {
	if windowHours <= 0 {
		windowHours = 24
	}

	const query = `
		SELECT
			COUNT(*),
			COALESCE(MAX(price), 0),
			COALESCE(MIN(price), 0),
			COALESCE(AVG(price), 0)
		FROM price_history
		WHERE venue = $1
		  AND timestamp >= NOW() - make_interval(hours => $2)`

	stats := &domain.PriceStats{Venue: venue}
	err := s.pool.QueryRow(ctx, query, venue, windowHours).
		Scan(&stats.DataPoints, &stats.High, &stats.Low, &stats.Average)
	if err != nil {
		return nil, fmt.Errorf("postgres: price stats: %w", err)
	}
	if stats.DataPoints == 0 {
		return nil, fmt.Errorf("postgres: price stats for %s: %w", venue, domain.ErrNotFound)
	}

	const currentQuery = `
		SELECT price FROM price_history
		WHERE venue = $1
		  AND timestamp >= NOW() - make_interval(hours => $2)
		ORDER BY timestamp DESC
		LIMIT 1`
	if err := s.pool.QueryRow(ctx, currentQuery, venue, windowHours).Scan(&stats.Current); err != nil {
		return nil, fmt.Errorf("postgres: current price: %w", err)
	}
	return stats, nil
}

// RecentOpportunities returns the newest arbitrage rows, newest first.
func (s *HistoryStore) RecentOpportunities(ctx context.Context, limit int) ([]domain.ArbitrageHistoryRow, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, timestamp, buy_venue, sell_venue, buy_price, sell_price,
		       trade_size, gross_profit, net_profit, profit_pct
		FROM arbitrage_history
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.ArbitrageHistoryRow
	for rows.Next() {
		var r domain.ArbitrageHistoryRow
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.BuyVenue, &r.SellVenue,
			&r.BuyPrice, &r.SellPrice, &r.TradeSize,
			&r.GrossProfit, &r.NetProfit, &r.ProfitPct); err != nil {
			return nil, fmt.Errorf("postgres: scan arbitrage row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: recent opportunities rows: %w", err)
	}
	return out, nil
}
