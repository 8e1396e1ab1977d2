package domain

import "context"

// HistoryStore is the append-only persistence surface for price samples and
// arbitrage events, plus the windowed read side used by the query path.
// Implementations must make initialization idempotent: creating structures
// that already exist is a no-op, never an error.
type HistoryStore interface {
	// RecordPrices writes one row per venue present in the snapshot. An
	// empty snapshot is a no-op, not an error.
	RecordPrices(ctx context.Context, snapshot PriceSnapshot) error

	// RecordOpportunity appends a single arbitrage event row.
	RecordOpportunity(ctx context.Context, opp ArbitrageOpportunity) error

	// RecentPrices returns rows within the last windowHours, newest first,
	// capped at limit. An empty venue matches all venues.
	RecentPrices(ctx context.Context, venue string, windowHours int, limit int) ([]PriceHistoryRow, error)

	// PriceStats aggregates a venue's prices over the window. It returns
	// ErrNotFound when the window holds no rows for the venue.
	PriceStats(ctx context.Context, venue string, windowHours int) (*PriceStats, error)
}

// SignalBus is the process-external publish/subscribe channel that carries
// monitor events to push subscribers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter stores an object in blob storage under the given key.
type BlobWriter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
