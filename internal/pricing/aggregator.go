// Package pricing aggregates per-venue pool prices into snapshots and
// high/low comparisons.
package pricing

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// Source supplies the current price for one venue.
type Source interface {
	Venue() string
	Fetch(ctx context.Context) (domain.VenuePrice, error)
}

// Aggregator polls all configured venues and derives price comparisons.
// Source order is the configured venue order and decides max/min ties.
type Aggregator struct {
	sources []Source
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given sources. The slice
// order is preserved and used for deterministic tie-breaking.
func NewAggregator(sources []Source, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		logger:  logger.With(slog.String("component", "aggregator")),
	}
}

// Venues returns the venue names in configured order.
func (a *Aggregator) Venues() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Venue()
	}
	return names
}

// Snapshot polls every venue concurrently and returns whatever succeeded.
// A failing venue is logged and excluded rather than failing the snapshot;
// a partial result with at least one venue is still useful to callers.
func (a *Aggregator) Snapshot(ctx context.Context) domain.PriceSnapshot {
	snapshot := make(domain.PriceSnapshot, len(a.sources))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, src := range a.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			price, err := src.Fetch(ctx)
			if err != nil {
				a.logger.WarnContext(ctx, "aggregator: venue poll failed",
					slog.String("venue", src.Venue()),
					slog.String("error", err.Error()),
				)
				return
			}

			mu.Lock()
			snapshot[src.Venue()] = price
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return snapshot
}

// Compare derives the high/low view from a snapshot. It returns nil when
// fewer than two venues are present; callers treat that as "no comparison
// available", not as an error. Ties on price resolve to the venue that
// appears first in configured order.
func (a *Aggregator) Compare(snapshot domain.PriceSnapshot) *domain.PriceComparison {
	if len(snapshot) < 2 {
		return nil
	}

	var (
		highest domain.VenueQuote
		lowest  domain.VenueQuote
		found   bool
	)
	for _, src := range a.sources {
		price, ok := snapshot[src.Venue()]
		if !ok {
			continue
		}
		quote := domain.VenueQuote{Venue: src.Venue(), Price: price.Price}
		if !found {
			highest, lowest = quote, quote
			found = true
			continue
		}
		if quote.Price > highest.Price {
			highest = quote
		}
		if quote.Price < lowest.Price {
			lowest = quote
		}
	}

	spread := highest.Price - lowest.Price
	spreadPct := 0.0
	if lowest.Price > 0 {
		spreadPct = spread / lowest.Price * 100
	}

	return &domain.PriceComparison{
		Prices:    snapshot,
		Highest:   highest,
		Lowest:    lowest,
		Spread:    round(spread, 2),
		SpreadPct: round(spreadPct, 3),
		Timestamp: time.Now().UTC(),
	}
}

// round rounds x to the given number of decimal places, half away from zero.
func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
