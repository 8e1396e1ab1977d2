package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

type fakeAggregator struct {
	mu    sync.Mutex
	snaps []domain.PriceSnapshot
	calls int
}

func (f *fakeAggregator) Venues() []string { return []string{"uniswap", "sushiswap"} }

func (f *fakeAggregator) Snapshot(ctx context.Context) domain.PriceSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.snaps) == 0 {
		return domain.PriceSnapshot{}
	}
	snap := f.snaps[0]
	if len(f.snaps) > 1 {
		f.snaps = f.snaps[1:]
	}
	return snap
}

func (f *fakeAggregator) Compare(snapshot domain.PriceSnapshot) *domain.PriceComparison {
	if len(snapshot) < 2 {
		return nil
	}
	return &domain.PriceComparison{
		Prices:    snapshot,
		Highest:   domain.VenueQuote{Venue: "sushiswap", Price: snapshot["sushiswap"].Price},
		Lowest:    domain.VenueQuote{Venue: "uniswap", Price: snapshot["uniswap"].Price},
		Timestamp: time.Now().UTC(),
	}
}

func (f *fakeAggregator) snapshotCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFinder struct {
	opps []domain.ArbitrageOpportunity
}

func (f *fakeFinder) Detect(cmp *domain.PriceComparison, sizes []float64) []domain.ArbitrageOpportunity {
	return f.opps
}

type fakeStore struct {
	mu         sync.Mutex
	priceErr   error
	prices     int
	recorded   []domain.ArbitrageOpportunity
	recordErrs int
}

func (f *fakeStore) RecordPrices(ctx context.Context, snapshot domain.PriceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.priceErr != nil {
		f.recordErrs++
		return f.priceErr
	}
	f.prices++
	return nil
}

func (f *fakeStore) RecordOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, opp)
	return nil
}

func (f *fakeStore) RecentPrices(ctx context.Context, venue string, windowHours, limit int) ([]domain.PriceHistoryRow, error) {
	return nil, nil
}

func (f *fakeStore) PriceStats(ctx context.Context, venue string, windowHours int) (*domain.PriceStats, error) {
	return nil, domain.ErrNotFound
}

type fakeBus struct {
	mu       sync.Mutex
	events   map[string]int
	payloads map[string][][]byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		events:   make(map[string]int),
		payloads: make(map[string][][]byte),
	}
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[channel]++
	f.payloads[channel] = append(f.payloads[channel], payload)
	return nil
}

func (f *fakeBus) first(channel string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads[channel]) == 0 {
		return nil
	}
	return f.payloads[channel][0]
}

func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (f *fakeBus) count(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[channel]
}

func twoVenueSnapshot() domain.PriceSnapshot {
	now := time.Now().UTC()
	return domain.PriceSnapshot{
		"uniswap":   {Venue: "uniswap", Price: 100, Timestamp: now},
		"sushiswap": {Venue: "sushiswap", Price: 110, Timestamp: now},
	}
}

func newTestMonitor(agg *fakeAggregator, finder *fakeFinder, store *fakeStore, bus *fakeBus) *MonitorService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMonitorService(agg, finder, store, bus, nil, 10*time.Millisecond, logger)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestMonitorStartStop(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	store := &fakeStore{}
	bus := newFakeBus()
	mon := newTestMonitor(agg, &fakeFinder{}, store, bus)

	require.NoError(t, mon.Start(0))
	assert.True(t, mon.Running())

	waitFor(t, func() bool { return bus.count(ChannelPrices) >= 2 })

	require.NoError(t, mon.Stop())
	assert.False(t, mon.Running())

	// No more iterations after Stop returns.
	calls := agg.snapshotCalls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, agg.snapshotCalls())
}

func TestMonitorDoubleStart(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	mon := newTestMonitor(agg, &fakeFinder{}, &fakeStore{}, newFakeBus())

	require.NoError(t, mon.Start(0))
	defer func() { _ = mon.Stop() }()

	assert.ErrorIs(t, mon.Start(0), domain.ErrAlreadyRunning)
}

func TestMonitorStopWhenNotRunning(t *testing.T) {
	mon := newTestMonitor(&fakeAggregator{}, &fakeFinder{}, &fakeStore{}, newFakeBus())
	assert.ErrorIs(t, mon.Stop(), domain.ErrNotRunning)
}

func TestMonitorRestart(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	mon := newTestMonitor(agg, &fakeFinder{}, &fakeStore{}, newFakeBus())

	require.NoError(t, mon.Start(0))
	require.NoError(t, mon.Stop())
	require.NoError(t, mon.Start(0))
	assert.True(t, mon.Running())
	require.NoError(t, mon.Stop())
}

func TestMonitorPublishesOpportunities(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	finder := &fakeFinder{opps: []domain.ArbitrageOpportunity{
		{ID: "abc", BuyVenue: "uniswap", SellVenue: "sushiswap", NetProfit: 16.85},
	}}
	store := &fakeStore{}
	bus := newFakeBus()
	mon := newTestMonitor(agg, finder, store, bus)

	require.NoError(t, mon.Start(0))
	waitFor(t, func() bool { return bus.count(ChannelArb) >= 1 })
	require.NoError(t, mon.Stop())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.NotEmpty(t, store.recorded)
	assert.Equal(t, "abc", store.recorded[0].ID)
}

func TestMonitorContinuesAfterStoreFailure(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	store := &fakeStore{priceErr: errors.New("db down")}
	bus := newFakeBus()
	mon := newTestMonitor(agg, &fakeFinder{}, store, bus)

	require.NoError(t, mon.Start(0))

	// The loop keeps polling and publishing despite every write failing,
	// and each failure lands on the errors channel.
	waitFor(t, func() bool {
		return bus.count(ChannelErrors) >= 2 && bus.count(ChannelPrices) >= 2
	})
	require.NoError(t, mon.Stop())
}

func TestMonitorReportsEmptySnapshot(t *testing.T) {
	agg := &fakeAggregator{} // no snapshots configured, always empty
	bus := newFakeBus()
	mon := newTestMonitor(agg, &fakeFinder{}, &fakeStore{}, bus)

	require.NoError(t, mon.Start(0))
	waitFor(t, func() bool { return bus.count(ChannelErrors) >= 1 })
	require.NoError(t, mon.Stop())

	// Nothing to compare, so no price events go out.
	assert.Zero(t, bus.count(ChannelPrices))
}

func TestMonitorStatus(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	mon := newTestMonitor(agg, &fakeFinder{}, &fakeStore{}, newFakeBus())

	st := mon.Status()
	assert.False(t, st.Running)
	assert.Zero(t, st.Iterations)
	assert.Equal(t, []string{"uniswap", "sushiswap"}, st.Venues)

	require.NoError(t, mon.Start(0))
	waitFor(t, func() bool { return mon.Status().Iterations >= 1 })
	st = mon.Status()
	assert.True(t, st.Running)
	assert.False(t, st.StartedAt.IsZero())
	require.NoError(t, mon.Stop())
}

func TestMonitorStartIntervalOverride(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	mon := newTestMonitor(agg, &fakeFinder{}, &fakeStore{}, newFakeBus())

	require.NoError(t, mon.Start(25*time.Millisecond))
	defer func() { _ = mon.Stop() }()

	assert.Equal(t, int64(25), mon.Status().IntervalMS)
}

func TestMonitorBatchesAlertPerIteration(t *testing.T) {
	agg := &fakeAggregator{snaps: []domain.PriceSnapshot{twoVenueSnapshot()}}
	finder := &fakeFinder{opps: []domain.ArbitrageOpportunity{
		{ID: "a", TradeSize: 1, NetProfit: 16.85},
		{ID: "b", TradeSize: 5, NetProfit: 84.25},
	}}
	bus := newFakeBus()
	mon := newTestMonitor(agg, finder, &fakeStore{}, bus)

	require.NoError(t, mon.Start(0))
	waitFor(t, func() bool { return bus.count(ChannelArb) >= 1 })
	require.NoError(t, mon.Stop())

	var alert struct {
		Event         string                       `json:"event"`
		Opportunities []domain.ArbitrageOpportunity `json:"opportunities"`
		Count         int                          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(bus.first(ChannelArb), &alert))
	assert.Equal(t, "arbitrage_alert", alert.Event)
	assert.Equal(t, 2, alert.Count)
	require.Len(t, alert.Opportunities, 2)
	assert.Equal(t, "a", alert.Opportunities[0].ID)
	assert.Equal(t, "b", alert.Opportunities[1].ID)
}
