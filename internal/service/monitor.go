// Package service contains the monitoring loop that ties price aggregation,
// arbitrage detection, persistence, and event publication together.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// Event channel names on the signal bus.
const (
	ChannelPrices = "prices"
	ChannelArb    = "arb"
	ChannelErrors = "errors"
)

// Snapshotter is the price aggregation surface the monitor polls.
type Snapshotter interface {
	Venues() []string
	Snapshot(ctx context.Context) domain.PriceSnapshot
	Compare(snapshot domain.PriceSnapshot) *domain.PriceComparison
}

// OpportunityFinder evaluates a comparison for arbitrage opportunities.
type OpportunityFinder interface {
	Detect(cmp *domain.PriceComparison, sizes []float64) []domain.ArbitrageOpportunity
}

// Alerter pushes opportunity alerts to external channels.
type Alerter interface {
	AlertOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error
}

// MonitorService runs the polling loop: snapshot prices, persist them,
// detect opportunities, persist and publish those. Every iteration failure
// is logged and published on the errors channel, then the loop carries on at
// the same cadence. Nothing short of Stop ends it.
type MonitorService struct {
	agg      Snapshotter
	finder   OpportunityFinder
	store    domain.HistoryStore
	bus      domain.SignalBus
	alerter  Alerter
	interval time.Duration
	logger   *slog.Logger

	// runInterval is the effective interval of the live loop; it differs
	// from interval when Start received an override.
	runInterval time.Duration

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	startedAt  time.Time
	iterations int64
}

// MonitorStatus is a point-in-time view of the loop's state.
type MonitorStatus struct {
	Running    bool      `json:"running"`
	IntervalMS int64     `json:"interval_ms"`
	Iterations int64     `json:"iterations"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	Venues     []string  `json:"venues"`
}

// NewMonitorService creates a stopped monitor. alerter may be nil when no
// notification channels are configured.
func NewMonitorService(
	agg Snapshotter,
	finder OpportunityFinder,
	store domain.HistoryStore,
	bus domain.SignalBus,
	alerter Alerter,
	interval time.Duration,
	logger *slog.Logger,
) *MonitorService {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &MonitorService{
		agg:      agg,
		finder:   finder,
		store:    store,
		bus:      bus,
		alerter:  alerter,
		interval: interval,
		logger:   logger.With(slog.String("component", "monitor")),
	}
}

// Start launches the polling loop. It returns ErrAlreadyRunning when the loop
// is already live. The loop runs on a background context detached from the
// caller's, so an expiring request context cannot kill it. An interval <= 0
// falls back to the configured default.
func (m *MonitorService) Start(interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return domain.ErrAlreadyRunning
	}
	if interval <= 0 {
		interval = m.interval
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	m.runInterval = interval
	m.startedAt = time.Now().UTC()
	m.iterations = 0

	go m.run(ctx, m.done, interval)

	m.logger.Info("monitor: started", slog.Duration("interval", interval))
	return nil
}

// Stop halts the loop and waits for the in-flight iteration to finish. It
// returns ErrNotRunning when the loop is not live.
func (m *MonitorService) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return domain.ErrNotRunning
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	<-done

	m.logger.Info("monitor: stopped")
	return nil
}

// Running reports whether the loop is live.
func (m *MonitorService) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status returns the current loop state.
func (m *MonitorService) Status() MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv := m.interval
	if m.running && m.runInterval > 0 {
		iv = m.runInterval
	}
	st := MonitorStatus{
		Running:    m.running,
		IntervalMS: iv.Milliseconds(),
		Iterations: m.iterations,
		Venues:     m.agg.Venues(),
	}
	if m.running {
		st.StartedAt = m.startedAt
	}
	return st
}

func (m *MonitorService) run(ctx context.Context, done chan struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First poll immediately rather than waiting a full interval.
	m.iterate(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.iterate(ctx)
		}
	}
}

// iterate runs one poll cycle. It never returns an error: every failure is
// logged, published, and left behind when the next tick arrives.
func (m *MonitorService) iterate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	m.iterations++
	m.mu.Unlock()

	snapshot := m.agg.Snapshot(ctx)
	if len(snapshot) == 0 {
		m.reportError(ctx, "no venue prices available")
		return
	}

	if err := m.store.RecordPrices(ctx, snapshot); err != nil {
		m.reportError(ctx, "record prices: "+err.Error())
	}

	cmp := m.agg.Compare(snapshot)
	m.publishPrices(ctx, snapshot, cmp)

	if cmp == nil {
		return
	}

	opps := m.finder.Detect(cmp, nil)
	for _, opp := range opps {
		if err := m.store.RecordOpportunity(ctx, opp); err != nil {
			m.reportError(ctx, "record opportunity "+opp.ID+": "+err.Error())
		}
		if m.alerter != nil {
			if err := m.alerter.AlertOpportunity(ctx, opp); err != nil {
				m.logger.WarnContext(ctx, "monitor: alert failed",
					slog.String("opp_id", opp.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	if len(opps) > 0 {
		m.publishAlert(ctx, opps)
	}
}

func (m *MonitorService) publishPrices(ctx context.Context, snapshot domain.PriceSnapshot, cmp *domain.PriceComparison) {
	evt, _ := json.Marshal(map[string]any{
		"event":      "price_update",
		"prices":     snapshot,
		"comparison": cmp,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err := m.bus.Publish(ctx, ChannelPrices, evt); err != nil {
		m.logger.WarnContext(ctx, "monitor: publish price update failed",
			slog.String("error", err.Error()),
		)
	}
}

// publishAlert sends one alert event per iteration carrying every
// opportunity that round found.
func (m *MonitorService) publishAlert(ctx context.Context, opps []domain.ArbitrageOpportunity) {
	evt, _ := json.Marshal(map[string]any{
		"event":         "arbitrage_alert",
		"opportunities": opps,
		"count":         len(opps),
		"timestamp":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err := m.bus.Publish(ctx, ChannelArb, evt); err != nil {
		m.logger.WarnContext(ctx, "monitor: publish alert failed",
			slog.Int("count", len(opps)),
			slog.String("error", err.Error()),
		)
	}
}

func (m *MonitorService) reportError(ctx context.Context, msg string) {
	m.logger.WarnContext(ctx, "monitor: iteration degraded", slog.String("reason", msg))

	evt, _ := json.Marshal(map[string]any{
		"event":     "error",
		"error":     msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err := m.bus.Publish(ctx, ChannelErrors, evt); err != nil {
		m.logger.WarnContext(ctx, "monitor: publish error event failed",
			slog.String("error", err.Error()),
		)
	}
}
