// Package notify delivers arbitrage alerts to external channels. Alerts are
// dispatched to all registered senders; a failing channel never blocks the
// others or the monitor loop.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the sender, e.g. "telegram".
	Name() string
}

// Notifier fans alerts out to its senders. Repeated opportunity alerts are
// throttled per buy/sell venue pair so a persistent spread does not flood the
// channels on every poll.
type Notifier struct {
	senders  []Sender
	cooldown time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewNotifier creates a Notifier over the given senders. cooldown <= 0
// disables throttling.
func NewNotifier(senders []Sender, cooldown time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders:  senders,
		cooldown: cooldown,
		logger:   logger.With(slog.String("component", "notifier")),
		lastSent: make(map[string]time.Time),
	}
}

// AlertOpportunity formats and delivers one arbitrage opportunity. Alerts for
// the same venue pair inside the cooldown window are dropped silently.
func (n *Notifier) AlertOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	if len(n.senders) == 0 {
		return nil
	}

	pair := opp.BuyVenue + "->" + opp.SellVenue
	if n.throttled(pair) {
		n.logger.DebugContext(ctx, "notifier: alert throttled", slog.String("pair", pair))
		return nil
	}

	title := "Arbitrage opportunity"
	message := fmt.Sprintf(
		"Buy %.4f @ %.2f on %s, sell @ %.2f on %s\nNet profit: $%.2f (%.3f%%)",
		opp.TradeSize, opp.BuyPrice, opp.BuyVenue,
		opp.SellPrice, opp.SellVenue,
		opp.NetProfit, opp.NetProfitPct,
	)
	return n.dispatch(ctx, title, message)
}

// Notify delivers a free-form notification to all senders.
func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

func (n *Notifier) throttled(pair string) bool {
	if n.cooldown <= 0 {
		return false
	}
	now := time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.lastSent[pair]; ok && now.Sub(last) < n.cooldown {
		return true
	}
	n.lastSent[pair] = now
	return false
}

// dispatch sends to every sender and combines failures into one error so a
// broken channel does not stop delivery to the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "notifier: sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notifier: sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
