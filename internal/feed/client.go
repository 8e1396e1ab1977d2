// Package feed reads constant-product pool state from an Ethereum node and
// turns it into venue prices. One long-lived RPC client is shared by all
// pool feeds; it is dialed once at startup and explicitly reconnected on
// failure rather than re-created per call.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// Client wraps an ethclient connection with reconnect support.
type Client struct {
	url    string
	logger *slog.Logger

	mu  sync.RWMutex
	eth *ethclient.Client
}

// Dial connects to the Ethereum node at url. A failed dial is fatal to the
// caller: without a working RPC connection no venue can ever be priced.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("feed: dial %s: %w", url, err)
	}

	// Verify the node actually answers before declaring the feed live.
	if _, err := eth.ChainID(ctx); err != nil {
		eth.Close()
		return nil, fmt.Errorf("feed: chain id: %w", err)
	}

	return &Client{
		url:    url,
		logger: logger.With(slog.String("component", "feed")),
		eth:    eth,
	}, nil
}

// Reconnect tears down the current connection and dials a fresh one. Pool
// feeds call this after a failed contract call so a dropped connection heals
// without restarting the process.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eth != nil {
		c.eth.Close()
	}
	eth, err := ethclient.DialContext(ctx, c.url)
	if err != nil {
		c.eth = nil
		return fmt.Errorf("feed: reconnect %s: %w", c.url, err)
	}
	c.eth = eth

	c.logger.InfoContext(ctx, "feed: reconnected", slog.String("url", c.url))
	return nil
}

// Ping checks node liveness for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	eth := c.eth
	c.mu.RUnlock()
	if eth == nil {
		return fmt.Errorf("feed: ping: %w", domain.ErrFeedNotConnected)
	}
	if _, err := eth.ChainID(ctx); err != nil {
		return fmt.Errorf("feed: ping: %w", err)
	}
	return nil
}

// CallContract executes a read-only contract call against the shared
// connection.
func (c *Client) CallContract(ctx context.Context, to string, data []byte) ([]byte, error) {
	c.mu.RLock()
	eth := c.eth
	c.mu.RUnlock()
	if eth == nil {
		return nil, fmt.Errorf("feed: call %s: %w", to, domain.ErrFeedNotConnected)
	}

	msg, err := callMsg(to, data)
	if err != nil {
		return nil, err
	}
	out, err := eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: call %s: %w", to, err)
	}
	return out, nil
}

// Close shuts down the underlying RPC connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
}

// pow10 returns 10^n as a big.Float, used to scale raw reserves by token
// decimals.
func pow10(n int) *big.Float {
	f := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
	return f
}
