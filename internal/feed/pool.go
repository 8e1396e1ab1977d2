package feed

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// pairABI is the minimal Uniswap-V2-style pair interface: only getReserves
// is needed to derive a spot price.
const pairABI = `[
	{
		"constant": true,
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "_reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "_reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "_blockTimestampLast", "type": "uint32"}
		],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	}
]`

var parsedPairABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(pairABI))
	if err != nil {
		panic(fmt.Sprintf("feed: parse pair ABI: %v", err))
	}
	return parsed
}()

// callMsg builds the read-only call message for a pool contract.
func callMsg(to string, data []byte) (ethereum.CallMsg, error) {
	if !common.IsHexAddress(to) {
		return ethereum.CallMsg{}, fmt.Errorf("feed: invalid contract address %q", to)
	}
	addr := common.HexToAddress(to)
	return ethereum.CallMsg{To: &addr, Data: data}, nil
}

// PoolConfig describes one pool to poll.
type PoolConfig struct {
	Venue         string
	PoolAddress   string
	BaseDecimals  int
	QuoteDecimals int
	// BaseIsToken0 is true when reserve0 holds the base asset.
	BaseIsToken0 bool
	CallTimeout  time.Duration
}

// PoolFeed fetches reserves for a single venue's pool and converts them into
// a VenuePrice.
type PoolFeed struct {
	client *Client
	cfg    PoolConfig
}

// NewPoolFeed creates a feed for one pool on the shared client.
func NewPoolFeed(client *Client, cfg PoolConfig) *PoolFeed {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &PoolFeed{client: client, cfg: cfg}
}

// Venue returns the venue name this feed reports for.
func (f *PoolFeed) Venue() string {
	return f.cfg.Venue
}

// Fetch reads the pool's current reserves and derives the venue price
// (quote per base). On a failed call it reconnects the shared client once
// and retries before giving up.
func (f *PoolFeed) Fetch(ctx context.Context) (domain.VenuePrice, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
	defer cancel()

	data, err := parsedPairABI.Pack("getReserves")
	if err != nil {
		return domain.VenuePrice{}, fmt.Errorf("feed: pack getReserves: %w", err)
	}

	out, err := f.client.CallContract(ctx, f.cfg.PoolAddress, data)
	if err != nil {
		if rcErr := f.client.Reconnect(ctx); rcErr != nil {
			return domain.VenuePrice{}, fmt.Errorf("feed: %s: %w: %w", f.cfg.Venue, domain.ErrVenueUnavailable, err)
		}
		out, err = f.client.CallContract(ctx, f.cfg.PoolAddress, data)
		if err != nil {
			return domain.VenuePrice{}, fmt.Errorf("feed: %s: %w: %w", f.cfg.Venue, domain.ErrVenueUnavailable, err)
		}
	}

	results, err := parsedPairABI.Unpack("getReserves", out)
	if err != nil {
		return domain.VenuePrice{}, fmt.Errorf("feed: %s: unpack getReserves: %w", f.cfg.Venue, err)
	}
	if len(results) < 2 {
		return domain.VenuePrice{}, fmt.Errorf("feed: %s: short getReserves result", f.cfg.Venue)
	}

	reserve0, ok0 := results[0].(*big.Int)
	reserve1, ok1 := results[1].(*big.Int)
	if !ok0 || !ok1 {
		return domain.VenuePrice{}, fmt.Errorf("feed: %s: unexpected reserve types", f.cfg.Venue)
	}

	return f.toVenuePrice(reserve0, reserve1)
}

// toVenuePrice scales raw reserves by token decimals and computes the spot
// price quote/base. Prices and quote reserves round to 2 decimals, base
// reserves to 4, matching the stored history precision.
func (f *PoolFeed) toVenuePrice(reserve0, reserve1 *big.Int) (domain.VenuePrice, error) {
	baseRaw, quoteRaw := reserve1, reserve0
	if f.cfg.BaseIsToken0 {
		baseRaw, quoteRaw = reserve0, reserve1
	}

	base := new(big.Float).Quo(new(big.Float).SetInt(baseRaw), pow10(f.cfg.BaseDecimals))
	quote := new(big.Float).Quo(new(big.Float).SetInt(quoteRaw), pow10(f.cfg.QuoteDecimals))

	if base.Sign() == 0 {
		return domain.VenuePrice{}, fmt.Errorf("feed: %s: pool has zero base reserve", f.cfg.Venue)
	}

	price, _ := new(big.Float).Quo(quote, base).Float64()
	baseF, _ := base.Float64()
	quoteF, _ := quote.Float64()

	return domain.VenuePrice{
		Venue:        f.cfg.Venue,
		Price:        round(price, 2),
		BaseReserve:  round(baseF, 4),
		QuoteReserve: round(quoteF, 2),
		Timestamp:    time.Now().UTC(),
	}, nil
}
