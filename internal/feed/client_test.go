package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

func TestClientReportsNotConnected(t *testing.T) {
	c := &Client{}

	assert.ErrorIs(t, c.Ping(context.Background()), domain.ErrFeedNotConnected)

	_, err := c.CallContract(context.Background(), "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", nil)
	assert.ErrorIs(t, err, domain.ErrFeedNotConnected)
}

func TestPoolFeedFetchWrapsVenueUnavailable(t *testing.T) {
	// A client with no connection and no URL to reconnect to fails both the
	// call and the retry.
	feed := NewPoolFeed(&Client{}, PoolConfig{
		Venue:         "uniswap",
		PoolAddress:   "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
		BaseDecimals:  18,
		QuoteDecimals: 6,
	})

	_, err := feed.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVenueUnavailable)
	assert.ErrorIs(t, err, domain.ErrFeedNotConnected)
}
