package simulator

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/profit"
)

func testSimulator() *Simulator {
	calc := profit.NewCalculator(profit.Config{
		FeeRates:        map[string]float64{"uniswap": 0.003, "sushiswap": 0.003},
		DefaultFeeRate:  0.003,
		DefaultSlippage: 0.005,
		GasCostPerSwap:  15,
	})
	return New(calc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSimulateProfitableTrade(t *testing.T) {
	sim := testSimulator()

	// Size 5 at a 10% spread clears fees, gas, and slippage.
	rec, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
	require.NoError(t, err)

	assert.Equal(t, "TRADE_1", rec.TradeID)
	assert.Equal(t, domain.TradeStatusSuccess, rec.Status)
	assert.True(t, rec.IsSuccessful)
	assert.Greater(t, rec.Breakdown.NetProfit, 0.0)
	assert.Greater(t, rec.Breakdown.SlippageCost, 0.0)
}

func TestSimulateLosingTrade(t *testing.T) {
	sim := testSimulator()

	// A narrow spread at size 1 cannot cover the flat gas cost.
	rec, err := sim.Simulate("uniswap", "sushiswap", 3285.12, 3287.45, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeStatusFailed, rec.Status)
	assert.False(t, rec.IsSuccessful)
	assert.InDelta(t, -80.25, rec.Breakdown.NetProfit, 1e-9)
}

func TestSimulateRejectsInvalidParams(t *testing.T) {
	sim := testSimulator()

	for _, tc := range []struct {
		name                 string
		buy, sell, tradeSize float64
	}{
		{"zero buy price", 0, 110, 1},
		{"negative sell price", 100, -1, 1},
		{"zero size", 100, 110, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sim.Simulate("uniswap", "sushiswap", tc.buy, tc.sell, tc.tradeSize)
			assert.ErrorIs(t, err, domain.ErrInvalidTradeParams)
		})
	}
	assert.Zero(t, sim.TradeCount())
}

func TestSequentialTradeIDs(t *testing.T) {
	sim := testSimulator()

	for i := 0; i < 3; i++ {
		_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
		require.NoError(t, err)
	}

	trades := sim.Recent(0)
	require.Len(t, trades, 3)
	assert.Equal(t, "TRADE_1", trades[0].TradeID)
	assert.Equal(t, "TRADE_2", trades[1].TradeID)
	assert.Equal(t, "TRADE_3", trades[2].TradeID)
}

func TestStatistics(t *testing.T) {
	sim := testSimulator()

	_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5) // win
	require.NoError(t, err)
	_, err = sim.Simulate("uniswap", "sushiswap", 100, 101, 1) // loss
	require.NoError(t, err)
	_, err = sim.Simulate("uniswap", "sushiswap", 100, 120, 5) // bigger win
	require.NoError(t, err)

	stats := sim.Statistics()

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 2, stats.SuccessfulTrades)
	assert.Equal(t, 1, stats.FailedTrades)
	assert.InDelta(t, 66.67, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.Best)
	require.NotNil(t, stats.Worst)
	assert.Equal(t, "TRADE_3", stats.Best.TradeID)
	assert.Equal(t, "TRADE_2", stats.Worst.TradeID)
	assert.Greater(t, stats.AvgProfitPerWin, 0.0)
}

func TestStatisticsEmptyHistory(t *testing.T) {
	stats := testSimulator().Statistics()

	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.SuccessRate)
	assert.Nil(t, stats.Best)
	assert.Nil(t, stats.Worst)
}

func TestStatisticsTieKeepsEarlierTrade(t *testing.T) {
	sim := testSimulator()

	// Identical trades produce identical profits on both ends of the
	// ranking, so the first execution holds both slots.
	_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
	require.NoError(t, err)
	_, err = sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
	require.NoError(t, err)

	stats := sim.Statistics()
	require.NotNil(t, stats.Best)
	require.NotNil(t, stats.Worst)
	assert.Equal(t, "TRADE_1", stats.Best.TradeID)
	assert.Equal(t, "TRADE_1", stats.Worst.TradeID)
}

func TestRecentLimits(t *testing.T) {
	sim := testSimulator()

	for i := 0; i < 5; i++ {
		_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
		require.NoError(t, err)
	}

	recent := sim.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "TRADE_4", recent[0].TradeID)
	assert.Equal(t, "TRADE_5", recent[1].TradeID)

	assert.Len(t, sim.Recent(0), 5)
	assert.Len(t, sim.Recent(10), 5)
}

func TestExportJSON(t *testing.T) {
	sim := testSimulator()

	_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
	require.NoError(t, err)

	data, err := sim.ExportJSON()
	require.NoError(t, err)

	var out struct {
		Stats  domain.TradeStats    `json:"stats"`
		Trades []domain.TradeRecord `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 1, out.Stats.TotalTrades)
	require.Len(t, out.Trades, 1)
	assert.Equal(t, "TRADE_1", out.Trades[0].TradeID)
}
