package profit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalculator() *Calculator {
	return NewCalculator(Config{
		FeeRates: map[string]float64{
			"uniswap":   0.003,
			"sushiswap": 0.003,
		},
		DefaultFeeRate:  0.003,
		DefaultSlippage: 0.005,
		GasCostPerSwap:  15,
	})
}

func TestNetProfitWithSlippage(t *testing.T) {
	calc := testCalculator()

	b := calc.NetProfit(3285.12, 3287.45, 1.0, "uniswap", "sushiswap", true)

	assert.InDelta(t, 3285.12, b.BuyCost, 1e-9)
	assert.InDelta(t, 3287.45, b.SellRevenue, 1e-9)
	assert.InDelta(t, 2.33, b.GrossProfit, 1e-9)
	assert.InDelta(t, 9.86, b.BuyFee, 1e-9)
	assert.InDelta(t, 9.86, b.SellFee, 1e-9)
	assert.InDelta(t, 19.72, b.TotalFees, 1e-9)
	assert.InDelta(t, 30.0, b.GasCost, 1e-9)
	assert.InDelta(t, 32.86, b.SlippageCost, 1e-9)
	assert.InDelta(t, 82.58, b.TotalCosts, 1e-9)
	assert.InDelta(t, -80.25, b.NetProfit, 1e-9)
	assert.InDelta(t, 0.071, b.ProfitPct, 1e-9)
	assert.InDelta(t, -2.443, b.NetProfitPct, 1e-9)
	assert.InDelta(t, -2.383, b.ROIPct, 1e-9)
}

func TestNetProfitWithoutSlippage(t *testing.T) {
	calc := testCalculator()

	b := calc.NetProfit(3285.12, 3287.45, 1.0, "uniswap", "sushiswap", false)

	assert.Zero(t, b.SlippageCost)
	assert.InDelta(t, 49.72, b.TotalCosts, 1e-9)
	assert.InDelta(t, -47.39, b.NetProfit, 1e-9)
}

func TestNetProfitDeterministic(t *testing.T) {
	calc := testCalculator()

	first := calc.NetProfit(3285.12, 3287.45, 2.5, "uniswap", "sushiswap", true)
	for i := 0; i < 100; i++ {
		again := calc.NetProfit(3285.12, 3287.45, 2.5, "uniswap", "sushiswap", true)
		require.Equal(t, first, again)
	}
}

func TestNetProfitZeroSize(t *testing.T) {
	calc := testCalculator()

	b := calc.NetProfit(3285.12, 3287.45, 0, "uniswap", "sushiswap", true)

	assert.Zero(t, b.BuyCost)
	assert.Zero(t, b.GrossProfit)
	assert.InDelta(t, -30.0, b.NetProfit, 1e-9)
	assert.Zero(t, b.ProfitPct)
	assert.Zero(t, b.NetProfitPct)
	// Gas is still spent, so ROI is nonzero even at size zero.
	assert.InDelta(t, -100.0, b.ROIPct, 1e-9)
}

func TestNetProfitUnknownVenueUsesDefaultFee(t *testing.T) {
	calc := testCalculator()

	known := calc.NetProfit(100, 110, 1.0, "uniswap", "sushiswap", false)
	unknown := calc.NetProfit(100, 110, 1.0, "mystery", "other", false)

	assert.Equal(t, known.TotalFees, unknown.TotalFees)
	assert.False(t, calc.KnownVenue("mystery"))
	assert.True(t, calc.KnownVenue("uniswap"))
}

func TestVenueFee(t *testing.T) {
	calc := testCalculator()

	assert.InDelta(t, 3.0, calc.VenueFee(1000, "uniswap"), 1e-9)
	assert.InDelta(t, 3.0, calc.VenueFee(1000, "unknown"), 1e-9)
	assert.InDelta(t, 9.86, calc.VenueFee(3285.12, "uniswap"), 1e-9)
}

func TestSlippage(t *testing.T) {
	calc := testCalculator()

	// Zero rate falls back to the configured default.
	assert.InDelta(t, 16.43, calc.Slippage(1.0, 3285.12, 0), 1e-9)
	assert.InDelta(t, 32.85, calc.Slippage(1.0, 3285.12, 0.01), 1e-9)
}

func TestGasCost(t *testing.T) {
	calc := testCalculator()
	assert.InDelta(t, 30.0, calc.GasCost(), 1e-9)
}

func TestOptimalSizeProfitableScalesUp(t *testing.T) {
	calc := testCalculator()

	// Per-unit margin beats per-unit costs, so flat gas makes larger
	// trades strictly better and the scan lands on the maximum size.
	res := calc.OptimalSize(100, 110, "uniswap", "sushiswap", 5, 0.5)

	assert.Equal(t, 10, res.TestedSizes)
	assert.InDelta(t, 5.0, res.OptimalSize, 1e-9)
	assert.Greater(t, res.MaxProfit, 0.0)
}

func TestOptimalSizeTieKeepsSmallest(t *testing.T) {
	calc := testCalculator()

	// With zero prices every size costs exactly the gas, so all profits
	// tie and the first tested size wins.
	res := calc.OptimalSize(0, 0, "uniswap", "sushiswap", 2, 1)

	assert.Equal(t, 2, res.TestedSizes)
	assert.InDelta(t, 1.0, res.OptimalSize, 1e-9)
	assert.InDelta(t, -30.0, res.MaxProfit, 1e-9)
}

func TestOptimalSizeInvalidStep(t *testing.T) {
	calc := testCalculator()

	assert.Zero(t, calc.OptimalSize(100, 110, "uniswap", "sushiswap", 5, 0))
	assert.Zero(t, calc.OptimalSize(100, 110, "uniswap", "sushiswap", 0.1, 0.5))
}
