// Package profit implements the pure cost model for cross-venue trades:
// venue fees, gas, slippage, net profit, and ROI. All arithmetic runs on
// decimals and is rounded once at the edge (2 decimals for money, 3 for
// percentages), so identical inputs always reproduce identical outputs.
package profit

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// swapsPerTrade is the number of on-chain operations a two-leg arbitrage
// trade needs (one swap per venue).
const swapsPerTrade = 2

// Config holds the calculator's cost parameters.
type Config struct {
	// FeeRates maps venue name to its trading fee rate (e.g. 0.003).
	FeeRates map[string]float64
	// DefaultFeeRate applies to venues missing from FeeRates. Unknown
	// venues are priced at the standard rate rather than rejected, which
	// keeps the model total.
	DefaultFeeRate float64
	// DefaultSlippage is the slippage rate applied per leg when the caller
	// does not supply one.
	DefaultSlippage float64
	// GasCostPerSwap is the flat USD estimate for one on-chain swap.
	GasCostPerSwap float64
}

// Calculator computes profit breakdowns. It is stateless apart from its
// configuration and safe for concurrent use.
type Calculator struct {
	feeRates        map[string]decimal.Decimal
	defaultFeeRate  decimal.Decimal
	defaultSlippage decimal.Decimal
	gasPerSwap      decimal.Decimal
}

// NewCalculator creates a Calculator from the given cost parameters.
func NewCalculator(cfg Config) *Calculator {
	rates := make(map[string]decimal.Decimal, len(cfg.FeeRates))
	for venue, rate := range cfg.FeeRates {
		rates[venue] = decimal.NewFromFloat(rate)
	}
	return &Calculator{
		feeRates:        rates,
		defaultFeeRate:  decimal.NewFromFloat(cfg.DefaultFeeRate),
		defaultSlippage: decimal.NewFromFloat(cfg.DefaultSlippage),
		gasPerSwap:      decimal.NewFromFloat(cfg.GasCostPerSwap),
	}
}

// KnownVenue reports whether a fee rate is configured for the venue.
func (c *Calculator) KnownVenue(venue string) bool {
	_, ok := c.feeRates[venue]
	return ok
}

// feeRate returns the venue's configured fee rate, or the default rate for
// unrecognized venues.
func (c *Calculator) feeRate(venue string) decimal.Decimal {
	if rate, ok := c.feeRates[venue]; ok {
		return rate
	}
	return c.defaultFeeRate
}

// VenueFee returns the trading fee for a trade of the given USD value on the
// venue, rounded to 2 decimals.
func (c *Calculator) VenueFee(tradeValue float64, venue string) float64 {
	fee := decimal.NewFromFloat(tradeValue).Mul(c.feeRate(venue))
	return money(fee)
}

// Slippage estimates the price-impact cost of trading amount units at the
// given price. A rate <= 0 selects the configured default.
func (c *Calculator) Slippage(amount, price, rate float64) float64 {
	r := c.defaultSlippage
	if rate > 0 {
		r = decimal.NewFromFloat(rate)
	}
	loss := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(price)).Mul(r)
	return money(loss)
}

// GasCost returns the flat execution-cost estimate for a full two-leg trade.
func (c *Calculator) GasCost() float64 {
	return money(c.gasPerSwap.Mul(decimal.NewFromInt(swapsPerTrade)))
}

// NetProfit computes the full breakdown for buying size units at buyPrice on
// buyVenue and selling them at sellPrice on sellVenue. Slippage on both legs
// is included only when requested; detection uses the cheaper path while
// simulation always includes it.
func (c *Calculator) NetProfit(buyPrice, sellPrice, size float64, buyVenue, sellVenue string, includeSlippage bool) domain.ProfitBreakdown {
	dBuy := decimal.NewFromFloat(buyPrice)
	dSell := decimal.NewFromFloat(sellPrice)
	dSize := decimal.NewFromFloat(size)

	buyCost := dSize.Mul(dBuy)
	sellRevenue := dSize.Mul(dSell)
	gross := sellRevenue.Sub(buyCost)

	buyFee := buyCost.Mul(c.feeRate(buyVenue))
	sellFee := sellRevenue.Mul(c.feeRate(sellVenue))
	totalFees := buyFee.Add(sellFee)

	gas := c.gasPerSwap.Mul(decimal.NewFromInt(swapsPerTrade))

	slippage := decimal.Zero
	if includeSlippage {
		buySlip := dSize.Mul(dBuy).Mul(c.defaultSlippage)
		sellSlip := dSize.Mul(dSell).Mul(c.defaultSlippage)
		slippage = buySlip.Add(sellSlip)
	}

	totalCosts := totalFees.Add(gas).Add(slippage)
	net := gross.Sub(totalCosts)

	// ROI is measured against everything the trade ties up: capital plus
	// all costs. Zero total cost yields zero ROI rather than an error.
	totalOutlay := buyCost.Add(totalCosts)
	roi := decimal.Zero
	if totalOutlay.IsPositive() {
		roi = net.Div(totalOutlay).Mul(hundred)
	}

	profitPct := decimal.Zero
	netProfitPct := decimal.Zero
	if buyCost.IsPositive() {
		profitPct = gross.Div(buyCost).Mul(hundred)
		netProfitPct = net.Div(buyCost).Mul(hundred)
	}

	return domain.ProfitBreakdown{
		TradeSize:    size,
		BuyPrice:     buyPrice,
		SellPrice:    sellPrice,
		BuyCost:      money(buyCost),
		SellRevenue:  money(sellRevenue),
		GrossProfit:  money(gross),
		BuyFee:       money(buyFee),
		SellFee:      money(sellFee),
		TotalFees:    money(totalFees),
		GasCost:      money(gas),
		SlippageCost: money(slippage),
		TotalCosts:   money(totalCosts),
		NetProfit:    money(net),
		ProfitPct:    percent(profitPct),
		NetProfitPct: percent(netProfitPct),
		ROIPct:       percent(roi),
	}
}

// OptimalSize scans trade sizes from step to maxSize in fixed steps and
// returns the size with the highest net profit (slippage included). The
// profit curve is not closed-form friendly: flat gas dominates small sizes
// while fees and slippage grow linearly, so an exhaustive scan is used.
// Strict improvement keeps the first (smallest) size on ties.
func (c *Calculator) OptimalSize(buyPrice, sellPrice float64, buyVenue, sellVenue string, maxSize, step float64) domain.OptimalSizeResult {
	if step <= 0 || maxSize < step {
		return domain.OptimalSizeResult{}
	}

	dStep := decimal.NewFromFloat(step)
	dMax := decimal.NewFromFloat(maxSize)

	var (
		bestSize   float64
		bestProfit float64
		tested     int
		haveBest   bool
	)
	for size := dStep; size.LessThanOrEqual(dMax); size = size.Add(dStep) {
		sizeF, _ := size.Float64()
		breakdown := c.NetProfit(buyPrice, sellPrice, sizeF, buyVenue, sellVenue, true)
		tested++

		if !haveBest || breakdown.NetProfit > bestProfit {
			bestProfit = breakdown.NetProfit
			bestSize = sizeF
			haveBest = true
		}
	}

	return domain.OptimalSizeResult{
		OptimalSize: bestSize,
		MaxProfit:   bestProfit,
		TestedSizes: tested,
	}
}

var hundred = decimal.NewFromInt(100)

// money rounds a decimal to 2 places and converts to float64.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// percent rounds a decimal to 3 places and converts to float64.
func percent(d decimal.Decimal) float64 {
	f, _ := d.Round(3).Float64()
	return f
}
