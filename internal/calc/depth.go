package calc

import (
	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

var (
	maxSuggestedPositionUSD = decimal.NewFromInt(50000)
	niceRoundUSD            = decimal.NewFromInt(100)
)

// DepthWithinSlippage walks levels from the top and sums price*qty for
// every level whose cumulative price movement from the top stays within
// maxSlippagePct, per §4.5 "Depth within slippage".
func DepthWithinSlippage(levels []model.PriceLevel, maxSlippagePct decimal.Decimal) decimal.Decimal {
	if len(levels) == 0 {
		return decimal.Zero
	}
	top := levels[0].Price
	if !top.IsPositive() {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, lvl := range levels {
		movement := lvl.Price.Sub(top).Div(top).Abs().Mul(decimal.NewFromInt(100))
		if movement.GreaterThan(maxSlippagePct) {
			break
		}
		total = total.Add(lvl.Price.Mul(lvl.Quantity))
	}
	return total
}

// SuggestedPositionUSD is half of the min of low-side-bids depth and
// high-side-asks depth, capped at $50K and rounded to a nice $100 step, per
// §4.5 "Depth within slippage".
func SuggestedPositionUSD(lowBidsDepth, highAsksDepth decimal.Decimal) decimal.Decimal {
	min := lowBidsDepth
	if highAsksDepth.LessThan(min) {
		min = highAsksDepth
	}
	half := min.Div(decimal.NewFromInt(2))
	if half.GreaterThan(maxSuggestedPositionUSD) {
		half = maxSuggestedPositionUSD
	}
	return roundToNice(half)
}

// roundToNice floors to the nearest $100 step, so suggested sizes read as
// round numbers rather than arbitrary decimals.
func roundToNice(v decimal.Decimal) decimal.Decimal {
	if v.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	steps := v.Div(niceRoundUSD).Floor()
	return steps.Mul(niceRoundUSD)
}
