// Package calc computes spreads, executable prices, depth, and lagging
// detection over decimal order-book and price data (§4.5), adapted from the
// teacher's OrderBookAnalyzer/SpreadCalculator book-walk logic in
// bot/spread.go, generalized from float64 volume-based simulation to
// decimal notional-USD-based simulation.
package calc

import (
	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// ExecutionResult is the outcome of walking one book side to fill a target
// notional, mirroring the teacher's ExecutionSimulation shape.
type ExecutionResult struct {
	AvgPrice       decimal.Decimal
	BestPrice      decimal.Decimal
	SlippagePct    decimal.Decimal
	LevelsUsed     int
	FullyFilled    bool
	UnfilledUSD    decimal.Decimal
}

// WalkNotional accumulates levels from the top of book until cumulative
// level value (price*qty) reaches targetUSD, partially consuming the last
// level. isBuy selects the slippage sign convention: buying against asks
// slips upward, selling against bids slips downward.
func WalkNotional(levels []model.PriceLevel, targetUSD decimal.Decimal, isBuy bool) ExecutionResult {
	var res ExecutionResult
	if len(levels) == 0 || targetUSD.LessThanOrEqual(decimal.Zero) {
		return res
	}

	res.BestPrice = levels[0].Price
	var filledQty, filledUSD decimal.Decimal
	remaining := targetUSD

	for i, lvl := range levels {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		res.LevelsUsed = i + 1

		levelValue := lvl.Price.Mul(lvl.Quantity)
		if levelValue.LessThanOrEqual(remaining) {
			filledQty = filledQty.Add(lvl.Quantity)
			filledUSD = filledUSD.Add(levelValue)
			remaining = remaining.Sub(levelValue)
			continue
		}

		// partially consume this level
		partialQty := remaining.Div(lvl.Price)
		filledQty = filledQty.Add(partialQty)
		filledUSD = filledUSD.Add(remaining)
		remaining = decimal.Zero
	}

	if filledQty.IsZero() {
		return res
	}

	res.AvgPrice = filledUSD.Div(filledQty)
	res.FullyFilled = remaining.LessThanOrEqual(decimal.Zero)
	res.UnfilledUSD = remaining

	if res.BestPrice.IsPositive() {
		diff := res.AvgPrice.Sub(res.BestPrice)
		if !isBuy {
			diff = res.BestPrice.Sub(res.AvgPrice)
		}
		res.SlippagePct = diff.Div(res.BestPrice).Abs().Mul(decimal.NewFromInt(100))
	}
	return res
}
