package calc

import (
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// maxNominalSpreadPct is the unrealistic-maximum ceiling of §4.5: a pair
// whose nominal spread exceeds it is almost certainly a symbol collision
// (two unrelated assets normalized to the same ticker), not a real
// opportunity, and is discarded outright.
var maxNominalSpreadPct = decimal.NewFromInt(50)

// NominalSpreadPct is (best_bid(high) - best_ask(low)) / best_ask(low) * 100.
// Returns (zero, false) when either side's book is empty — division by
// zero is guarded, never panics, per §4.5 "Numeric semantics".
func NominalSpreadPct(low, high model.OrderBookSnapshot) (decimal.Decimal, bool) {
	ask, ok := low.BestAsk()
	if !ok || !ask.IsPositive() {
		return decimal.Zero, false
	}
	bid, ok := high.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	return bid.Sub(ask).Div(ask).Mul(decimal.NewFromInt(100)), true
}

// TickerSpreadPct is the cheap, order-book-free nominal spread estimate
// used to pre-filter candidate pairs before the order-book fetcher is
// invoked (§2 "Flow": only a pair whose last ticker-based spread clears
// the threshold gets its books fetched). Same shape as NominalSpreadPct
// but computed off the latest venue quotes instead of a book snapshot.
func TickerSpreadPct(low, high model.PriceRecord) (decimal.Decimal, bool) {
	if !low.Ask.IsPositive() {
		return decimal.Zero, false
	}
	return high.Bid.Sub(low.Ask).Div(low.Ask).Mul(decimal.NewFromInt(100)), true
}

// ExceedsUnrealisticCeiling reports whether a nominal spread is implausibly
// large and the candidate should be discarded as a likely symbol collision.
func ExceedsUnrealisticCeiling(nominalSpreadPct decimal.Decimal) bool {
	return nominalSpreadPct.GreaterThan(maxNominalSpreadPct)
}

// RealSpreadPct is the executable spread at a given position size:
// (exec_sell - exec_buy) / exec_buy * 100.
func RealSpreadPct(execBuy, execSell decimal.Decimal) (decimal.Decimal, bool) {
	if !execBuy.IsPositive() {
		return decimal.Zero, false
	}
	return execSell.Sub(execBuy).Div(execBuy).Mul(decimal.NewFromInt(100)), true
}

// Evaluate computes an Opportunity's executable legs and spreads for one
// candidate pair at positionUSD. When the nominal-spread guard trips, Buy/Sell
// are left as zero values (NonFinite = true); when the real-spread guard
// trips, Buy/Sell are already populated and NonFinite is still set. A
// non-finite Opportunity never passes validation, per §4.5. Every depth is
// the USD value within 1% of that side's top of book.
func Evaluate(pair model.ArbitragePair, lowBook, highBook model.OrderBookSnapshot, positionUSD decimal.Decimal, now time.Time) model.Opportunity {
	opp := model.Opportunity{
		Pair:      pair,
		LowPrice:  decimal.Zero,
		HighPrice: decimal.Zero,
		LowBook:   lowBook,
		HighBook:  highBook,
		CreatedAt: now,
	}

	nominal, ok := NominalSpreadPct(lowBook, highBook)
	if !ok {
		opp.NonFinite = true
		return opp
	}
	opp.NominalSpreadPct = nominal
	if ExceedsUnrealisticCeiling(nominal) {
		opp.NonFinite = true
		return opp
	}

	lowAsk, _ := lowBook.BestAsk()
	highBid, _ := highBook.BestBid()
	opp.LowPrice = lowAsk
	opp.HighPrice = highBid

	buy := WalkNotional(lowBook.Asks, positionUSD, true)
	sell := WalkNotional(highBook.Bids, positionUSD, false)

	depthSlippageCapPct := decimal.NewFromInt(1)

	opp.Buy = model.SideMeasurement{
		VenueID:      pair.LowVenue,
		BestPrice:    buy.BestPrice,
		AvgFillPrice: buy.AvgPrice,
		SlippagePct:  buy.SlippagePct,
		LevelsUsed:   buy.LevelsUsed,
		FullyFilled:  buy.FullyFilled,
		Unfilled:     buy.UnfilledUSD,
		DepthUSD:     DepthWithinSlippage(lowBook.Asks, depthSlippageCapPct),
		LatencyMs:    lowBook.LatencyMillis(),
	}
	opp.Sell = model.SideMeasurement{
		VenueID:      pair.HighVenue,
		BestPrice:    sell.BestPrice,
		AvgFillPrice: sell.AvgPrice,
		SlippagePct:  sell.SlippagePct,
		LevelsUsed:   sell.LevelsUsed,
		FullyFilled:  sell.FullyFilled,
		Unfilled:     sell.UnfilledUSD,
		DepthUSD:     DepthWithinSlippage(highBook.Bids, depthSlippageCapPct),
		LatencyMs:    highBook.LatencyMillis(),
	}

	real, ok := RealSpreadPct(buy.AvgPrice, sell.AvgPrice)
	if !ok {
		opp.NonFinite = true
		return opp
	}
	opp.RealSpreadPct = real

	// Exit-side depth: the reverse legs (sell on low, buy back on high) an
	// instant exit would consume, per §4.6 check 1's own wording.
	opp.ExitLowDepthUSD = DepthWithinSlippage(lowBook.Bids, depthSlippageCapPct)
	opp.ExitHighDepthUSD = DepthWithinSlippage(highBook.Asks, depthSlippageCapPct)

	return opp
}

func sumBookValue(levels []model.PriceLevel) decimal.Decimal {
	total := decimal.Zero
	for _, lvl := range levels {
		total = total.Add(lvl.Price.Mul(lvl.Quantity))
	}
	return total
}
