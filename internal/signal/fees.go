package signal

import (
	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// feeTable is the fixed per-venue-kind taker fee used for both entry and
// exit legs, per §4.7 step 3.
var feeTable = map[model.VenueKind]decimal.Decimal{
	model.KindDEXSpot:    decimal.NewFromFloat(0.3),
	model.KindCEXSpot:    decimal.NewFromFloat(0.1),
	model.KindCEXFutures: decimal.NewFromFloat(0.06),
	model.KindPerpDEX:    decimal.NewFromFloat(0.1),
}

// ComputeFees applies the fixed fee table twice per leg (entry + exit),
// giving a total of 2*low + 2*high.
func ComputeFees(lowKind, highKind model.VenueKind) model.FeesBreakdown {
	low := feeTable[lowKind]
	high := feeTable[highKind]
	return model.FeesBreakdown{
		LowEntryPct:  low,
		LowExitPct:   low,
		HighEntryPct: high,
		HighExitPct:  high,
		TotalPct:     low.Add(low).Add(high).Add(high),
	}
}
