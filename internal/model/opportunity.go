package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LaggingInfo is attached to an Opportunity when the Spread Calculator's
// lagging detector flags a venue deviating from the cross-venue median.
type LaggingInfo struct {
	VenueID       string          `json:"venue_id"`
	Price         decimal.Decimal `json:"price"`
	Median        decimal.Decimal `json:"median"`
	DeviationPct  decimal.Decimal `json:"deviation_pct"`
}

// SideMeasurement is the executable-price result for one leg of a trade:
// walking the book from the top until the target notional is filled.
type SideMeasurement struct {
	VenueID      string          `json:"venue_id"`
	BestPrice    decimal.Decimal `json:"best_price"`
	AvgFillPrice decimal.Decimal `json:"avg_fill_price"`
	SlippagePct  decimal.Decimal `json:"slippage_pct"`
	LevelsUsed   int             `json:"levels_used"`
	FullyFilled  bool            `json:"fully_filled"`
	Unfilled     decimal.Decimal `json:"unfilled_qty"`
	DepthUSD     decimal.Decimal `json:"depth_within_slippage_usd"`
	LatencyMs    int64           `json:"latency_ms"`
}

// Opportunity is the Spread Calculator's transient output: a candidate
// pair plus its measured prices, depths, and quality metrics, before the
// Safety Validator has run.
type Opportunity struct {
	Pair ArbitragePair `json:"pair"`

	LowPrice  decimal.Decimal `json:"low_price"`
	HighPrice decimal.Decimal `json:"high_price"`

	LowBook  OrderBookSnapshot `json:"low_book"`
	HighBook OrderBookSnapshot `json:"high_book"`

	NominalSpreadPct decimal.Decimal `json:"nominal_spread_pct"`
	RealSpreadPct    decimal.Decimal `json:"real_spread_pct"`
	NonFinite        bool            `json:"non_finite"`

	Buy  SideMeasurement `json:"buy"`
	Sell SideMeasurement `json:"sell"`

	// ExitLowDepthUSD/ExitHighDepthUSD are the reverse-leg depths (low
	// venue's bids, high venue's asks) an instant exit would consume —
	// the opposite sides from Buy/Sell, which measure the entry legs.
	ExitLowDepthUSD  decimal.Decimal `json:"exit_low_depth_usd"`
	ExitHighDepthUSD decimal.Decimal `json:"exit_high_depth_usd"`

	SuggestedPositionUSD decimal.Decimal `json:"suggested_position_usd"`

	Lagging *LaggingInfo `json:"lagging,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OpportunityState is the per-pair state machine of §4.6.
type OpportunityState string

const (
	StateCandidate    OpportunityState = "candidate"
	StateSpreadOK     OpportunityState = "spread_ok"
	StateExecMeasured OpportunityState = "exec_measured"
	StateValidated    OpportunityState = "validated"
	StateSignalEmitted OpportunityState = "signal_emitted"
	StateRejected     OpportunityState = "rejected"
)

// opportunityTransitions is the single-source-of-truth adjacency used by
// CanTransition; invalid jumps (e.g. candidate -> signal_emitted) are
// programmer errors and are refused rather than silently allowed.
var opportunityTransitions = map[OpportunityState][]OpportunityState{
	StateCandidate:    {StateSpreadOK, StateRejected},
	StateSpreadOK:     {StateExecMeasured, StateRejected},
	StateExecMeasured: {StateValidated, StateRejected},
	StateValidated:    {StateSignalEmitted, StateRejected},
	StateSignalEmitted: {},
	StateRejected:     {},
}

func CanTransition(from, to OpportunityState) bool {
	for _, allowed := range opportunityTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
