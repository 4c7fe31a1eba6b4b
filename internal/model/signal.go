package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType is computed from direction and lagging flags (§4.7 step 1).
type SignalType string

const (
	SignalAuto    SignalType = "auto"
	SignalManual  SignalType = "manual"
	SignalLagging SignalType = "lagging"
	SignalInvalid SignalType = "invalid"
)

// StrategyType is derived from the (low_kind, high_kind) tuple per the
// fixed table in §4.7 step 2: SF/DF/FF/PF/DP/PP.
type StrategyType string

const (
	StrategySF StrategyType = "SF" // spot -> futures
	StrategyDF StrategyType = "DF" // dex_spot -> futures
	StrategyFF StrategyType = "FF" // futures -> futures
	StrategyPF StrategyType = "PF" // perp_dex -> futures
	StrategyDP StrategyType = "DP" // dex_spot -> perp_dex
	StrategyPP StrategyType = "PP" // perp_dex -> perp_dex
)

// DeriveStrategyType implements the fixed (low_kind, high_kind) table. Any
// combination outside the table (e.g. a manual spot->spot pair) returns
// the empty StrategyType; callers must check for it.
func DeriveStrategyType(low, high VenueKind) StrategyType {
	switch {
	case low == KindCEXSpot && high == KindCEXFutures:
		return StrategySF
	case low == KindDEXSpot && high == KindCEXFutures:
		return StrategyDF
	case low == KindCEXFutures && high == KindCEXFutures:
		return StrategyFF
	case low == KindPerpDEX && high == KindCEXFutures:
		return StrategyPF
	case low == KindDEXSpot && high == KindPerpDEX:
		return StrategyDP
	case low == KindPerpDEX && high == KindPerpDEX:
		return StrategyPP
	default:
		return ""
	}
}

// FeesBreakdown is the entry+exit fee total for both legs, per §4.7 step 3.
type FeesBreakdown struct {
	LowEntryPct  decimal.Decimal `json:"low_entry_pct"`
	LowExitPct   decimal.Decimal `json:"low_exit_pct"`
	HighEntryPct decimal.Decimal `json:"high_entry_pct"`
	HighExitPct  decimal.Decimal `json:"high_exit_pct"`
	TotalPct     decimal.Decimal `json:"total_pct"`
}

// CheckResult is one Safety Validator check outcome (§4.6).
type CheckResult struct {
	Name      string          `json:"name"`
	Passed    bool            `json:"passed"`
	Message   string          `json:"message"`
	Value     decimal.Decimal `json:"value"`
	Threshold decimal.Decimal `json:"threshold"`
	Mandatory bool            `json:"mandatory"`
}

// ValidationResult is the aggregated outcome of running all twelve checks.
type ValidationResult struct {
	Valid        bool          `json:"valid"`
	Checks       []CheckResult `json:"checks"`
	FailedChecks []string      `json:"failed_checks"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// SignalStatus is the signal's dispatch lifecycle, distinct from the
// opportunity state machine: a signal_emitted opportunity becomes one of
// these once the Alert Gate has acted.
type SignalStatus string

const (
	StatusValid            SignalStatus = "valid"
	StatusFailed            SignalStatus = "failed"
	StatusBlockedCooldown   SignalStatus = "blocked_cooldown"
	StatusBlockedBlacklist  SignalStatus = "blocked_blacklist"
	StatusDispatched        SignalStatus = "dispatched"
	StatusDispatchFailed    SignalStatus = "dispatch_failed"
)

// Signal is the Opportunity augmented with everything the Signal Builder
// computes: identity, fees, action text, links and the full check roster.
type Signal struct {
	StrategyID   string       `json:"strategy_id"`
	Type         SignalType   `json:"signal_type"`
	StrategyType StrategyType `json:"strategy_type"`

	Opportunity Opportunity `json:"opportunity"`

	Fees         FeesBreakdown   `json:"fees"`
	NetSpreadPct decimal.Decimal `json:"net_spread_pct"`

	ActionText []string `json:"action_text"`
	BuyURL     string   `json:"buy_url"`
	SellURL    string   `json:"sell_url"`
	ChartURL   string   `json:"chart_url"`

	Validation ValidationResult `json:"validation"`
	Lagging    *LaggingInfo     `json:"lagging,omitempty"`

	Status     SignalStatus `json:"status"`
	RejectedBy string       `json:"rejected_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DepthBaseline is a fixed-capacity ring buffer of recent depth-within-
// slippage USD samples for one (pair, venue, side), feeding check 5.
type DepthBaseline struct {
	PairID   string
	Venue    string
	Side     string // "bids" or "asks"
	Samples  []decimal.Decimal
	Capacity int
}

func NewDepthBaseline(pairID, venue, side string, capacity int) *DepthBaseline {
	return &DepthBaseline{PairID: pairID, Venue: venue, Side: side, Capacity: capacity}
}

// Add appends a sample, evicting the oldest once capacity is reached.
func (d *DepthBaseline) Add(v decimal.Decimal) {
	d.Samples = append(d.Samples, v)
	if len(d.Samples) > d.Capacity {
		d.Samples = d.Samples[len(d.Samples)-d.Capacity:]
	}
}

// Mean returns the average of all stored samples, or zero with ok=false on
// an empty history (the depth_vs_history check bypasses on this).
func (d *DepthBaseline) Mean() (decimal.Decimal, bool) {
	if len(d.Samples) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, s := range d.Samples {
		sum = sum.Add(s)
	}
	return sum.Div(decimal.NewFromInt(int64(len(d.Samples)))), true
}

// CooldownEntry keys alert:cooldown:{pair_id}; its mere presence blocks
// re-dispatch until TTL elapses.
type CooldownEntry struct {
	PairID        string    `json:"pair_id"`
	DispatchedAt  time.Time `json:"dispatched_at"`
}
