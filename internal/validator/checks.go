// Package validator implements the Safety Validator of §4.6: twelve
// independent checks run to completion (never short-circuited), each
// yielding a pass/fail rationale; the aggregate is valid only if every
// mandatory check passed.
package validator

import (
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// Default thresholds, taken verbatim from the §4.6 table.
var (
	DefaultMinExitLiquidityUSD  = decimal.NewFromInt(5000)
	DefaultMaxPositionRatio     = decimal.NewFromFloat(0.5)
	DefaultMaxSlippagePct       = decimal.NewFromFloat(2.0)
	DefaultMaxLatencyMs         = int64(5000)
	DefaultMinDepthHistoryRatio = decimal.NewFromFloat(0.30)
	DefaultWarnDepthRatio       = decimal.NewFromFloat(0.50)
	DefaultMaxSpreadAge         = 24 * time.Hour
	DefaultMaxSpreadFreshness   = 60 * time.Second
	DefaultMaxBidAskSpreadPct   = decimal.NewFromFloat(1.0)
)

// Thresholds bundles every configurable check threshold; built from
// config.ScannerConfig by the caller.
type Thresholds struct {
	MinExitLiquidityUSD  decimal.Decimal
	MaxPositionRatio     decimal.Decimal
	MaxSlippagePct       decimal.Decimal
	MaxLatencyMs         int64
	MinDepthHistoryRatio decimal.Decimal
	WarnDepthRatio       decimal.Decimal
	MaxSpreadAge         time.Duration
	MaxSpreadFreshness   time.Duration
	MaxBidAskSpreadPct   decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinExitLiquidityUSD:  DefaultMinExitLiquidityUSD,
		MaxPositionRatio:     DefaultMaxPositionRatio,
		MaxSlippagePct:       DefaultMaxSlippagePct,
		MaxLatencyMs:         DefaultMaxLatencyMs,
		MinDepthHistoryRatio: DefaultMinDepthHistoryRatio,
		WarnDepthRatio:       DefaultWarnDepthRatio,
		MaxSpreadAge:         DefaultMaxSpreadAge,
		MaxSpreadFreshness:   DefaultMaxSpreadFreshness,
		MaxBidAskSpreadPct:   DefaultMaxBidAskSpreadPct,
	}
}

// Input bundles everything the twelve checks need beyond the Opportunity
// itself: rolling state the validator has no business owning (depth
// history, spread-age tracking) is passed in by the caller.
type Input struct {
	Opportunity     model.Opportunity
	PositionUSD     decimal.Decimal
	DepthHistoryAvg decimal.Decimal
	HaveDepthHistory bool
	SpreadAge       time.Duration
	SignalCreatedAt time.Time
	Now             time.Time

	// manual-only checks; zero values make them trivially pass when the
	// signal is not a manual candidate.
	IsManual              bool
	LowWithdrawEnabled    bool
	HighDepositEnabled    bool
	TransferTimeMinutes   decimal.Decimal
	SymbolVolPerMinute    decimal.Decimal // sigma_per_min(symbol), asset-calibrated
}

func bidAskSpreadPct(book model.OrderBookSnapshot) (decimal.Decimal, bool) {
	bid, okBid := book.BestBid()
	ask, okAsk := book.BestAsk()
	if !okBid || !okAsk || !ask.IsPositive() {
		return decimal.Zero, false
	}
	return ask.Sub(bid).Div(ask).Mul(decimal.NewFromInt(100)), true
}

func checkExitLiquidity(in Input, t Thresholds) model.CheckResult {
	exitLiquidity := in.Opportunity.ExitLowDepthUSD
	if in.Opportunity.ExitHighDepthUSD.LessThan(exitLiquidity) {
		exitLiquidity = in.Opportunity.ExitHighDepthUSD
	}
	return model.CheckResult{
		Name: "exit_liquidity", Mandatory: true,
		Passed: exitLiquidity.GreaterThanOrEqual(t.MinExitLiquidityUSD),
		Value:  exitLiquidity, Threshold: t.MinExitLiquidityUSD,
		Message: "min(low.bids_depth, high.asks_depth) must be >= threshold",
	}
}

func checkPositionRatio(in Input, t Thresholds, exitLiquidity decimal.Decimal) model.CheckResult {
	var ratio decimal.Decimal
	passed := true
	if exitLiquidity.IsPositive() {
		ratio = in.PositionUSD.Div(exitLiquidity)
		passed = ratio.LessThanOrEqual(t.MaxPositionRatio)
	}
	return model.CheckResult{
		Name: "position_ratio", Mandatory: true,
		Passed: passed, Value: ratio, Threshold: t.MaxPositionRatio,
		Message: "position_size / exit_liquidity must be <= threshold",
	}
}

func checkMaxSlippage(in Input, t Thresholds) model.CheckResult {
	total := in.Opportunity.Buy.SlippagePct.Add(in.Opportunity.Sell.SlippagePct)
	return model.CheckResult{
		Name: "max_slippage", Mandatory: true,
		Passed: total.LessThanOrEqual(t.MaxSlippagePct),
		Value:  total, Threshold: t.MaxSlippagePct,
		Message: "buy_slip + sell_slip must be <= threshold",
	}
}

func checkLatency(in Input, t Thresholds) model.CheckResult {
	maxLatency := in.Opportunity.Buy.LatencyMs
	if in.Opportunity.Sell.LatencyMs > maxLatency {
		maxLatency = in.Opportunity.Sell.LatencyMs
	}
	return model.CheckResult{
		Name: "latency", Mandatory: true,
		Passed: maxLatency <= t.MaxLatencyMs,
		Value:  decimal.NewFromInt(maxLatency), Threshold: decimal.NewFromInt(t.MaxLatencyMs),
		Message: "max(low.latency_ms, high.latency_ms) must be <= threshold",
	}
}

// checkDepthVsHistory bypasses (passes, no warning) on an empty history;
// it emits a warning when the ratio sits in the 0.30-0.50 band even while
// passing, per §4.6.
func checkDepthVsHistory(in Input, t Thresholds, exitLiquidity decimal.Decimal) (model.CheckResult, string) {
	if !in.HaveDepthHistory || !in.DepthHistoryAvg.IsPositive() {
		return model.CheckResult{
			Name: "depth_vs_history", Mandatory: true, Passed: true,
			Message: "bypassed: no depth history yet",
		}, ""
	}
	ratio := exitLiquidity.Div(in.DepthHistoryAvg)
	res := model.CheckResult{
		Name: "depth_vs_history", Mandatory: true,
		Passed: ratio.GreaterThanOrEqual(t.MinDepthHistoryRatio),
		Value:  ratio, Threshold: t.MinDepthHistoryRatio,
		Message: "current_depth / mean(depth_history) must be >= threshold",
	}
	warning := ""
	if res.Passed && ratio.LessThan(t.WarnDepthRatio) {
		warning = "depth_vs_history in warning band (0.30-0.50)"
	}
	return res, warning
}

func checkSpreadAge(in Input, t Thresholds) model.CheckResult {
	return model.CheckResult{
		Name: "spread_age", Mandatory: true,
		Passed: in.SpreadAge <= t.MaxSpreadAge,
		Value:  decimal.NewFromInt(int64(in.SpreadAge.Seconds())),
		Threshold: decimal.NewFromInt(int64(t.MaxSpreadAge.Seconds())),
		Message: "duration this pair has continuously shown an above-threshold spread must be <= threshold",
	}
}

func checkSpreadFreshness(in Input, t Thresholds) model.CheckResult {
	age := in.Now.Sub(in.SignalCreatedAt)
	return model.CheckResult{
		Name: "spread_freshness", Mandatory: true,
		Passed: age <= t.MaxSpreadFreshness,
		Value:  decimal.NewFromInt(int64(age.Seconds())),
		Threshold: decimal.NewFromInt(int64(t.MaxSpreadFreshness.Seconds())),
		Message: "now - signal.created_at must be <= threshold",
	}
}

func checkBidAskSpread(in Input, t Thresholds) model.CheckResult {
	lowPct, lowOK := bidAskSpreadPct(in.Opportunity.LowBook)
	highPct, highOK := bidAskSpreadPct(in.Opportunity.HighBook)
	max := lowPct
	if highOK && (!lowOK || highPct.GreaterThan(max)) {
		max = highPct
	}
	if !lowOK && !highOK {
		return model.CheckResult{Name: "bid_ask_spread", Mandatory: true, Passed: false, Message: "no book data to evaluate"}
	}
	return model.CheckResult{
		Name: "bid_ask_spread", Mandatory: true,
		Passed: max.LessThanOrEqual(t.MaxBidAskSpreadPct),
		Value:  max, Threshold: t.MaxBidAskSpreadPct,
		Message: "max venue bid-ask spread must be <= threshold",
	}
}

// checkInstantExit requires the entry margin to exceed the combined
// bid-ask cost of crossing the spread on both venues: (sell_top - buy_top)
// plus each venue's own (bid_top - ask_top), summed, must be positive.
// "On both sides" means the per-venue bid-ask term is applied for the low
// venue and the high venue both, not that two independent sums must each
// be positive (that formulation is never satisfiable, since bid <= ask
// always makes the reversed cross-venue term negative).
func checkInstantExit(in Input) model.CheckResult {
	lowBid, _ := in.Opportunity.LowBook.BestBid()
	lowAsk, _ := in.Opportunity.LowBook.BestAsk()
	highBid, _ := in.Opportunity.HighBook.BestBid()
	highAsk, _ := in.Opportunity.HighBook.BestAsk()

	sellMinusBuy := highBid.Sub(lowAsk)
	lowBidAsk := lowBid.Sub(lowAsk)
	highBidAsk := highBid.Sub(highAsk)
	total := sellMinusBuy.Add(lowBidAsk).Add(highBidAsk)
	return model.CheckResult{
		Name: "instant_exit", Mandatory: true, Passed: total.IsPositive(),
		Value:   total,
		Message: "(sell_top - buy_top) + (bid_top - ask_top) on both sides must be > 0",
	}
}

func checkDirectionValidity(in Input) model.CheckResult {
	return model.CheckResult{
		Name: "direction_validity", Mandatory: true,
		Passed:  in.Opportunity.Pair.HighKind.Shortable(),
		Message: "high_venue must be shortable",
	}
}

func checkDepositWithdraw(in Input) model.CheckResult {
	if !in.IsManual {
		return model.CheckResult{Name: "deposit_withdraw", Mandatory: false, Passed: true, Message: "auto signal: not applicable"}
	}
	return model.CheckResult{
		Name: "deposit_withdraw", Mandatory: true,
		Passed:  in.LowWithdrawEnabled && in.HighDepositEnabled,
		Message: "low.withdraw_enabled and high.deposit_enabled must both hold on the chosen transfer network",
	}
}

func checkTransferBuffer(in Input) model.CheckResult {
	if !in.IsManual {
		return model.CheckResult{Name: "transfer_buffer", Mandatory: false, Passed: true, Message: "auto signal: not applicable"}
	}
	transferMinutesSqrt := sqrtDecimal(in.TransferTimeMinutes)
	requiredPct := decimal.NewFromInt(3).Mul(transferMinutesSqrt).Mul(in.SymbolVolPerMinute)
	return model.CheckResult{
		Name: "transfer_buffer", Mandatory: true,
		Passed: in.Opportunity.NominalSpreadPct.GreaterThanOrEqual(requiredPct),
		Value:  in.Opportunity.NominalSpreadPct, Threshold: requiredPct,
		Message: "nominal spread %% must be >= 3-sigma * sqrt(transfer_time_min) * sigma_per_min(symbol)",
	}
}

// sqrtDecimal converts to float64 and takes sqrtFloat (decimal has no native
// sqrt); zero or negative input returns zero rather than NaN.
func sqrtDecimal(v decimal.Decimal) decimal.Decimal {
	if !v.IsPositive() {
		return decimal.Zero
	}
	f, _ := v.Float64()
	return decimal.NewFromFloat(sqrtFloat(f))
}
