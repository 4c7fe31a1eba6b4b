package validator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

func baseOpportunity() model.Opportunity {
	return model.Opportunity{
		Pair: model.ArbitragePair{HighKind: model.KindCEXFutures},
		LowBook: model.OrderBookSnapshot{
			Bids: []model.PriceLevel{{Price: decimal.NewFromInt(99), Quantity: decimal.NewFromInt(100)}},
			Asks: []model.PriceLevel{{Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(100)}},
		},
		HighBook: model.OrderBookSnapshot{
			Bids: []model.PriceLevel{{Price: decimal.NewFromInt(103), Quantity: decimal.NewFromInt(100)}},
			Asks: []model.PriceLevel{{Price: decimal.NewFromInt(104), Quantity: decimal.NewFromInt(100)}},
		},
		Buy:  model.SideMeasurement{DepthUSD: decimal.NewFromInt(10000), SlippagePct: decimal.NewFromFloat(0.2), LatencyMs: 500},
		Sell: model.SideMeasurement{DepthUSD: decimal.NewFromInt(10000), SlippagePct: decimal.NewFromFloat(0.3), LatencyMs: 600},
		ExitLowDepthUSD:  decimal.NewFromInt(10000),
		ExitHighDepthUSD: decimal.NewFromInt(10000),
		NominalSpreadPct: decimal.NewFromInt(3),
	}
}

func TestRun_AllPassOnHealthyOpportunity(t *testing.T) {
	in := Input{
		Opportunity:     baseOpportunity(),
		PositionUSD:     decimal.NewFromInt(1000),
		SignalCreatedAt: time.Now(),
		Now:             time.Now(),
		SpreadAge:       time.Minute,
	}
	res := Run(in, DefaultThresholds())
	if !res.Valid {
		t.Fatalf("expected a healthy opportunity to validate, failed checks: %v", res.FailedChecks)
	}
	if len(res.Checks) != 12 {
		t.Errorf("expected 12 checks to run, got %d", len(res.Checks))
	}
}

func TestRun_NeverShortCircuits(t *testing.T) {
	opp := baseOpportunity()
	opp.ExitLowDepthUSD = decimal.Zero // fails exit_liquidity (position_ratio has no positive exit liquidity to divide by and passes)
	opp.Pair.HighKind = model.KindCEXSpot // fails direction_validity too

	in := Input{
		Opportunity: opp, PositionUSD: decimal.NewFromInt(1000),
		SignalCreatedAt: time.Now(), Now: time.Now(), SpreadAge: time.Minute,
	}
	res := Run(in, DefaultThresholds())
	if res.Valid {
		t.Fatal("expected validation to fail")
	}
	if len(res.Checks) != 12 {
		t.Fatalf("expected all 12 checks to still run despite early failures, got %d", len(res.Checks))
	}
	if len(res.FailedChecks) < 2 {
		t.Errorf("expected multiple independent failures to be recorded, got %v", res.FailedChecks)
	}
}

func TestRun_DepthHistoryBypassOnEmpty(t *testing.T) {
	in := Input{
		Opportunity: baseOpportunity(), PositionUSD: decimal.NewFromInt(1000),
		SignalCreatedAt: time.Now(), Now: time.Now(), SpreadAge: time.Minute,
		HaveDepthHistory: false,
	}
	res := Run(in, DefaultThresholds())
	for _, c := range res.Checks {
		if c.Name == "depth_vs_history" && !c.Passed {
			t.Error("expected depth_vs_history to bypass (pass) with no history")
		}
	}
}

func TestRun_DepthHistoryWarningBand(t *testing.T) {
	opp := baseOpportunity()
	in := Input{
		Opportunity: opp, PositionUSD: decimal.NewFromInt(1000),
		SignalCreatedAt: time.Now(), Now: time.Now(), SpreadAge: time.Minute,
		HaveDepthHistory: true, DepthHistoryAvg: decimal.NewFromInt(25000), // ratio 10000/25000 = 0.4, in 0.30-0.50 band
	}
	res := Run(in, DefaultThresholds())
	if len(res.Warnings) == 0 {
		t.Error("expected a warning in the 0.30-0.50 depth ratio band")
	}
}

func TestRun_ManualChecksSkippedForAuto(t *testing.T) {
	in := Input{
		Opportunity: baseOpportunity(), PositionUSD: decimal.NewFromInt(1000),
		SignalCreatedAt: time.Now(), Now: time.Now(), SpreadAge: time.Minute,
		IsManual: false,
	}
	res := Run(in, DefaultThresholds())
	for _, c := range res.Checks {
		if (c.Name == "deposit_withdraw" || c.Name == "transfer_buffer") && !c.Passed {
			t.Errorf("expected %s to trivially pass for a non-manual signal", c.Name)
		}
	}
}

// TestRun_ManualTransferBufferFailsScenarioS3 reproduces the spec's
// Testable Scenario S3: a binance_spot/kraken_spot manual pair with a
// 1.2% nominal spread and a 12-minute ethereum transfer requires roughly
// 3*sqrt(12)*sigma_per_min ~= 2.08% to clear the transfer_buffer check, so
// a symbol with sigma_per_min = 0.2 must fail it.
func TestRun_ManualTransferBufferFailsScenarioS3(t *testing.T) {
	opp := baseOpportunity()
	opp.Pair.HighKind = model.KindCEXSpot // kraken_spot: not shortable, so this pair is manual
	opp.NominalSpreadPct = decimal.NewFromFloat(1.2)

	in := Input{
		Opportunity:         opp,
		PositionUSD:         decimal.NewFromInt(1000),
		SignalCreatedAt:     time.Now(),
		Now:                 time.Now(),
		SpreadAge:           time.Minute,
		IsManual:            true,
		LowWithdrawEnabled:  true,
		HighDepositEnabled:  true,
		TransferTimeMinutes: decimal.NewFromInt(12),
		SymbolVolPerMinute:  decimal.NewFromFloat(0.2),
	}
	res := Run(in, DefaultThresholds())

	var tb model.CheckResult
	var found bool
	for _, c := range res.Checks {
		if c.Name == "transfer_buffer" {
			tb, found = c, true
		}
	}
	if !found {
		t.Fatal("transfer_buffer check did not run")
	}
	if tb.Passed {
		t.Errorf("expected transfer_buffer to fail: nominal 1.2%% < required %s%%", tb.Threshold.StringFixed(2))
	}
	if !tb.Threshold.Round(2).Equal(decimal.NewFromFloat(2.08)) {
		t.Errorf("expected required buffer ~2.08%%, got %s%%", tb.Threshold.StringFixed(4))
	}
	if res.Valid {
		t.Error("expected overall validation to fail on transfer_buffer")
	}
}

// TestRun_ManualDepositWithdrawFailsWhenDisabled covers check 11: a
// manual pair whose low venue has withdraw disabled on the chosen
// transfer network must fail deposit_withdraw even though everything
// else about the opportunity is healthy.
func TestRun_ManualDepositWithdrawFailsWhenDisabled(t *testing.T) {
	opp := baseOpportunity()
	opp.Pair.HighKind = model.KindCEXSpot

	in := Input{
		Opportunity:        opp,
		PositionUSD:        decimal.NewFromInt(1000),
		SignalCreatedAt:    time.Now(),
		Now:                time.Now(),
		SpreadAge:          time.Minute,
		IsManual:           true,
		LowWithdrawEnabled: false,
		HighDepositEnabled: true,
	}
	res := Run(in, DefaultThresholds())

	var failed bool
	for _, name := range res.FailedChecks {
		if name == "deposit_withdraw" {
			failed = true
		}
	}
	if !failed {
		t.Error("expected deposit_withdraw to fail when the low venue's withdraw is disabled")
	}
}

func TestRun_SpreadFreshnessFailsWhenStale(t *testing.T) {
	in := Input{
		Opportunity: baseOpportunity(), PositionUSD: decimal.NewFromInt(1000),
		SignalCreatedAt: time.Now().Add(-time.Hour), Now: time.Now(), SpreadAge: time.Minute,
	}
	res := Run(in, DefaultThresholds())
	var found bool
	for _, name := range res.FailedChecks {
		if name == "spread_freshness" {
			found = true
		}
	}
	if !found {
		t.Error("expected spread_freshness to fail for a 1-hour-old signal")
	}
}
