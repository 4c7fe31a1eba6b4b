package calc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

func book(venue, symbol string, bids, asks []model.PriceLevel) model.OrderBookSnapshot {
	return model.OrderBookSnapshot{VenueID: venue, Symbol: symbol, Bids: bids, Asks: asks}
}

func TestNominalSpreadPct(t *testing.T) {
	low := book("okx_spot", "BTC", nil, levels(100, 10))
	high := book("bybit_futures", "BTC", levels(103, 10), nil)

	pct, ok := NominalSpreadPct(low, high)
	if !ok {
		t.Fatal("expected a computable nominal spread")
	}
	if !pct.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3%% nominal spread, got %s", pct)
	}
}

func TestNominalSpreadPct_EmptyBookIsNotOk(t *testing.T) {
	low := book("okx_spot", "BTC", nil, nil)
	high := book("bybit_futures", "BTC", levels(103, 10), nil)

	_, ok := NominalSpreadPct(low, high)
	if ok {
		t.Error("expected not-ok when the low side has no asks")
	}
}

func TestExceedsUnrealisticCeiling(t *testing.T) {
	if !ExceedsUnrealisticCeiling(decimal.NewFromInt(51)) {
		t.Error("expected 51%% to exceed the 50%% ceiling")
	}
	if ExceedsUnrealisticCeiling(decimal.NewFromInt(49)) {
		t.Error("expected 49%% to stay under the ceiling")
	}
}

func TestEvaluate_DiscardsCollisionLikeSpread(t *testing.T) {
	low := book("okx_spot", "FOO", nil, levels(1, 1000))
	high := book("bybit_futures", "FOO", levels(100, 1000), nil)
	pair := model.ArbitragePair{LowVenue: "okx_spot", HighVenue: "bybit_futures"}

	opp := Evaluate(pair, low, high, decimal.NewFromInt(1000), time.Now())
	if !opp.NonFinite {
		t.Error("expected a >50%% nominal spread to be flagged non-finite")
	}
}

func TestEvaluate_ComputesBothLegs(t *testing.T) {
	low := book("okx_spot", "BTC", nil, levels(100, 50))
	high := book("bybit_futures", "BTC", levels(103, 50), nil)
	pair := model.ArbitragePair{LowVenue: "okx_spot", HighVenue: "bybit_futures"}

	opp := Evaluate(pair, low, high, decimal.NewFromInt(1000), time.Now())
	if opp.NonFinite {
		t.Fatal("expected a finite opportunity")
	}
	if !opp.Buy.AvgFillPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected buy avg fill 100, got %s", opp.Buy.AvgFillPrice)
	}
	if !opp.Sell.AvgFillPrice.Equal(decimal.NewFromInt(103)) {
		t.Errorf("expected sell avg fill 103, got %s", opp.Sell.AvgFillPrice)
	}
	if opp.RealSpreadPct.LessThanOrEqual(decimal.Zero) {
		t.Error("expected a positive real spread")
	}
}
