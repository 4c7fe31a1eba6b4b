package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

func levels(pairs ...float64) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, model.PriceLevel{
			Price:    decimal.NewFromFloat(pairs[i]),
			Quantity: decimal.NewFromFloat(pairs[i+1]),
		})
	}
	return out
}

func TestWalkNotional_SingleLevelFullyFilled(t *testing.T) {
	asks := levels(100, 10) // price 100, qty 10 -> $1000 available
	res := WalkNotional(asks, decimal.NewFromInt(500), true)

	if !res.FullyFilled {
		t.Error("expected fully filled for a notional within the first level")
	}
	if res.LevelsUsed != 1 {
		t.Errorf("expected 1 level used, got %d", res.LevelsUsed)
	}
	if !res.AvgPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected avg price 100 for a single-level fill, got %s", res.AvgPrice)
	}
}

func TestWalkNotional_MultiLevelPartial(t *testing.T) {
	asks := levels(100, 5, 101, 5) // $500 + $505 = $1005 available
	res := WalkNotional(asks, decimal.NewFromInt(1000), true)

	if !res.FullyFilled {
		t.Error("expected $1000 to be fully fillable across two levels")
	}
	if res.LevelsUsed != 2 {
		t.Errorf("expected 2 levels used, got %d", res.LevelsUsed)
	}
	if res.SlippagePct.LessThanOrEqual(decimal.Zero) {
		t.Error("expected positive slippage when a buy walks past the best level")
	}
}

func TestWalkNotional_InsufficientDepth(t *testing.T) {
	asks := levels(100, 1) // only $100 available
	res := WalkNotional(asks, decimal.NewFromInt(1000), true)

	if res.FullyFilled {
		t.Error("expected partial fill when depth is insufficient")
	}
	if !res.UnfilledUSD.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected $900 unfilled, got %s", res.UnfilledUSD)
	}
}

func TestWalkNotional_EmptyBook(t *testing.T) {
	res := WalkNotional(nil, decimal.NewFromInt(100), true)
	if res.LevelsUsed != 0 || res.FullyFilled {
		t.Error("expected zero-value result for an empty book")
	}
}

func TestWalkNotional_SellSlippageSign(t *testing.T) {
	bids := levels(100, 5, 99, 5) // selling walks bids downward
	res := WalkNotional(bids, decimal.NewFromInt(800), false)

	if res.SlippagePct.LessThanOrEqual(decimal.Zero) {
		t.Error("expected positive slippage magnitude when a sell walks past the best bid")
	}
}
