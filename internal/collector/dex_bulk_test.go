package collector

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeBulkQuoter struct {
	byChain map[string]map[string]ChainQuote
}

func (f *fakeBulkQuoter) BulkQuote(ctx context.Context, chain string, contracts []string) (map[string]ChainQuote, error) {
	return f.byChain[chain], nil
}

func TestDEXBulkFetcher_DiscardsLowLiquidity(t *testing.T) {
	quoter := &fakeBulkQuoter{byChain: map[string]map[string]ChainQuote{
		"solana": {
			"0xabc": {PriceUSD: decimal.NewFromInt(100), LiquidityUSD: decimal.NewFromInt(500)},
		},
	}}
	ps := NewPriceStore(4)
	f := NewDEXBulkFetcher(quoter, ps, decimal.NewFromInt(10000), zerolog.Nop())

	f.Run(context.Background(), []ChainTarget{
		{Chain: "solana", Contract: "0xabc", Symbol: "FOO", VenueID: "jupiter_dex"},
	}, func(symbol string) (decimal.Decimal, bool) { return decimal.Zero, false })

	if _, ok := ps.Get("FOO", "jupiter_dex", 0); ok {
		t.Error("expected low-liquidity quote to be discarded")
	}
}

func TestDEXBulkFetcher_DropsWrappedAssetNoise(t *testing.T) {
	quoter := &fakeBulkQuoter{byChain: map[string]map[string]ChainQuote{
		"ethereum": {
			"0xdef": {PriceUSD: decimal.NewFromInt(5000), LiquidityUSD: decimal.NewFromInt(50000)},
		},
	}}
	ps := NewPriceStore(4)
	f := NewDEXBulkFetcher(quoter, ps, decimal.NewFromInt(10000), zerolog.Nop())

	// CEX ask is 100; DEX price 5000 is 50x higher, past the 10x ceiling.
	f.Run(context.Background(), []ChainTarget{
		{Chain: "ethereum", Contract: "0xdef", Symbol: "BAR", VenueID: "oneinch_dex"},
	}, func(symbol string) (decimal.Decimal, bool) { return decimal.NewFromInt(100), true })

	if _, ok := ps.Get("BAR", "oneinch_dex", 0); ok {
		t.Error("expected quote past the wrapped-asset ratio ceiling to be dropped")
	}
}

func TestDEXBulkFetcher_AcceptsValidQuote(t *testing.T) {
	quoter := &fakeBulkQuoter{byChain: map[string]map[string]ChainQuote{
		"bsc": {
			"0x111": {PriceUSD: decimal.NewFromInt(100), LiquidityUSD: decimal.NewFromInt(50000)},
		},
	}}
	ps := NewPriceStore(4)
	f := NewDEXBulkFetcher(quoter, ps, decimal.NewFromInt(10000), zerolog.Nop())

	f.Run(context.Background(), []ChainTarget{
		{Chain: "bsc", Contract: "0x111", Symbol: "BAZ", VenueID: "pancake_dex"},
	}, func(symbol string) (decimal.Decimal, bool) { return decimal.NewFromInt(101), true })

	rec, ok := ps.Get("BAZ", "pancake_dex", time.Minute)
	if !ok {
		t.Fatal("expected a valid within-ratio quote to be accepted")
	}
	if !rec.Bid.LessThan(rec.Ask) {
		t.Error("expected synthetic half-spread to produce bid < ask")
	}
}
