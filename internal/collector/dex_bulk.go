package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// wrappedAssetRatio is the absolute DEX/CEX price-ratio ceiling past which a
// DEX quote is dropped as likely wrapped-asset noise rather than a real
// cross-venue spread, per §4.3.
var wrappedAssetRatio = decimal.NewFromInt(10)

// BulkChainQuoter is the per-chain aggregator surface the bulk DEX fetcher
// needs: one request per chain returns every tracked contract's current
// price and pool liquidity in a single round trip.
type BulkChainQuoter interface {
	BulkQuote(ctx context.Context, chain string, contracts []string) (map[string]ChainQuote, error)
}

// ChainQuote is one contract's result from a bulk per-chain query.
type ChainQuote struct {
	PriceUSD      decimal.Decimal
	LiquidityUSD  decimal.Decimal
}

// ChainTarget is one (chain, contract) the bulk fetcher tracks, together
// with the symbol it resolves to and the venue_id the emitted PriceRecord
// should carry.
type ChainTarget struct {
	Chain     string
	Contract  string
	Symbol    string
	VenueID   string
}

// DEXBulkFetcher runs the §4.3 "separate bulk DEX fetcher": one request per
// chain for every contract tracked on that chain, discarding low-liquidity
// and likely-wrapped-asset entries before merging into the PriceStore.
type DEXBulkFetcher struct {
	quoter        BulkChainQuoter
	store         *PriceStore
	minLiquidity  decimal.Decimal
	log           zerolog.Logger
}

func NewDEXBulkFetcher(quoter BulkChainQuoter, store *PriceStore, minLiquidityUSD decimal.Decimal, log zerolog.Logger) *DEXBulkFetcher {
	return &DEXBulkFetcher{quoter: quoter, store: store, minLiquidity: minLiquidityUSD, log: log}
}

// Run issues one BulkQuote call per chain present in targets, and for every
// accepted quote derives a PriceRecord using bestCEXAsk(symbol) as the
// cross-validation reference. bestCEXAsk returns (price, false) when no CEX
// price exists yet for that symbol, in which case cross-validation is
// skipped (there is nothing to compare against).
func (f *DEXBulkFetcher) Run(ctx context.Context, targets []ChainTarget, bestCEXAsk func(symbol string) (decimal.Decimal, bool)) {
	byChain := make(map[string][]ChainTarget)
	for _, t := range targets {
		byChain[t.Chain] = append(byChain[t.Chain], t)
	}

	now := time.Now()
	for chain, chainTargets := range byChain {
		contracts := make([]string, len(chainTargets))
		for i, t := range chainTargets {
			contracts[i] = t.Contract
		}
		quotes, err := f.quoter.BulkQuote(ctx, chain, contracts)
		if err != nil {
			f.log.Warn().Err(err).Str("chain", chain).Msg("dex_bulk: bulk quote failed, skipping chain this cycle")
			continue
		}
		for _, t := range chainTargets {
			q, ok := quotes[t.Contract]
			if !ok {
				continue
			}
			if q.LiquidityUSD.LessThan(f.minLiquidity) {
				continue
			}
			if cexAsk, haveCEX := bestCEXAsk(t.Symbol); haveCEX && cexAsk.IsPositive() {
				ratio := q.PriceUSD.Div(cexAsk)
				if ratio.GreaterThan(wrappedAssetRatio) || ratio.LessThan(decimal.NewFromFloat(1).Div(wrappedAssetRatio)) {
					f.log.Warn().Str("symbol", t.Symbol).Str("chain", chain).Str("ratio", ratio.String()).Msg("dex_bulk: dropped as likely wrapped-asset noise")
					continue
				}
			}
			halfSpread := q.PriceUSD.Mul(decimal.NewFromFloat(0.005))
			rec := model.PriceRecord{
				Symbol:       t.Symbol,
				VenueID:      t.VenueID,
				Market:       model.MarketSpot,
				Bid:          q.PriceUSD.Sub(halfSpread),
				Ask:          q.PriceUSD.Add(halfSpread),
				Last:         q.PriceUSD,
				VenueTime:    now,
				ReceivedTime: now,
			}
			if !rec.Valid() {
				continue
			}
			f.store.Put(rec)
		}
	}
}
