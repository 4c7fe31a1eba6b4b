package registry

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
	"arbiscan/internal/venue"
)

// assetDetailsConcurrency bounds the semaphore of §4.2 step 5 ("a semaphore
// of N ~= 8").
const assetDetailsConcurrency = 8

// liquidityProbe is the narrow surface discovery needs from a DEX/perp-DEX
// adapter for step 6; internal/venue.DEX and PerpDEX both implement it.
type liquidityProbe interface {
	venue.Adapter
	HasLiquidity(ctx context.Context, symbol string, minUSD decimal.Decimal) (bool, error)
}

// Discovery runs the registry rebuild protocol of §4.2 once per call. A
// single adapter failing only discards that adapter's contribution for
// this cycle; the registry never overwrites a populated Ticker with an
// empty result (enforced in Registry.Put).
type Discovery struct {
	reg                *Registry
	cexFutures         []venue.Adapter
	cexSpot            []venue.Adapter
	dexProbes          []liquidityProbe
	chainOf            map[string]string // dex venue_id -> chain, for step 6's "contract on this chain" filter
	minDEXLiquidityUSD decimal.Decimal
	log                zerolog.Logger
}

func NewDiscovery(reg *Registry, cexFutures, cexSpot []venue.Adapter, dexProbes []liquidityProbe, chainOf map[string]string, minDEXLiquidityUSD decimal.Decimal, log zerolog.Logger) *Discovery {
	return &Discovery{
		reg: reg, cexFutures: cexFutures, cexSpot: cexSpot,
		dexProbes: dexProbes, chainOf: chainOf, minDEXLiquidityUSD: minDEXLiquidityUSD, log: log,
	}
}

// Run executes the seven discovery steps and persists every resulting
// Ticker and index.
func (d *Discovery) Run(ctx context.Context) error {
	tickers := make(map[string]*model.Ticker)
	var mu sync.Mutex

	contribute := func(results []venue.SymbolInfo, venueID string, kind model.VenueKind) {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range results {
			sym := Normalize(s.BaseAsset)
			if sym == "" {
				continue
			}
			t, ok := tickers[sym]
			if !ok {
				t = model.NewTicker(sym)
				tickers[sym] = t
			}
			t.AddVenue(venueID, kind)
		}
	}

	var wg sync.WaitGroup
	for _, a := range d.cexFutures {
		wg.Add(1)
		go func(a venue.Adapter) {
			defer wg.Done()
			syms, err := a.FuturesSymbols(ctx)
			if err != nil {
				d.log.Warn().Err(err).Str("venue", a.VenueID()).Msg("discovery: futures_symbols failed, skipping this venue for this cycle")
				return
			}
			contribute(syms, a.VenueID(), model.KindCEXFutures)
		}(a)
	}
	for _, a := range d.cexSpot {
		wg.Add(1)
		go func(a venue.Adapter) {
			defer wg.Done()
			syms, err := a.SpotSymbols(ctx)
			if err != nil {
				d.log.Warn().Err(err).Str("venue", a.VenueID()).Msg("discovery: spot_symbols failed, skipping this venue for this cycle")
				return
			}
			contribute(syms, a.VenueID(), model.KindCEXSpot)
		}(a)
	}
	wg.Wait()

	d.fetchAssetDetails(ctx, tickers)
	d.probeDEXLiquidity(ctx, tickers)

	for _, t := range tickers {
		if len(t.Venues) < 1 {
			continue
		}
		if err := d.reg.Put(ctx, t); err != nil {
			d.log.Warn().Err(err).Str("symbol", t.Symbol).Msg("discovery: failed to persist ticker")
		}
	}
	return d.reg.TouchLastUpdate(ctx)
}

func (d *Discovery) fetchAssetDetails(ctx context.Context, tickers map[string]*model.Ticker) {
	sem := make(chan struct{}, assetDetailsConcurrency)
	var wg sync.WaitGroup
	all := append(append([]venue.Adapter{}, d.cexFutures...), d.cexSpot...)

	for symbol, t := range tickers {
		for venueID := range t.Venues {
			var adapter venue.Adapter
			for _, a := range all {
				if a.VenueID() == venueID {
					adapter = a
					break
				}
			}
			if adapter == nil {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(symbol string, t *model.Ticker, adapter venue.Adapter) {
				defer wg.Done()
				defer func() { <-sem }()
				det, err := adapter.AssetDetails(ctx, symbol)
				if err != nil {
					d.log.Warn().Err(err).Str("symbol", symbol).Str("venue", adapter.VenueID()).Msg("discovery: asset_details failed")
					return
				}
				for _, n := range det.Networks {
					t.SetVenueNetwork(adapter.VenueID(), n.Chain, n.DepositEnabled, n.WithdrawEnabled)
					if n.Contract == "" {
						continue
					}
					t.SetContract(n.Chain, n.Contract)
				}
			}(symbol, t, adapter)
		}
	}
	wg.Wait()
}

func (d *Discovery) probeDEXLiquidity(ctx context.Context, tickers map[string]*model.Ticker) {
	for _, probe := range d.dexProbes {
		chain := d.chainOf[probe.VenueID()]
		for symbol, t := range tickers {
			if _, ok := t.Contracts[chain]; !ok {
				continue
			}
			ok, err := probe.HasLiquidity(ctx, symbol, d.minDEXLiquidityUSD)
			if err != nil {
				d.log.Warn().Err(err).Str("symbol", symbol).Str("venue", probe.VenueID()).Msg("discovery: dex liquidity probe failed")
				continue
			}
			if ok {
				t.AddVenue(probe.VenueID(), model.KindDEXSpot)
			}
		}
	}
}
