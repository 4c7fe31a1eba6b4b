// Package venue defines the uniform read-only interface to one remote
// trading venue (§4.1), adapted from the teacher's trade-capable Exchange
// interface: the connect/order/position/subscribe methods are gone (no
// execution, no custody — Non-goals), and every numeric value is a
// decimal.Decimal, never a float, per the spec's decimal-everywhere rule.
package venue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// SymbolInfo is one listed instrument as reported by futures_symbols or
// spot_symbols, filtered to active USDT-quoted (or venue-equivalent) pairs.
type SymbolInfo struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Status     string
}

// AssetNetwork is one deposit/withdraw network for an asset, as reported
// by asset_details.
type AssetNetwork struct {
	Chain            string
	Contract         string
	DepositEnabled   bool
	WithdrawEnabled  bool
}

// AssetDetails is the asset_details(asset) result used to derive the
// chain->contract map and per-network transfer capabilities.
type AssetDetails struct {
	Coin     string
	Networks []AssetNetwork
}

// TickerQuote is one venue's current quote for one symbol.
type TickerQuote struct {
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Last      decimal.Decimal
	Timestamp time.Time
}

// FundingInfo is the funding_rate(symbol) result, perp venues only.
type FundingInfo struct {
	Rate            decimal.Decimal
	NextFundingTime time.Time
	PeriodHours     int
}

// Adapter is the uniform, read-only interface to one remote venue. Every
// method returns *errs.VenueError (never panics) on remote failure; it is
// the caller's job to treat the zero value / nil map as "this datum is
// absent this tick", per §4.1 "Adapters never crash the process".
type Adapter interface {
	VenueID() string
	Kind() model.VenueKind

	FuturesSymbols(ctx context.Context) ([]SymbolInfo, error)
	SpotSymbols(ctx context.Context) ([]SymbolInfo, error)
	AssetDetails(ctx context.Context, asset string) (AssetDetails, error)

	// Tickers prefers a single batch endpoint where the venue offers one;
	// symbols == nil means "all tracked symbols for this market kind".
	Tickers(ctx context.Context, symbols []string, kind model.MarketKind) (map[string]TickerQuote, error)

	OrderBook(ctx context.Context, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, error)

	FundingRate(ctx context.Context, symbol string) (FundingInfo, error)

	Close() error
}
