package venue

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"arbiscan/internal/errs"
	"arbiscan/internal/model"
)

// BreakerAdapter wraps any Adapter with a sony/gobreaker circuit so a venue
// that is consistently failing stops being hammered and stops starving the
// worker pool's goroutines on dead connections (§4.1 "Adapters never crash
// the process" generalized to "never monopolize the process").
type BreakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerAdapter(inner Adapter) *BreakerAdapter {
	settings := gobreaker.Settings{
		Name:        inner.VenueID(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerAdapter{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerAdapter) VenueID() string          { return b.inner.VenueID() }
func (b *BreakerAdapter) Kind() model.VenueKind     { return b.inner.Kind() }
func (b *BreakerAdapter) Close() error              { return b.inner.Close() }

func (b *BreakerAdapter) FuturesSymbols(ctx context.Context) ([]SymbolInfo, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return b.inner.FuturesSymbols(ctx) })
	if err != nil {
		return nil, wrapBreakerErr(b.inner.VenueID(), err)
	}
	return v.([]SymbolInfo), nil
}

func (b *BreakerAdapter) SpotSymbols(ctx context.Context) ([]SymbolInfo, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return b.inner.SpotSymbols(ctx) })
	if err != nil {
		return nil, wrapBreakerErr(b.inner.VenueID(), err)
	}
	return v.([]SymbolInfo), nil
}

func (b *BreakerAdapter) AssetDetails(ctx context.Context, asset string) (AssetDetails, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return b.inner.AssetDetails(ctx, asset) })
	if err != nil {
		return AssetDetails{}, wrapBreakerErr(b.inner.VenueID(), err)
	}
	return v.(AssetDetails), nil
}

func (b *BreakerAdapter) Tickers(ctx context.Context, symbols []string, kind model.MarketKind) (map[string]TickerQuote, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return b.inner.Tickers(ctx, symbols, kind) })
	if err != nil {
		return nil, wrapBreakerErr(b.inner.VenueID(), err)
	}
	return v.(map[string]TickerQuote), nil
}

func (b *BreakerAdapter) OrderBook(ctx context.Context, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return b.inner.OrderBook(ctx, symbol, depth, kind) })
	if err != nil {
		return model.OrderBookSnapshot{}, wrapBreakerErr(b.inner.VenueID(), err)
	}
	return v.(model.OrderBookSnapshot), nil
}

func (b *BreakerAdapter) FundingRate(ctx context.Context, symbol string) (FundingInfo, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return b.inner.FundingRate(ctx, symbol) })
	if err != nil {
		return FundingInfo{}, wrapBreakerErr(b.inner.VenueID(), err)
	}
	return v.(FundingInfo), nil
}

// wrapBreakerErr preserves an already-typed *errs.VenueError from the inner
// adapter; gobreaker's own ErrOpenState / ErrTooManyRequests become a
// rate_limited VenueError so callers never need to know about gobreaker.
func wrapBreakerErr(venueID string, err error) error {
	if _, ok := err.(*errs.VenueError); ok {
		return err
	}
	return errs.NewVenueError(venueID, errs.VenueRateLimited, "circuit open: "+err.Error(), 0, err)
}
