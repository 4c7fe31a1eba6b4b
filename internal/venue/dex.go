package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/errs"
	"arbiscan/internal/model"
	"arbiscan/pkg/ratelimit"
)

// probeNotionalsUSD is the fixed preset of notional sizes used to build a
// synthetic price-impact curve for a DEX pool, per §4.4 "$100...$50K".
var probeNotionalsUSD = []decimal.Decimal{
	decimal.NewFromInt(100), decimal.NewFromInt(500), decimal.NewFromInt(1000),
	decimal.NewFromInt(5000), decimal.NewFromInt(10000), decimal.NewFromInt(25000),
	decimal.NewFromInt(50000),
}

// syntheticHalfSpreadPct mirrors bids off the ask ladder by this fraction,
// per §4.4 "bid levels mirror asks shifted by a 0.5% synthetic half-spread".
var syntheticHalfSpreadPct = decimal.NewFromFloat(0.005)

// DEXQuoter is the narrow aggregator surface a DEX adapter calls: quote a
// swap of `amountInUSD` of the USD-stable pair into the base token on one
// chain, returning the amount of tokens received. Concrete aggregators
// (0x, 1inch, Jupiter) each get their own thin implementation of this.
type DEXQuoter interface {
	Quote(ctx context.Context, chain, tokenAddress string, amountInUSD decimal.Decimal) (amountOutTokens decimal.Decimal, err error)
	PoolLiquidityUSD(ctx context.Context, chain, tokenAddress string) (decimal.Decimal, error)
}

// DEX implements Adapter for a decentralized spot venue. It has no real
// symbol listing or funding rate; its orderbook is synthesized from a
// price-impact curve rather than read off a matching engine, per §4.4.
type DEX struct {
	venueID string
	chain   string
	quoter  DEXQuoter
	limiter *ratelimit.RateLimiter

	// tokenAddress resolves a registry symbol to this chain's contract
	// address; populated by the Ticker Registry discovery job once a
	// ticker's chain->contract map is known.
	tokenAddress func(symbol string) (string, bool)
}

func NewDEX(venueID, chain string, quoter DEXQuoter, tokenAddress func(string) (string, bool)) *DEX {
	return &DEX{
		venueID:      venueID,
		chain:        chain,
		quoter:       quoter,
		limiter:      ratelimit.NewRateLimiter(5, 10),
		tokenAddress: tokenAddress,
	}
}

func (d *DEX) VenueID() string       { return d.venueID }
func (d *DEX) Kind() model.VenueKind { return model.KindDEXSpot }
func (d *DEX) Close() error          { return nil }

// FuturesSymbols/SpotSymbols are not meaningful for a DEX: its membership in
// a Ticker is established by the registry's per-ticker liquidity probe
// (§4.2 step 6), not by a venue-wide symbol list.
func (d *DEX) FuturesSymbols(ctx context.Context) ([]SymbolInfo, error) { return nil, nil }
func (d *DEX) SpotSymbols(ctx context.Context) ([]SymbolInfo, error)    { return nil, nil }

func (d *DEX) AssetDetails(ctx context.Context, asset string) (AssetDetails, error) {
	return AssetDetails{}, nil
}

// HasLiquidity reports whether the token exists on this chain with
// non-trivial liquidity; the registry's discovery step 6 calls this, not
// Tickers, to decide whether to add this venue to a Ticker.
func (d *DEX) HasLiquidity(ctx context.Context, symbol string, minUSD decimal.Decimal) (bool, error) {
	addr, ok := d.tokenAddress(symbol)
	if !ok {
		return false, nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return false, errs.NewVenueError(d.venueID, errs.VenueTimeout, "rate limiter wait cancelled", 0, err)
	}
	liq, err := d.quoter.PoolLiquidityUSD(ctx, d.chain, addr)
	if err != nil {
		return false, errs.NewVenueError(d.venueID, errs.VenueTransport, err.Error(), 0, err)
	}
	return liq.GreaterThanOrEqual(minUSD), nil
}

// Tickers quotes a small probe notional per symbol and derives bid/ask from
// the effective price; there is no batch endpoint, per-symbol quote calls
// are unavoidable for an aggregator.
func (d *DEX) Tickers(ctx context.Context, symbols []string, kind model.MarketKind) (map[string]TickerQuote, error) {
	out := make(map[string]TickerQuote, len(symbols))
	probe := decimal.NewFromInt(1000)
	for _, sym := range symbols {
		addr, ok := d.tokenAddress(sym)
		if !ok {
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return out, errs.NewVenueError(d.venueID, errs.VenueTimeout, "rate limiter wait cancelled", 0, err)
		}
		usdOut, err := d.quoter.Quote(ctx, d.chain, addr, probe)
		if err != nil || usdOut.IsZero() {
			continue // one symbol's quote failing doesn't fail the whole tick
		}
		effectivePrice := probe.Div(usdOut)
		out[sym] = TickerQuote{Bid: effectivePrice, Ask: effectivePrice, Last: effectivePrice, Timestamp: time.Now()}
	}
	return out, nil
}

// OrderBook builds the synthetic ladder of §4.4: probe a sequence of
// notional sizes, each probe's effective price becomes an ask level with
// quantity = tokens received; bids mirror asks shifted by a synthetic
// half-spread.
func (d *DEX) OrderBook(ctx context.Context, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, error) {
	addr, ok := d.tokenAddress(symbol)
	if !ok {
		return model.OrderBookSnapshot{}, errs.NewVenueError(d.venueID, errs.VenueParse, "no contract address known for "+symbol, 0, nil)
	}
	requested := time.Now()

	asks := make([]model.PriceLevel, 0, len(probeNotionalsUSD))
	var prevOut decimal.Decimal
	for _, notional := range probeNotionalsUSD {
		if err := d.limiter.Wait(ctx); err != nil {
			return model.OrderBookSnapshot{}, errs.NewVenueError(d.venueID, errs.VenueTimeout, "rate limiter wait cancelled", 0, err)
		}
		tokensOut, err := d.quoter.Quote(ctx, d.chain, addr, notional)
		if err != nil {
			break // partial ladder is still usable; stop probing on first failure
		}
		if tokensOut.IsZero() {
			break
		}
		effectivePrice := notional.Div(tokensOut)
		levelQty := tokensOut.Sub(prevOut)
		if levelQty.IsPositive() {
			asks = append(asks, model.PriceLevel{Price: effectivePrice, Quantity: levelQty})
		}
		prevOut = tokensOut
	}
	if len(asks) == 0 {
		return model.OrderBookSnapshot{}, errs.NewVenueError(d.venueID, errs.VenueTransport, "no probe succeeded", 0, nil)
	}

	bids := make([]model.PriceLevel, len(asks))
	for i, a := range asks {
		bids[i] = model.PriceLevel{
			Price:    a.Price.Mul(decimal.NewFromInt(1).Sub(syntheticHalfSpreadPct)),
			Quantity: a.Quantity,
		}
	}

	return model.OrderBookSnapshot{
		VenueID: d.venueID, Symbol: symbol,
		Bids: bids, Asks: asks,
		VenueTime: requested, RequestedTime: requested, RespondedTime: time.Now(),
	}, nil
}

func (d *DEX) FundingRate(ctx context.Context, symbol string) (FundingInfo, error) {
	return FundingInfo{}, nil // dex_spot never supports funding, only perp kinds do
}

// httpDEXQuoter is a thin HTTP-based DEXQuoter for a 1inch/0x-style quote
// API: one GET per probe, response shape trimmed to the two fields used.
type httpDEXQuoter struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPDEXQuoter(baseURL string, httpClient *http.Client) DEXQuoter {
	return &httpDEXQuoter{baseURL: baseURL, httpClient: httpClient}
}

func (q *httpDEXQuoter) Quote(ctx context.Context, chain, tokenAddress string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s/%s/quote?sellToken=%s&sellAmountUSD=%s", q.baseURL, url.PathEscape(chain), url.QueryEscape(tokenAddress), amountIn.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := q.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quoter http %d", resp.StatusCode)
	}
	var payload struct {
		BuyAmountUSD string `json:"buyAmountUsd"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(payload.BuyAmountUSD)
}

func (q *httpDEXQuoter) PoolLiquidityUSD(ctx context.Context, chain, tokenAddress string) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s/%s/liquidity?token=%s", q.baseURL, url.PathEscape(chain), url.QueryEscape(tokenAddress))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := q.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quoter http %d", resp.StatusCode)
	}
	var payload struct {
		LiquidityUSD string `json:"liquidityUsd"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(payload.LiquidityUSD)
}
