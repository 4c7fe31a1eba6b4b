package venue

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/errs"
	"arbiscan/internal/model"
	"arbiscan/pkg/ratelimit"
)

const okxBaseURL = "https://www.okx.com"

// OKX implements Adapter against OKX's public v5 market-data API, read-only.
// Grounded on the teacher's trade-capable OKX client; instId translation
// (toOKXSymbol/fromOKXSymbol) is kept since the wire format genuinely
// differs from the registry's normalized symbol.
type OKX struct {
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	venueID    string
	kind       model.VenueKind
}

func NewOKXSpot(httpClient *http.Client) *OKX {
	return &OKX{httpClient: httpClient, limiter: ratelimit.NewRateLimiter(20, 40), venueID: "okx_spot", kind: model.KindCEXSpot}
}

func NewOKXFutures(httpClient *http.Client) *OKX {
	return &OKX{httpClient: httpClient, limiter: ratelimit.NewRateLimiter(20, 40), venueID: "okx_futures", kind: model.KindCEXFutures}
}

func (o *OKX) VenueID() string       { return o.venueID }
func (o *OKX) Kind() model.VenueKind { return o.kind }
func (o *OKX) Close() error          { return nil }

func (o *OKX) instType() string {
	if o.kind == model.KindCEXFutures {
		return "SWAP"
	}
	return "SPOT"
}

// toOKXSymbol converts a normalized "BTCUSDT" into OKX's instId form,
// "BTC-USDT" (spot) or "BTC-USDT-SWAP" (perpetual futures).
func (o *OKX) toOKXSymbol(symbol string) string {
	base := strings.TrimSuffix(symbol, "USDT")
	if o.kind == model.KindCEXFutures {
		return base + "-USDT-SWAP"
	}
	return base + "-USDT"
}

func (o *OKX) fromOKXSymbol(instID string) string {
	parts := strings.Split(instID, "-")
	if len(parts) < 2 {
		return instID
	}
	return parts[0] + parts[1]
}

func (o *OKX) doGet(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, errs.NewVenueError(o.VenueID(), errs.VenueTimeout, "rate limiter wait cancelled", 0, err)
	}
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	reqURL := okxBaseURL + endpoint
	if enc := query.Encode(); enc != "" {
		reqURL += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.NewVenueError(o.VenueID(), errs.VenueTransport, err.Error(), 0, err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, classifyHTTPErr(o.VenueID(), err, 0)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyHTTPErr(o.VenueID(), err, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPErr(o.VenueID(), nil, resp.StatusCode)
	}
	return body, nil
}

func (o *OKX) symbols(ctx context.Context) ([]SymbolInfo, error) {
	body, err := o.doGet(ctx, "/api/v5/public/instruments", map[string]string{"instType": o.instType()})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []struct {
			InstID   string `json:"instId"`
			BaseCcy  string `json:"baseCcy"`
			QuoteCcy string `json:"quoteCcy"`
			CtType   string `json:"ctType"`
			State    string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseErr(o.VenueID(), err)
	}
	out := make([]SymbolInfo, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.State != "live" {
			continue
		}
		if o.kind == model.KindCEXFutures && d.CtType != "linear" {
			continue
		}
		quote := d.QuoteCcy
		if quote == "" {
			quote = "USDT"
		}
		if quote != "USDT" {
			continue
		}
		out = append(out, SymbolInfo{Symbol: o.fromOKXSymbol(d.InstID), BaseAsset: d.BaseCcy, QuoteAsset: quote, Status: d.State})
	}
	return out, nil
}

func (o *OKX) FuturesSymbols(ctx context.Context) ([]SymbolInfo, error) {
	if o.kind != model.KindCEXFutures {
		return nil, nil
	}
	return o.symbols(ctx)
}

func (o *OKX) SpotSymbols(ctx context.Context) ([]SymbolInfo, error) {
	if o.kind != model.KindCEXSpot {
		return nil, nil
	}
	return o.symbols(ctx)
}

func (o *OKX) AssetDetails(ctx context.Context, asset string) (AssetDetails, error) {
	body, err := o.doGet(ctx, "/api/v5/asset/currencies", map[string]string{"ccy": asset})
	if err != nil {
		return AssetDetails{}, err
	}
	var resp struct {
		Data []struct {
			Ccy      string `json:"ccy"`
			Chain    string `json:"chain"`
			CanDep   bool   `json:"canDep"`
			CanWd    bool   `json:"canWd"`
			CtAddr   string `json:"ctAddr"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return AssetDetails{}, parseErr(o.VenueID(), err)
	}
	if len(resp.Data) == 0 {
		return AssetDetails{}, nil
	}
	det := AssetDetails{Coin: resp.Data[0].Ccy}
	for _, d := range resp.Data {
		if d.CtAddr == "" {
			continue
		}
		det.Networks = append(det.Networks, AssetNetwork{
			Chain:           normalizeChain(d.Chain),
			Contract:        canonicalAddress(d.Chain, d.CtAddr),
			DepositEnabled:  d.CanDep,
			WithdrawEnabled: d.CanWd,
		})
	}
	return det, nil
}

func (o *OKX) Tickers(ctx context.Context, symbols []string, kind model.MarketKind) (map[string]TickerQuote, error) {
	body, err := o.doGet(ctx, "/api/v5/market/tickers", map[string]string{"instType": o.instType()})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []struct {
			InstID string `json:"instId"`
			BidPx  string `json:"bidPx"`
			AskPx  string `json:"askPx"`
			Last   string `json:"last"`
			Ts     string `json:"ts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseErr(o.VenueID(), err)
	}
	wanted := toSet(symbols)
	out := make(map[string]TickerQuote, len(resp.Data))
	for _, t := range resp.Data {
		sym := o.fromOKXSymbol(t.InstID)
		if wanted != nil && !wanted[sym] {
			continue
		}
		bid, err1 := decimal.NewFromString(t.BidPx)
		ask, err2 := decimal.NewFromString(t.AskPx)
		last, err3 := decimal.NewFromString(t.Last)
		if err1 != nil || err2 != nil || err3 != nil || t.BidPx == "" || t.AskPx == "" {
			continue
		}
		tsMs, _ := strconv.ParseInt(t.Ts, 10, 64)
		out[sym] = TickerQuote{Bid: bid, Ask: ask, Last: last, Timestamp: time.UnixMilli(tsMs)}
	}
	return out, nil
}

func (o *OKX) OrderBook(ctx context.Context, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, error) {
	if depth > 400 {
		depth = 400
	}
	requested := time.Now()
	body, err := o.doGet(ctx, "/api/v5/market/books", map[string]string{
		"instId": o.toOKXSymbol(symbol), "sz": strconv.Itoa(depth),
	})
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	var resp struct {
		Data []struct {
			Bids [][]string `json:"bids"`
			Asks [][]string `json:"asks"`
			Ts   string     `json:"ts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.OrderBookSnapshot{}, parseErr(o.VenueID(), err)
	}
	if len(resp.Data) == 0 {
		return model.OrderBookSnapshot{}, errs.NewVenueError(o.VenueID(), errs.VenueParse, "empty order book data", 0, nil)
	}
	d := resp.Data[0]
	tsMs, _ := strconv.ParseInt(d.Ts, 10, 64)
	book := model.OrderBookSnapshot{
		VenueID: o.VenueID(), Symbol: symbol,
		VenueTime: time.UnixMilli(tsMs), RequestedTime: requested, RespondedTime: time.Now(),
		Bids: decodeLevels(d.Bids), Asks: decodeLevels(d.Asks),
	}
	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price.GreaterThan(book.Bids[j].Price) })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price.LessThan(book.Asks[j].Price) })
	return book, nil
}

func (o *OKX) FundingRate(ctx context.Context, symbol string) (FundingInfo, error) {
	if o.kind != model.KindCEXFutures {
		return FundingInfo{}, nil
	}
	body, err := o.doGet(ctx, "/api/v5/public/funding-rate", map[string]string{"instId": o.toOKXSymbol(symbol)})
	if err != nil {
		return FundingInfo{}, err
	}
	var resp struct {
		Data []struct {
			FundingRate string `json:"fundingRate"`
			NextFunding string `json:"nextFundingTime"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return FundingInfo{}, parseErr(o.VenueID(), err)
	}
	if len(resp.Data) == 0 {
		return FundingInfo{}, nil
	}
	rate, _ := decimal.NewFromString(resp.Data[0].FundingRate)
	nextMs, _ := strconv.ParseInt(resp.Data[0].NextFunding, 10, 64)
	return FundingInfo{Rate: rate, NextFundingTime: time.UnixMilli(nextMs), PeriodHours: 8}, nil
}
