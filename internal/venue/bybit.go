package venue

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/errs"
	"arbiscan/internal/model"
	"arbiscan/pkg/ratelimit"
)

const bybitBaseURL = "https://api.bybit.com"

// Bybit implements Adapter against Bybit's v5 public market-data API. It is
// the read-only descendant of the teacher's trade-capable Bybit client: no
// Connect/PlaceMarketOrder/GetBalance, since the scanner never holds keys.
type Bybit struct {
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
}

func NewBybit(httpClient *http.Client) *Bybit {
	return &Bybit{
		httpClient: httpClient,
		limiter:    ratelimit.NewRateLimiter(10, 20), // Bybit public endpoints: generous burst, 10 rps steady
	}
}

func (b *Bybit) VenueID() string      { return "bybit_futures" }
func (b *Bybit) Kind() model.VenueKind { return model.KindCEXFutures }
func (b *Bybit) Close() error          { return nil }

func (b *Bybit) doGet(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, errs.NewVenueError(b.VenueID(), errs.VenueTimeout, "rate limiter wait cancelled", 0, err)
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	reqURL := bybitBaseURL + endpoint
	if enc := query.Encode(); enc != "" {
		reqURL += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.NewVenueError(b.VenueID(), errs.VenueTransport, err.Error(), 0, err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, classifyHTTPErr(b.VenueID(), err, 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyHTTPErr(b.VenueID(), err, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPErr(b.VenueID(), nil, resp.StatusCode)
	}
	return body, nil
}

func (b *Bybit) symbols(ctx context.Context, category string) ([]SymbolInfo, error) {
	body, err := b.doGet(ctx, "/v5/market/instruments-info", map[string]string{"category": category})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Result struct {
			List []struct {
				Symbol     string `json:"symbol"`
				BaseCoin   string `json:"baseCoin"`
				QuoteCoin  string `json:"quoteCoin"`
				Status     string `json:"status"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseErr(b.VenueID(), err)
	}
	out := make([]SymbolInfo, 0, len(resp.Result.List))
	for _, s := range resp.Result.List {
		if s.QuoteCoin != "USDT" || s.Status != "Trading" {
			continue
		}
		out = append(out, SymbolInfo{Symbol: s.Symbol, BaseAsset: s.BaseCoin, QuoteAsset: s.QuoteCoin, Status: s.Status})
	}
	return out, nil
}

func (b *Bybit) FuturesSymbols(ctx context.Context) ([]SymbolInfo, error) { return b.symbols(ctx, "linear") }
func (b *Bybit) SpotSymbols(ctx context.Context) ([]SymbolInfo, error)    { return b.symbols(ctx, "spot") }

func (b *Bybit) AssetDetails(ctx context.Context, asset string) (AssetDetails, error) {
	body, err := b.doGet(ctx, "/v5/asset/coin/query-info", map[string]string{"coin": asset})
	if err != nil {
		return AssetDetails{}, err
	}
	var resp struct {
		Result struct {
			Rows []struct {
				Coin   string `json:"coin"`
				Chains []struct {
					Chain              string `json:"chain"`
					ContractAddress    string `json:"contractAddress"`
					ChainDeposit       string `json:"chainDeposit"`  // "1"/"0"
					ChainWithdraw      string `json:"chainWithdraw"`
				} `json:"chains"`
			} `json:"rows"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return AssetDetails{}, parseErr(b.VenueID(), err)
	}
	if len(resp.Result.Rows) == 0 {
		return AssetDetails{}, nil
	}
	row := resp.Result.Rows[0]
	det := AssetDetails{Coin: row.Coin}
	for _, c := range row.Chains {
		det.Networks = append(det.Networks, AssetNetwork{
			Chain:           normalizeChain(c.Chain),
			Contract:        canonicalAddress(c.Chain, c.ContractAddress),
			DepositEnabled:  c.ChainDeposit == "1",
			WithdrawEnabled: c.ChainWithdraw == "1",
		})
	}
	return det, nil
}

// Tickers uses the batch endpoint (no symbol filter fetches the whole
// category in one call), per §4.1 "prefer a single batch endpoint".
func (b *Bybit) Tickers(ctx context.Context, symbols []string, kind model.MarketKind) (map[string]TickerQuote, error) {
	category := "linear"
	if kind == model.MarketSpot {
		category = "spot"
	}
	body, err := b.doGet(ctx, "/v5/market/tickers", map[string]string{"category": category})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Result struct {
			List []struct {
				Symbol    string `json:"symbol"`
				Bid1Price string `json:"bid1Price"`
				Ask1Price string `json:"ask1Price"`
				LastPrice string `json:"lastPrice"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseErr(b.VenueID(), err)
	}

	wanted := toSet(symbols)
	now := time.Now()
	out := make(map[string]TickerQuote, len(resp.Result.List))
	for _, t := range resp.Result.List {
		if wanted != nil && !wanted[t.Symbol] {
			continue
		}
		bid, err1 := decimal.NewFromString(t.Bid1Price)
		ask, err2 := decimal.NewFromString(t.Ask1Price)
		last, err3 := decimal.NewFromString(t.LastPrice)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out[t.Symbol] = TickerQuote{Bid: bid, Ask: ask, Last: last, Timestamp: now}
	}
	return out, nil
}

func (b *Bybit) OrderBook(ctx context.Context, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, error) {
	category := "linear"
	if kind == model.MarketSpot {
		category = "spot"
	}
	if depth > 200 {
		depth = 200
	}
	requested := time.Now()
	body, err := b.doGet(ctx, "/v5/market/orderbook", map[string]string{
		"category": category, "symbol": symbol, "limit": strconv.Itoa(depth),
	})
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	var resp struct {
		Result struct {
			Bids [][]string `json:"b"`
			Asks [][]string `json:"a"`
			Ts   int64      `json:"ts"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.OrderBookSnapshot{}, parseErr(b.VenueID(), err)
	}

	book := model.OrderBookSnapshot{
		VenueID:       b.VenueID(),
		Symbol:        symbol,
		VenueTime:     time.UnixMilli(resp.Result.Ts),
		RequestedTime: requested,
		RespondedTime: time.Now(),
	}
	book.Bids = decodeLevels(resp.Result.Bids)
	book.Asks = decodeLevels(resp.Result.Asks)
	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price.GreaterThan(book.Bids[j].Price) })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price.LessThan(book.Asks[j].Price) })
	return book, nil
}

func (b *Bybit) FundingRate(ctx context.Context, symbol string) (FundingInfo, error) {
	body, err := b.doGet(ctx, "/v5/market/tickers", map[string]string{"category": "linear", "symbol": symbol})
	if err != nil {
		return FundingInfo{}, err
	}
	var resp struct {
		Result struct {
			List []struct {
				FundingRate     string `json:"fundingRate"`
				NextFundingTime string `json:"nextFundingTime"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return FundingInfo{}, parseErr(b.VenueID(), err)
	}
	if len(resp.Result.List) == 0 {
		return FundingInfo{}, nil
	}
	rate, _ := decimal.NewFromString(resp.Result.List[0].FundingRate)
	nextMs, _ := strconv.ParseInt(resp.Result.List[0].NextFundingTime, 10, 64)
	return FundingInfo{Rate: rate, NextFundingTime: time.UnixMilli(nextMs), PeriodHours: 8}, nil
}

func decodeLevels(raw [][]string) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		if len(lvl) != 2 {
			continue
		}
		price, err1 := decimal.NewFromString(lvl[0])
		qty, err2 := decimal.NewFromString(lvl[1])
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, model.PriceLevel{Price: price, Quantity: qty})
	}
	return out
}

func toSet(items []string) map[string]bool {
	if items == nil {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
