package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arbiscan/internal/collector"
	"arbiscan/internal/model"
	"arbiscan/internal/notify"
	"arbiscan/internal/orderbook"
	"arbiscan/internal/platform/metrics"
	"arbiscan/internal/store"
	"arbiscan/internal/venue"
)

type fakeAdapter struct {
	venueID   string
	book      model.OrderBookSnapshot
	kind      model.VenueKind
	bookCalls int
}

func (f *fakeAdapter) VenueID() string        { return f.venueID }
func (f *fakeAdapter) Kind() model.VenueKind   { return f.kind }
func (f *fakeAdapter) FuturesSymbols(ctx context.Context) ([]venue.SymbolInfo, error) { return nil, nil }
func (f *fakeAdapter) SpotSymbols(ctx context.Context) ([]venue.SymbolInfo, error)    { return nil, nil }
func (f *fakeAdapter) AssetDetails(ctx context.Context, asset string) (venue.AssetDetails, error) {
	return venue.AssetDetails{}, nil
}
func (f *fakeAdapter) Tickers(ctx context.Context, symbols []string, kind model.MarketKind) (map[string]venue.TickerQuote, error) {
	return nil, nil
}
func (f *fakeAdapter) OrderBook(ctx context.Context, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, error) {
	f.bookCalls++
	return f.book, nil
}
func (f *fakeAdapter) FundingRate(ctx context.Context, symbol string) (venue.FundingInfo, error) {
	return venue.FundingInfo{}, nil
}
func (f *fakeAdapter) Close() error { return nil }

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

type fakePairs struct{ pairs []model.ArbitragePair }

func (p fakePairs) Pairs() []model.ArbitragePair { return p.pairs }

type fakeTransport struct{ sent int }

func (f *fakeTransport) Send(ctx context.Context, msg notify.Message) error {
	f.sent++
	return nil
}

func TestScanner_ScanPairDispatchesOnHealthySpread(t *testing.T) {
	lowBook := model.OrderBookSnapshot{
		VenueID: "okx_spot", Symbol: "BTC",
		Asks: levels(100, 100, 100.5, 100), Bids: levels(99.5, 100, 99, 100),
	}
	highBook := model.OrderBookSnapshot{
		VenueID: "bybit_futures", Symbol: "BTC",
		Asks: levels(103, 100, 103.5, 100), Bids: levels(102, 100, 101.5, 100),
	}
	low := &fakeAdapter{venueID: "okx_spot", book: lowBook, kind: model.KindCEXSpot}
	high := &fakeAdapter{venueID: "bybit_futures", book: highBook, kind: model.KindCEXFutures}

	kv := store.NewMemoryStore()
	log := zerolog.Nop()
	fetcher := orderbook.New(kv, nil, log)
	coll := collector.New(kv, nil, log)
	transport := &fakeTransport{}

	pair := model.NewArbitragePair("BTC", "okx_spot", model.KindCEXSpot, nil, "bybit_futures", model.KindCEXFutures, nil, false)

	now := time.Now()
	coll.Store().Put(model.PriceRecord{Symbol: "BTC", VenueID: "okx_spot", Bid: decimal.NewFromFloat(99.5), Ask: decimal.NewFromFloat(100), Last: decimal.NewFromFloat(100), ReceivedTime: now})
	coll.Store().Put(model.PriceRecord{Symbol: "BTC", VenueID: "bybit_futures", Bid: decimal.NewFromFloat(102), Ask: decimal.NewFromFloat(102.5), Last: decimal.NewFromFloat(102), ReceivedTime: now})

	sc := New(Config{
		Collector: coll,
		Fetcher:   fetcher,
		Adapters:  map[string]venue.Adapter{"okx_spot": low, "bybit_futures": high},
		Venues:    map[string]model.Venue{},
		Pairs:     fakePairs{pairs: []model.ArbitragePair{pair}},
		KV:        kv,
		Transport: transport,
		Metrics:   metrics.NewRegistry(prometheus.NewRegistry()),
		Log:       log,
	})

	sc.scanPair(context.Background(), pair, now, sc.liveSettings())

	if transport.sent != 1 {
		t.Fatalf("expected exactly one dispatched notification, got %d", transport.sent)
	}
}

func TestScanner_ScanPairSkipsMissingAdapter(t *testing.T) {
	kv := store.NewMemoryStore()
	log := zerolog.Nop()
	sc := New(Config{
		Collector: collector.New(kv, nil, log),
		Fetcher:   orderbook.New(kv, nil, log),
		Adapters:  map[string]venue.Adapter{},
		Venues:    map[string]model.Venue{},
		Pairs:     fakePairs{},
		KV:        kv,
		Transport: &fakeTransport{},
		Log:       log,
	})

	pair := model.NewArbitragePair("BTC", "okx_spot", model.KindCEXSpot, nil, "bybit_futures", model.KindCEXFutures, nil, false)
	sc.scanPair(context.Background(), pair, time.Now(), sc.liveSettings())
}

// TestScanner_ScanPairSkipsOrderBookFetchBelowTickerThreshold verifies the
// cheap ticker-based pre-filter: a pair whose latest quotes clear nowhere
// near the min-spread threshold must never reach the order-book fetcher.
func TestScanner_ScanPairSkipsOrderBookFetchBelowTickerThreshold(t *testing.T) {
	low := &fakeAdapter{venueID: "okx_spot", kind: model.KindCEXSpot}
	high := &fakeAdapter{venueID: "bybit_futures", kind: model.KindCEXFutures}

	kv := store.NewMemoryStore()
	log := zerolog.Nop()
	coll := collector.New(kv, nil, log)
	transport := &fakeTransport{}

	pair := model.NewArbitragePair("BTC", "okx_spot", model.KindCEXSpot, nil, "bybit_futures", model.KindCEXFutures, nil, false)

	now := time.Now()
	coll.Store().Put(model.PriceRecord{Symbol: "BTC", VenueID: "okx_spot", Bid: decimal.NewFromFloat(99.9), Ask: decimal.NewFromFloat(100), Last: decimal.NewFromFloat(100), ReceivedTime: now})
	coll.Store().Put(model.PriceRecord{Symbol: "BTC", VenueID: "bybit_futures", Bid: decimal.NewFromFloat(100.05), Ask: decimal.NewFromFloat(100.1), Last: decimal.NewFromFloat(100.05), ReceivedTime: now})

	sc := New(Config{
		Collector: coll,
		Fetcher:   orderbook.New(kv, nil, log),
		Adapters:  map[string]venue.Adapter{"okx_spot": low, "bybit_futures": high},
		Venues:    map[string]model.Venue{},
		Pairs:     fakePairs{pairs: []model.ArbitragePair{pair}},
		KV:        kv,
		Transport: transport,
		Log:       log,
	})

	sc.scanPair(context.Background(), pair, now, sc.liveSettings())

	if low.bookCalls != 0 || high.bookCalls != 0 {
		t.Fatalf("expected no order-book fetch below the ticker spread threshold, got low=%d high=%d", low.bookCalls, high.bookCalls)
	}
	if transport.sent != 0 {
		t.Errorf("expected no dispatch, got %d sends", transport.sent)
	}
}

// TestScanner_ScanPairSkipsWhenNoTickerDataYet verifies a pair with no
// fresh ticker quotes in the price store is skipped entirely (cold start,
// or a venue not yet polled this tick) rather than falling through to an
// unconditional order-book fetch.
func TestScanner_ScanPairSkipsWhenNoTickerDataYet(t *testing.T) {
	low := &fakeAdapter{venueID: "okx_spot", kind: model.KindCEXSpot}
	high := &fakeAdapter{venueID: "bybit_futures", kind: model.KindCEXFutures}

	kv := store.NewMemoryStore()
	log := zerolog.Nop()
	coll := collector.New(kv, nil, log)

	pair := model.NewArbitragePair("BTC", "okx_spot", model.KindCEXSpot, nil, "bybit_futures", model.KindCEXFutures, nil, false)

	sc := New(Config{
		Collector: coll,
		Fetcher:   orderbook.New(kv, nil, log),
		Adapters:  map[string]venue.Adapter{"okx_spot": low, "bybit_futures": high},
		Venues:    map[string]model.Venue{},
		Pairs:     fakePairs{pairs: []model.ArbitragePair{pair}},
		KV:        kv,
		Transport: &fakeTransport{},
		Log:       log,
	})

	sc.scanPair(context.Background(), pair, time.Now(), sc.liveSettings())

	if low.bookCalls != 0 || high.bookCalls != 0 {
		t.Fatalf("expected no order-book fetch with no ticker data yet, got low=%d high=%d", low.bookCalls, high.bookCalls)
	}
}

type fakeNetworkSource struct {
	flags map[string]model.NetworkFlags // "venue:chain" -> flags
}

func (f fakeNetworkSource) NetworkFlags(symbol, venueID, chain string) (model.NetworkFlags, bool) {
	v, ok := f.flags[venueID+":"+chain]
	return v, ok
}

// TestScanner_ScanPairManualDepositWithdrawGatesDispatch covers check 11
// end to end: a manual (spot/spot) pair whose low venue has withdraw
// disabled on the only shared transfer network must never dispatch, even
// though its spread and depth are otherwise healthy.
func TestScanner_ScanPairManualDepositWithdrawGatesDispatch(t *testing.T) {
	lowBook := model.OrderBookSnapshot{
		VenueID: "binance_spot", Symbol: "BTC",
		Asks: levels(100, 100, 100.5, 100), Bids: levels(99.5, 100, 99, 100),
	}
	highBook := model.OrderBookSnapshot{
		VenueID: "kraken_spot", Symbol: "BTC",
		Asks: levels(103, 100, 103.5, 100), Bids: levels(102, 100, 101.5, 100),
	}
	low := &fakeAdapter{venueID: "binance_spot", book: lowBook, kind: model.KindCEXSpot}
	high := &fakeAdapter{venueID: "kraken_spot", book: highBook, kind: model.KindCEXSpot}

	kv := store.NewMemoryStore()
	log := zerolog.Nop()
	coll := collector.New(kv, nil, log)
	transport := &fakeTransport{}

	pair := model.NewArbitragePair("BTC", "binance_spot", model.KindCEXSpot, []string{"ethereum"},
		"kraken_spot", model.KindCEXSpot, []string{"ethereum"}, false)
	if pair.Type != model.PairManual {
		t.Fatal("expected a spot/spot cross-exchange pair to be manual")
	}
	if !pair.RequiresTransfer || pair.TransferNetwork != "ethereum" {
		t.Fatalf("expected a shared-network transfer requirement, got requires=%v network=%q", pair.RequiresTransfer, pair.TransferNetwork)
	}

	now := time.Now()
	coll.Store().Put(model.PriceRecord{Symbol: "BTC", VenueID: "binance_spot", Bid: decimal.NewFromFloat(99.5), Ask: decimal.NewFromFloat(100), Last: decimal.NewFromFloat(100), ReceivedTime: now})
	coll.Store().Put(model.PriceRecord{Symbol: "BTC", VenueID: "kraken_spot", Bid: decimal.NewFromFloat(102), Ask: decimal.NewFromFloat(102.5), Last: decimal.NewFromFloat(102), ReceivedTime: now})

	networks := fakeNetworkSource{flags: map[string]model.NetworkFlags{
		"binance_spot:ethereum": {DepositEnabled: true, WithdrawEnabled: false},
		"kraken_spot:ethereum":  {DepositEnabled: true, WithdrawEnabled: true},
	}}

	sc := New(Config{
		Collector: coll,
		Fetcher:   orderbook.New(kv, nil, log),
		Adapters:  map[string]venue.Adapter{"binance_spot": low, "kraken_spot": high},
		Venues:    map[string]model.Venue{},
		Pairs:     fakePairs{pairs: []model.ArbitragePair{pair}},
		Networks:  networks,
		KV:        kv,
		Transport: transport,
		Log:       log,
	})

	sc.scanPair(context.Background(), pair, now, sc.liveSettings())

	if transport.sent != 0 {
		t.Fatalf("expected no dispatch: low venue's withdraw is disabled on the transfer network, got %d sends", transport.sent)
	}
}
