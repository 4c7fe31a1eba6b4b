package collector

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

func TestNewPriceStore(t *testing.T) {
	tests := []struct {
		name      string
		numShards int
		expected  int
	}{
		{"default shards", 0, 16},
		{"negative shards", -3, 16},
		{"custom shards", 8, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewPriceStore(tt.numShards)
			if int(ps.numShards) != tt.expected {
				t.Errorf("expected %d shards, got %d", tt.expected, ps.numShards)
			}
			if len(ps.shards) != tt.expected {
				t.Errorf("expected %d shard objects, got %d", tt.expected, len(ps.shards))
			}
		})
	}
}

func TestPriceStore_PutGet(t *testing.T) {
	ps := NewPriceStore(4)
	now := time.Now()

	ps.Put(model.PriceRecord{
		Symbol: "BTC", VenueID: "bybit_futures", Market: model.MarketFutures,
		Bid: decimal.NewFromInt(50000), Ask: decimal.NewFromInt(50010), Last: decimal.NewFromInt(50005),
		ReceivedTime: now,
	})

	rec, ok := ps.Get("BTC", "bybit_futures", time.Minute)
	if !ok {
		t.Fatal("expected record to be present")
	}
	if !rec.Bid.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected bid 50000, got %s", rec.Bid)
	}

	_, ok = ps.Get("BTC", "okx_spot", time.Minute)
	if ok {
		t.Error("expected no record for an unwritten venue")
	}
}

func TestPriceStore_StaleExpires(t *testing.T) {
	ps := NewPriceStore(4)
	ps.Put(model.PriceRecord{
		Symbol: "ETH", VenueID: "okx_spot", Market: model.MarketSpot,
		Bid: decimal.NewFromInt(3000), Ask: decimal.NewFromInt(3001),
		ReceivedTime: time.Now().Add(-time.Hour),
	})

	_, ok := ps.Get("ETH", "okx_spot", time.Second)
	if ok {
		t.Error("expected stale record to be treated as absent")
	}
}

func TestPriceStore_AllForSymbol(t *testing.T) {
	ps := NewPriceStore(4)
	now := time.Now()
	ps.Put(model.PriceRecord{Symbol: "BTC", VenueID: "bybit_futures", Bid: decimal.NewFromInt(1), Ask: decimal.NewFromInt(2), ReceivedTime: now})
	ps.Put(model.PriceRecord{Symbol: "BTC", VenueID: "okx_spot", Bid: decimal.NewFromInt(1), Ask: decimal.NewFromInt(2), ReceivedTime: now})
	ps.Put(model.PriceRecord{Symbol: "ETH", VenueID: "okx_spot", Bid: decimal.NewFromInt(1), Ask: decimal.NewFromInt(2), ReceivedTime: now})

	recs := ps.AllForSymbol("BTC", time.Minute)
	if len(recs) != 2 {
		t.Fatalf("expected 2 venue records for BTC, got %d", len(recs))
	}
}

func TestPriceStore_SnapshotKeying(t *testing.T) {
	ps := NewPriceStore(4)
	now := time.Now()
	ps.Put(model.PriceRecord{Symbol: "BTC", VenueID: "bybit_futures", Bid: decimal.NewFromInt(1), Ask: decimal.NewFromInt(2), ReceivedTime: now})

	snap := ps.Snapshot()
	rec, ok := snap["bybit_futures:BTC"]
	if !ok {
		t.Fatal("expected snapshot key venue_id:SYMBOL")
	}
	if rec.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %s", rec.Symbol)
	}
}

func TestFnvHash_Deterministic(t *testing.T) {
	if fnvHash("BTCUSDT") != fnvHash("BTCUSDT") {
		t.Error("fnvHash must be deterministic for the same input")
	}
	if fnvHash("BTCUSDT") == fnvHash("ETHUSDT") {
		t.Error("fnvHash collision between distinct symbols in this small sample is suspicious")
	}
}
