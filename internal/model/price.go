package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketKind distinguishes which side of a venue a price or book came from;
// a cex venue can report both cex_spot and cex_futures records.
type MarketKind string

const (
	MarketSpot    MarketKind = "spot"
	MarketFutures MarketKind = "futures"
)

// PriceRecord is one venue's latest quote for one symbol. The invariants
// bid > 0, ask > 0, bid <= ask are checked by Valid; ingest builds the
// record, checks it, and drops one that fails before it is stored.
type PriceRecord struct {
	Symbol       string          `json:"symbol"`
	VenueID      string          `json:"venue_id"`
	Market       MarketKind      `json:"market_kind"`
	Bid          decimal.Decimal `json:"bid"`
	Ask          decimal.Decimal `json:"ask"`
	Last         decimal.Decimal `json:"last"`
	VenueTime    time.Time       `json:"venue_ts"`
	ReceivedTime time.Time       `json:"local_ts"`
}

// Valid reports whether the record satisfies the §3 invariants.
func (p PriceRecord) Valid() bool {
	return p.Bid.IsPositive() && p.Ask.IsPositive() && p.Bid.LessThanOrEqual(p.Ask)
}

// Stale reports whether the record is older than ttl, measured against now.
func (p PriceRecord) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.ReceivedTime) > ttl
}

// PriceLevel is one (price, quantity) rung of an order-book side.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderBookSnapshot is a finite, depth-capped view of one venue/symbol book:
// bids descending by price, asks ascending by price.
type OrderBookSnapshot struct {
	VenueID       string       `json:"venue_id"`
	Symbol        string       `json:"symbol"`
	Bids          []PriceLevel `json:"bids"`
	Asks          []PriceLevel `json:"asks"`
	VenueTime     time.Time    `json:"venue_ts"`
	RequestedTime time.Time    `json:"requested_ts"`
	RespondedTime time.Time    `json:"responded_ts"`
	Cached        bool         `json:"cached"`
}

func (b OrderBookSnapshot) BestBid() (decimal.Decimal, bool) {
	if len(b.Bids) == 0 {
		return decimal.Zero, false
	}
	return b.Bids[0].Price, true
}

func (b OrderBookSnapshot) BestAsk() (decimal.Decimal, bool) {
	if len(b.Asks) == 0 {
		return decimal.Zero, false
	}
	return b.Asks[0].Price, true
}

// LatencyMillis is the local round-trip the snapshot cost, 0 for a cached
// (no live call made) result per Testable Scenario S6.
func (b OrderBookSnapshot) LatencyMillis() int64 {
	if b.Cached {
		return 0
	}
	return b.RespondedTime.Sub(b.RequestedTime).Milliseconds()
}
