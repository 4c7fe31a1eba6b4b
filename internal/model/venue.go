// Package model holds the core entities of §3: Venue, Ticker, ArbitragePair,
// PriceRecord, OrderBookSnapshot, Opportunity, Signal, DepthBaseline,
// CooldownEntry and Blacklist. Each is an explicit struct with its own
// schema; there is no hash-everywhere record passed between components.
package model

// VenueKind is one of the four marketplace shapes the scanner understands.
type VenueKind string

const (
	KindCEXSpot    VenueKind = "cex_spot"
	KindCEXFutures VenueKind = "cex_futures"
	KindDEXSpot    VenueKind = "dex_spot"
	KindPerpDEX    VenueKind = "perp_dex"
)

// Shortable reports whether a synthetic short is possible on this venue kind.
func (k VenueKind) Shortable() bool {
	return k == KindCEXFutures || k == KindPerpDEX
}

// SupportsFunding reports whether the venue kind carries a funding rate.
func (k VenueKind) SupportsFunding() bool {
	return k == KindCEXFutures || k == KindPerpDEX
}

// Venue is created from configuration at process start and never mutated.
type Venue struct {
	VenueID    string    `json:"venue_id"`
	Kind       VenueKind `json:"kind"`
	Chain      string    `json:"chain,omitempty"` // populated for dex_spot/perp_dex
	Networks   []string  `json:"networks,omitempty"`
	URLBuy     string    `json:"url_buy_template"`
	URLSell    string    `json:"url_sell_template"`
	URLChart   string    `json:"url_chart_template"`
}

func (v Venue) OrderbookSupported() bool { return true }
