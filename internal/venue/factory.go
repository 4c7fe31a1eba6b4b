package venue

import (
	"fmt"
	"net/http"
	"strings"
)

// SupportedCEX lists the centralized venues this build knows how to
// construct; bitget/gate/htx/bingx are intentionally not implemented (see
// DESIGN.md) — the Bybit/OKX adapters demonstrate both wire-format shapes
// (single-field and paired spot/futures clients) the rest would follow.
var SupportedCEX = []string{"bybit_futures", "okx_spot", "okx_futures"}

// NewCEX constructs a circuit-breaker-wrapped CEX adapter by venue_id.
func NewCEX(venueID string, httpClient *http.Client) (Adapter, error) {
	switch strings.ToLower(venueID) {
	case "bybit_futures":
		return NewBreakerAdapter(NewBybit(httpClient)), nil
	case "okx_spot":
		return NewBreakerAdapter(NewOKXSpot(httpClient)), nil
	case "okx_futures":
		return NewBreakerAdapter(NewOKXFutures(httpClient)), nil
	default:
		return nil, fmt.Errorf("unsupported cex venue: %s", venueID)
	}
}

// NewDEXVenue constructs a circuit-breaker-wrapped DEX spot adapter for one
// chain, backed by the given aggregator quoter.
func NewDEXVenue(venueID, chain string, quoter DEXQuoter, tokenAddress func(string) (string, bool)) Adapter {
	return NewBreakerAdapter(NewDEX(venueID, chain, quoter, tokenAddress))
}

// NewPerpDEXVenue constructs a circuit-breaker-wrapped on-chain perp adapter.
func NewPerpDEXVenue(venueID, chain string, quoter DEXQuoter, funding PerpFundingSource, tokenAddress func(string) (string, bool)) Adapter {
	return NewBreakerAdapter(NewPerpDEX(venueID, chain, quoter, funding, tokenAddress))
}

// IsSupportedCEX reports whether venueID is one of SupportedCEX.
func IsSupportedCEX(venueID string) bool {
	venueID = strings.ToLower(venueID)
	for _, v := range SupportedCEX {
		if v == venueID {
			return true
		}
	}
	return false
}
