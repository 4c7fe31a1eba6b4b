package signal

import (
	"strings"

	"arbiscan/internal/model"
)

const (
	symbolPlaceholder  = "{SYMBOL}"
	addressPlaceholder = "{ADDRESS}"
)

// fallbackTradingViewURL is used when a venue has no configured chart
// template and neither leg is a DEX (so there is no screener to fall back
// to either).
const fallbackTradingViewURL = "https://www.tradingview.com/symbols/" + symbolPlaceholder

// fallbackScreenerURL is the chart fallback when one leg is a DEX but that
// venue's own template is unset.
const fallbackScreenerURL = "https://dexscreener.com/search?q=" + addressPlaceholder

// VenueDirectory resolves a venue_id to its configured URL templates,
// loaded from configuration at process start.
type VenueDirectory interface {
	Lookup(venueID string) (model.Venue, bool)
}

// Links builds the buy/sell/chart URL triple for a pair, per §4.7 step 7.
func Links(dir VenueDirectory, pair model.ArbitragePair, contractAddress string) (buyURL, sellURL, chartURL string) {
	low, lowOK := dir.Lookup(pair.LowVenue)
	high, highOK := dir.Lookup(pair.HighVenue)

	if lowOK {
		buyURL = render(low.URLBuy, pair.Symbol, contractAddress)
	}
	if highOK {
		sellURL = render(high.URLSell, pair.Symbol, contractAddress)
	}

	chartURL = chartLink(low, lowOK, high, highOK, pair, contractAddress)
	return buyURL, sellURL, chartURL
}

func chartLink(low model.Venue, lowOK bool, high model.Venue, highOK bool, pair model.ArbitragePair, contractAddress string) string {
	eitherIsDEX := pair.LowKind == model.KindDEXSpot || pair.LowKind == model.KindPerpDEX ||
		pair.HighKind == model.KindDEXSpot || pair.HighKind == model.KindPerpDEX

	if lowOK && low.URLChart != "" {
		return render(low.URLChart, pair.Symbol, contractAddress)
	}
	if highOK && high.URLChart != "" {
		return render(high.URLChart, pair.Symbol, contractAddress)
	}
	if eitherIsDEX {
		return render(fallbackScreenerURL, pair.Symbol, contractAddress)
	}
	return render(fallbackTradingViewURL, pair.Symbol, contractAddress)
}

func render(template, symbol, address string) string {
	if template == "" {
		return ""
	}
	out := strings.ReplaceAll(template, symbolPlaceholder, symbol)
	out = strings.ReplaceAll(out, addressPlaceholder, address)
	return out
}
