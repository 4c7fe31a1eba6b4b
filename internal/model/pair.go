package model

// PairType is auto when the high venue is shortable (a true arbitrage,
// enter and exit without transferring capital), manual otherwise.
type PairType string

const (
	PairAuto   PairType = "auto"
	PairManual PairType = "manual"
)

// transferPriority is the fixed tie-break order for choosing a transfer
// network when more than one chain is common to both venues (§3).
var transferPriority = []string{"solana", "arbitrum", "bsc", "avalanche", "ethereum"}

// ArbitragePair is an oriented (low_venue, high_venue) combination for one
// symbol. Generated from a Ticker; never mutated thereafter.
type ArbitragePair struct {
	PairID           string   `json:"pair_id"`
	Symbol           string   `json:"symbol"`
	LowVenue         string   `json:"low_venue"`
	LowKind          VenueKind `json:"low_kind"`
	HighVenue        string   `json:"high_venue"`
	HighKind         VenueKind `json:"high_kind"`
	Type             PairType `json:"type"`
	RequiresTransfer bool     `json:"requires_transfer"`
	TransferNetwork  string   `json:"transfer_network,omitempty"`
}

// NewArbitragePair orients the pair and derives type, requires_transfer and
// the chosen transfer network from the two venues' chain intersections.
func NewArbitragePair(symbol, lowVenue string, lowKind VenueKind, lowNetworks []string,
	highVenue string, highKind VenueKind, highNetworks []string, sameExchange bool) ArbitragePair {

	p := ArbitragePair{
		PairID:    lowVenue + ":" + highVenue + ":" + symbol,
		Symbol:    symbol,
		LowVenue:  lowVenue,
		LowKind:   lowKind,
		HighVenue: highVenue,
		HighKind:  highKind,
	}
	if highKind.Shortable() {
		p.Type = PairAuto
	} else {
		p.Type = PairManual
	}

	// requires_transfer is false only when both venues are the same exchange,
	// or one spot + one futures leg of the same exchange (no physical move).
	p.RequiresTransfer = !sameExchange
	if p.RequiresTransfer {
		p.TransferNetwork = chooseTransferNetwork(lowNetworks, highNetworks)
	}
	return p
}

func chooseTransferNetwork(a, b []string) string {
	set := make(map[string]bool, len(b))
	for _, n := range b {
		set[n] = true
	}
	common := make(map[string]bool)
	for _, n := range a {
		if set[n] {
			common[n] = true
		}
	}
	for _, pref := range transferPriority {
		if common[pref] {
			return pref
		}
	}
	// no ranked chain matched; fall back to whatever is common, if anything
	for n := range common {
		return n
	}
	return ""
}
