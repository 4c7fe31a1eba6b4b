package model

import "sort"

// NetworkFlags is one venue's deposit/withdraw capability on one chain, as
// reported by that venue's asset_details — unlike Contracts (merged across
// venues), these are kept per-venue since a manual transfer's
// deposit_withdraw check needs the specific low/high venue's own flags,
// not a ticker-wide aggregate.
type NetworkFlags struct {
	DepositEnabled  bool `json:"deposit_enabled"`
	WithdrawEnabled bool `json:"withdraw_enabled"`
}

// Ticker is the unified symbol inventory entry: a normalized base-asset
// symbol, the set of venues that list it (partitioned by kind), and the
// chain -> contract address map derived from CEX deposit/withdraw metadata
// and DEX pool lookups.
type Ticker struct {
	Symbol           string                              `json:"symbol"`
	Venues           map[string]VenueKind                 `json:"venues"` // venue_id -> kind
	Contracts        map[string]string                    `json:"contracts"` // chain -> canonical address
	ContractConflict bool                                 `json:"contract_conflict"`
	VenueNetworks    map[string]map[string]NetworkFlags   `json:"venue_networks"` // venue_id -> chain -> flags
}

func NewTicker(symbol string) *Ticker {
	return &Ticker{
		Symbol:        symbol,
		Venues:        make(map[string]VenueKind),
		Contracts:     make(map[string]string),
		VenueNetworks: make(map[string]map[string]NetworkFlags),
	}
}

// AddVenue registers one venue as listing this ticker. Re-registering the
// same venue_id with the same kind is a no-op; re-registering with a
// different kind overwrites (a venue only ever has one kind in practice).
func (t *Ticker) AddVenue(venueID string, kind VenueKind) {
	t.Venues[venueID] = kind
}

// SetContract records a canonicalized chain -> address mapping. If a
// different address is already recorded for this chain, the ticker is
// flagged contract_conflict and the first-seen address is retained, per
// §4.2 step 5.
func (t *Ticker) SetContract(chain, address string) {
	existing, ok := t.Contracts[chain]
	if !ok {
		t.Contracts[chain] = address
		return
	}
	if existing != address {
		t.ContractConflict = true
	}
}

// SetVenueNetwork records one venue's deposit/withdraw capability on one
// chain, per §4.2 step 5's per-network asset_details merge.
func (t *Ticker) SetVenueNetwork(venueID, chain string, depositEnabled, withdrawEnabled bool) {
	if t.VenueNetworks == nil {
		t.VenueNetworks = make(map[string]map[string]NetworkFlags)
	}
	m, ok := t.VenueNetworks[venueID]
	if !ok {
		m = make(map[string]NetworkFlags)
		t.VenueNetworks[venueID] = m
	}
	m[chain] = NetworkFlags{DepositEnabled: depositEnabled, WithdrawEnabled: withdrawEnabled}
}

// NetworkFlags returns one venue's deposit/withdraw flags on one chain, and
// whether that (venue, chain) pair was ever reported by asset_details.
func (t *Ticker) NetworkFlags(venueID, chain string) (NetworkFlags, bool) {
	m, ok := t.VenueNetworks[venueID]
	if !ok {
		return NetworkFlags{}, false
	}
	f, ok := m[chain]
	return f, ok
}

// VenueIDs returns the venue_ids listing this ticker, sorted for
// deterministic pair enumeration.
func (t *Ticker) VenueIDs() []string {
	ids := make([]string, 0, len(t.Venues))
	for id := range t.Venues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PairCandidates emits every unordered unique venue_id combination that a
// Ticker with >= 2 distinct venues supports, per §4.2 "Pair generation".
func (t *Ticker) PairCandidates() [][2]string {
	ids := t.VenueIDs()
	var out [][2]string
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			out = append(out, [2]string{ids[i], ids[j]})
		}
	}
	return out
}
