package registry

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"arbiscan/internal/model"
)

// PairSource walks the registry's symbol index on a refresh cycle and
// caches the resulting ArbitragePair list in memory, giving the
// orchestrator a cheap Pairs() call per scan tick instead of a KV round
// trip per pair. Grounded on the teacher's config.Reloader pattern: a
// periodic Refresh swaps a snapshot behind a mutex.
type PairSource struct {
	reg    *Registry
	venues map[string]model.Venue
	log    zerolog.Logger

	mu      sync.RWMutex
	pairs   []model.ArbitragePair
	tickers map[string]*model.Ticker // symbol -> ticker, for NetworkFlags lookups
}

func NewPairSource(reg *Registry, venues map[string]model.Venue, log zerolog.Logger) *PairSource {
	return &PairSource{reg: reg, venues: venues, log: log}
}

// Pairs implements orchestrator.PairSource.
func (s *PairSource) Pairs() []model.ArbitragePair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs
}

// NetworkFlags implements orchestrator.NetworkSource: the specific venue's
// deposit/withdraw capability on chain, for the manual-only
// deposit_withdraw check (§4.6 check 11).
func (s *PairSource) NetworkFlags(symbol, venueID, chain string) (model.NetworkFlags, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickers[symbol]
	if !ok {
		return model.NetworkFlags{}, false
	}
	return t.NetworkFlags(venueID, chain)
}

// Refresh rebuilds the cached pair list from every Ticker currently in the
// registry. Call once after each discovery cycle (§4.2 runs every 24h by
// default) plus once at startup before the scan loop begins.
func (s *PairSource) Refresh(ctx context.Context) error {
	symbols, err := s.reg.AllSymbols(ctx)
	if err != nil {
		return err
	}

	venueChains := make(map[string][]string, len(s.venues))
	for id, v := range s.venues {
		venueChains[id] = v.Networks
	}

	var pairs []model.ArbitragePair
	tickers := make(map[string]*model.Ticker, len(symbols))
	for _, sym := range symbols {
		t, found, err := s.reg.Get(ctx, sym)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("pairsource: failed to load ticker, skipping")
			continue
		}
		if !found {
			continue
		}
		tickers[sym] = t
		if len(t.Venues) < 2 {
			continue
		}
		pairs = append(pairs, s.reg.Pairs(t, venueChains, sameExchange)...)
	}

	s.mu.Lock()
	s.pairs = pairs
	s.tickers = tickers
	s.mu.Unlock()

	s.log.Info().Int("pairs", len(pairs)).Int("symbols", len(symbols)).Msg("pairsource: refreshed")
	return nil
}

// sameExchange reports whether two venue_ids belong to the same exchange:
// venue_ids are "{exchange}_{market}" (e.g. "okx_spot", "okx_futures"); two
// venues share an exchange iff their prefix before the first underscore
// matches.
func sameExchange(a, b string) bool {
	return exchangePrefix(a) == exchangePrefix(b)
}

func exchangePrefix(venueID string) string {
	if i := strings.IndexByte(venueID, '_'); i >= 0 {
		return venueID[:i]
	}
	return venueID
}
