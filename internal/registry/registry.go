package registry

import (
	"context"
	"encoding/json"
	"time"

	"arbiscan/internal/errs"
	"arbiscan/internal/model"
	"arbiscan/internal/store"
)

// Registry is the persisted, unified symbol inventory. It wraps the shared
// KV store; every read/write goes through store.KVStore so the registry has
// no in-process mutable state other than what's already in Redis (or the
// in-memory fake), per §5 "the shared KV store is the only coordination
// primitive".
type Registry struct {
	kv store.KVStore
}

func New(kv store.KVStore) *Registry {
	return &Registry{kv: kv}
}

// Get reads one Ticker by its normalized symbol; ok=false if absent.
func (r *Registry) Get(ctx context.Context, symbol string) (*model.Ticker, bool, error) {
	raw, found, err := r.kv.Get(ctx, store.TickerMasterKey(symbol))
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	var t model.Ticker
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, false, errs.NewValidationError("ticker:"+symbol, "corrupt ticker record: "+err.Error())
	}
	return &t, true, nil
}

// Put persists a Ticker and its indexes atomically from the caller's
// perspective: never overwrite an existing Ticker with an empty result,
// per §4.2 "partial failure policy".
func (r *Registry) Put(ctx context.Context, t *model.Ticker) error {
	if len(t.Venues) == 0 {
		existing, found, err := r.Get(ctx, t.Symbol)
		if err == nil && found && len(existing.Venues) > 0 {
			return nil // discard: would overwrite a populated ticker with an empty one
		}
	}

	blob, err := json.Marshal(t)
	if err != nil {
		return errs.NewValidationError("ticker:"+t.Symbol, err.Error())
	}
	if err := r.kv.Set(ctx, store.TickerMasterKey(t.Symbol), string(blob), 0); err != nil {
		return err
	}
	if err := r.kv.SAdd(ctx, store.KeyTickersAllSymbols, t.Symbol); err != nil {
		return err
	}
	for venueID, kind := range t.Venues {
		futures := kind == model.KindCEXFutures || kind == model.KindPerpDEX
		if err := r.kv.SAdd(ctx, store.ByExchangeKey(venueID, futures), t.Symbol); err != nil {
			return err
		}
	}
	for chain, addr := range t.Contracts {
		if err := r.kv.Set(ctx, store.ContractKey(chain, addr), t.Symbol, 24*time.Hour); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) AllSymbols(ctx context.Context) ([]string, error) {
	return r.kv.SMembers(ctx, store.KeyTickersAllSymbols)
}

func (r *Registry) SymbolsByExchange(ctx context.Context, venueID string, futures bool) ([]string, error) {
	return r.kv.SMembers(ctx, store.ByExchangeKey(venueID, futures))
}

func (r *Registry) SymbolByContract(ctx context.Context, chain, address string) (string, bool, error) {
	return r.kv.Get(ctx, store.ContractKey(chain, address))
}

func (r *Registry) TouchLastUpdate(ctx context.Context) error {
	return r.kv.Set(ctx, store.KeyTickersLastUpdate, time.Now().Format(time.RFC3339), 0)
}

// Pairs enumerates every ArbitragePair for one Ticker, per §4.2 "Pair
// generation" and §3's orientation rule.
func (r *Registry) Pairs(t *model.Ticker, venueChains map[string][]string, sameExchangeOf func(a, b string) bool) []model.ArbitragePair {
	var out []model.ArbitragePair
	for _, combo := range t.PairCandidates() {
		a, b := combo[0], combo[1]
		kindA, kindB := t.Venues[a], t.Venues[b]

		low, high := a, b
		lowKind, highKind := kindA, kindB
		// orient so that, when exactly one side is shortable, it is "high"
		// (the side you'd short/sell); ties keep alphabetical order from
		// PairCandidates, which is already deterministic.
		if !kindA.Shortable() && kindB.Shortable() {
			low, high, lowKind, highKind = a, b, kindA, kindB
		} else if kindA.Shortable() && !kindB.Shortable() {
			low, high, lowKind, highKind = b, a, kindB, kindA
		}

		same := sameExchangeOf(low, high)
		out = append(out, model.NewArbitragePair(t.Symbol, low, lowKind, venueChains[low], high, highKind, venueChains[high], same))
	}
	return out
}
