// Package orderbook implements the on-demand depth retrieval of §4.4: a
// short-TTL cache in front of the venue adapter, with graceful stale
// fallback on adapter failure.
package orderbook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"arbiscan/internal/model"
	"arbiscan/internal/platform/metrics"
	"arbiscan/internal/store"
	"arbiscan/internal/venue"
)

const (
	defaultCacheTTL   = 60 * time.Second
	defaultDepth      = 50
	staleFallbackMult = 2
)

// Fetcher implements fetch(venue, symbol, depth) -> OrderBookSnapshot |
// absent. A cache entry is persisted for staleFallbackMult*ttl so a failed
// live call can still recover a still-fresh-enough fallback within the
// 2xTTL window.
type Fetcher struct {
	kv       store.KVStore
	metrics  *metrics.Registry
	log      zerolog.Logger
	cacheTTL time.Duration
}

func New(kv store.KVStore, metricsReg *metrics.Registry, log zerolog.Logger) *Fetcher {
	return &Fetcher{kv: kv, metrics: metricsReg, log: log, cacheTTL: defaultCacheTTL}
}

// Fetch returns a book for (adapter, symbol), cache-first, falling back to
// a live call on miss and to a stale cache entry (up to 2xTTL) on adapter
// failure. ok=false ("absent") means upstream must not proceed.
func (f *Fetcher) Fetch(ctx context.Context, a venue.Adapter, symbol string, depth int, kind model.MarketKind) (model.OrderBookSnapshot, bool) {
	if depth <= 0 {
		depth = defaultDepth
	}
	key := store.OrderbookCacheKey(a.VenueID(), symbol)

	if cached, ok := f.readCache(ctx, key); ok && !f.isStale(cached, f.cacheTTL) {
		f.hit()
		cached.Cached = true
		return cached, true
	}

	requested := time.Now()
	live, err := a.OrderBook(ctx, symbol, depth, kind)
	if err == nil {
		f.miss()
		live.RequestedTime = requested
		live.RespondedTime = time.Now()
		live.Cached = false
		f.writeCache(ctx, key, live)
		return live, true
	}

	f.log.Warn().Err(err).Str("venue", a.VenueID()).Str("symbol", symbol).Msg("orderbook: live fetch failed, falling back to cache")
	if cached, ok := f.readCache(ctx, key); ok && !f.isStale(cached, staleFallbackMult*f.cacheTTL) {
		cached.Cached = true
		return cached, true
	}
	return model.OrderBookSnapshot{}, false
}

func (f *Fetcher) isStale(snap model.OrderBookSnapshot, ttl time.Duration) bool {
	return time.Since(snap.RespondedTime) > ttl
}

func (f *Fetcher) readCache(ctx context.Context, key string) (model.OrderBookSnapshot, bool) {
	raw, found, err := f.kv.Get(ctx, key)
	if err != nil || !found {
		return model.OrderBookSnapshot{}, false
	}
	var snap model.OrderBookSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return model.OrderBookSnapshot{}, false
	}
	return snap, true
}

func (f *Fetcher) writeCache(ctx context.Context, key string, snap model.OrderBookSnapshot) {
	blob, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := f.kv.Set(ctx, key, string(blob), staleFallbackMult*f.cacheTTL); err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("orderbook: failed to write cache entry")
	}
}

func (f *Fetcher) hit() {
	if f.metrics != nil {
		f.metrics.OrderbookCacheHit.Inc()
	}
}

func (f *Fetcher) miss() {
	if f.metrics != nil {
		f.metrics.OrderbookCacheMiss.Inc()
	}
}
