// Package store defines the shared KV store of §5/§6: the single
// coordination primitive every component reads and writes through, with
// Redis semantics (TTL, create-if-absent, sets, hashes).
package store

import (
	"context"
	"time"
)

// KVStore is the narrow interface every component programs against.
// redis.go implements it over go-redis/v9; memory.go implements it with a
// mutex-guarded map for tests and the single-process `scanner` binary.
type KVStore interface {
	// Get/Set/Delete — string-keyed blobs (JSON-encoded by the caller).
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// SetNX sets key only if absent, returning true if this call won the
	// race. This is the create-if-absent primitive behind at-most-once
	// cooldown dispatch (§4.8, §5, Testable Property 6).
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Sets — blacklist:symbols, tickers:all_symbols, tickers:by_exchange:*.
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)

	// Hashes — config:* settings map, read/write as field sets.
	HSet(ctx context.Context, key string, fields map[string]string) error
	GetAllHash(ctx context.Context, key string) (map[string]string, error)

	// Ping reports whether the store is reachable; used by the health
	// tracker and by the state_store_error escalation threshold.
	Ping(ctx context.Context) error

	Close() error
}

// Namespaced key builders, matching the §6 schema literally.
const (
	KeyTickersMasterPrefix = "tickers:master:"
	KeyTickersAllSymbols   = "tickers:all_symbols"
	KeyTickersByExchange   = "tickers:by_exchange:"
	KeyContractsPrefix     = "contracts:"
	KeyPricesLatest        = "prices:latest"
	KeyPricesLastUpdate    = "prices:last_update"
	KeyOrderbookCache      = "orderbook:cache:"
	KeyAlertCooldown       = "alert:cooldown:"
	KeyBlacklistSymbols    = "blacklist:symbols"
	KeyTickersLastUpdate   = "tickers:last_update"
)

func TickerMasterKey(symbol string) string { return KeyTickersMasterPrefix + symbol }

func ByExchangeKey(exch string, futures bool) string {
	kind := "spot"
	if futures {
		kind = "futures"
	}
	return KeyTickersByExchange + exch + ":" + kind
}

func ContractKey(chain, address string) string { return KeyContractsPrefix + chain + ":" + address }

func OrderbookCacheKey(venue, symbol string) string { return KeyOrderbookCache + venue + ":" + symbol }

func CooldownKey(pairID string) string { return KeyAlertCooldown + pairID }
