package alert

import (
	"context"

	"arbiscan/internal/store"
)

// Blacklist wraps the blacklist:symbols set so callers outside the gate
// (the admin HTTP surface) can manage it without reaching into store
// directly.
type Blacklist struct {
	kv store.KVStore
}

func NewBlacklist(kv store.KVStore) *Blacklist {
	return &Blacklist{kv: kv}
}

func (b *Blacklist) Add(ctx context.Context, symbol string) error {
	return b.kv.SAdd(ctx, store.KeyBlacklistSymbols, symbol)
}

func (b *Blacklist) Remove(ctx context.Context, symbol string) error {
	return b.kv.SRem(ctx, store.KeyBlacklistSymbols, symbol)
}

func (b *Blacklist) Contains(ctx context.Context, symbol string) (bool, error) {
	return b.kv.SIsMember(ctx, store.KeyBlacklistSymbols, symbol)
}

func (b *Blacklist) All(ctx context.Context) ([]string, error) {
	return b.kv.SMembers(ctx, store.KeyBlacklistSymbols)
}
