package alert

import (
	"context"
	"encoding/json"

	"arbiscan/internal/model"
	"arbiscan/internal/store"
)

// CooldownTracker exposes read access to alert:cooldown:{pair_id} entries
// for callers that need to report remaining cooldown state (the status
// HTTP surface) without duplicating the gate's dispatch logic.
type CooldownTracker struct {
	kv store.KVStore
}

func NewCooldownTracker(kv store.KVStore) *CooldownTracker {
	return &CooldownTracker{kv: kv}
}

func (c *CooldownTracker) Active(ctx context.Context, pairID string) (*model.CooldownEntry, bool, error) {
	raw, found, err := c.kv.Get(ctx, store.CooldownKey(pairID))
	if err != nil || !found {
		return nil, found, err
	}
	var entry model.CooldownEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

func (c *CooldownTracker) Clear(ctx context.Context, pairID string) error {
	return c.kv.Delete(ctx, store.CooldownKey(pairID))
}
