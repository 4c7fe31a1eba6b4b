package alert

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"arbiscan/internal/store"
)

func TestCooldownTracker_ActiveAfterGateDispatch(t *testing.T) {
	kv := store.NewMemoryStore()
	tr := &fakeTransport{}
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)
	ctx := context.Background()

	if _, dispatched := g.Process(ctx, sampleSignal("p1", "BTC")); dispatched != "" {
		t.Fatalf("expected clean dispatch, got reason %s", dispatched)
	}

	ct := NewCooldownTracker(kv)
	entry, found, err := ct.Active(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected an active cooldown entry after dispatch")
	}
	if entry.PairID != "p1" {
		t.Errorf("expected pair_id p1, got %s", entry.PairID)
	}

	if err := ct.Clear(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := ct.Active(ctx, "p1"); found {
		t.Error("expected cooldown cleared")
	}
}
