package alert

import (
	"context"
	"testing"

	"arbiscan/internal/store"
)

func TestBlacklist_AddRemoveContains(t *testing.T) {
	kv := store.NewMemoryStore()
	bl := NewBlacklist(kv)
	ctx := context.Background()

	if ok, _ := bl.Contains(ctx, "SCAM"); ok {
		t.Fatal("expected SCAM to not be blacklisted yet")
	}
	if err := bl.Add(ctx, "SCAM"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := bl.Contains(ctx, "SCAM"); !ok {
		t.Fatal("expected SCAM to be blacklisted after Add")
	}
	if err := bl.Remove(ctx, "SCAM"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := bl.Contains(ctx, "SCAM"); ok {
		t.Fatal("expected SCAM removed from blacklist")
	}
}
