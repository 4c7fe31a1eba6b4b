package alert

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"arbiscan/internal/model"
	"arbiscan/internal/notify"
	"arbiscan/internal/store"
)

type fakeTransport struct {
	sends   int32
	err     error
	rlAfter time.Duration
}

func (f *fakeTransport) Send(ctx context.Context, msg notify.Message) error {
	atomic.AddInt32(&f.sends, 1)
	if f.rlAfter > 0 {
		return &notify.RateLimitError{RetryAfter: f.rlAfter}
	}
	return f.err
}

func sampleSignal(pairID, symbol string) model.Signal {
	return model.Signal{
		StrategyID: "SF-" + symbol + "-TEST",
		ActionText: []string{"BUY " + symbol},
		Opportunity: model.Opportunity{
			Pair: model.ArbitragePair{PairID: pairID, Symbol: symbol},
		},
	}
}

func TestGate_DispatchesWhenClear(t *testing.T) {
	kv := store.NewMemoryStore()
	tr := &fakeTransport{}
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)

	status, reason := g.Process(context.Background(), sampleSignal("p1", "BTC"))
	if status != model.StatusDispatched {
		t.Fatalf("expected dispatched, got %s (%s)", status, reason)
	}
	if atomic.LoadInt32(&tr.sends) != 1 {
		t.Errorf("expected exactly one send, got %d", tr.sends)
	}
}

func TestGate_BlocksBlacklistedSymbol(t *testing.T) {
	kv := store.NewMemoryStore()
	if err := kv.SAdd(context.Background(), store.KeyBlacklistSymbols, "SCAM"); err != nil {
		t.Fatal(err)
	}
	tr := &fakeTransport{}
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)

	status, reason := g.Process(context.Background(), sampleSignal("p1", "SCAM"))
	if status != model.StatusBlockedBlacklist || reason != SuppressBlacklist {
		t.Fatalf("expected blacklist block, got %s/%s", status, reason)
	}
	if tr.sends != 0 {
		t.Errorf("expected no dispatch, got %d sends", tr.sends)
	}
}

func TestGate_SecondDispatchBlockedByCooldown(t *testing.T) {
	kv := store.NewMemoryStore()
	tr := &fakeTransport{}
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)

	sig := sampleSignal("p1", "BTC")
	if status, _ := g.Process(context.Background(), sig); status != model.StatusDispatched {
		t.Fatalf("expected first dispatch to succeed, got %s", status)
	}
	status, reason := g.Process(context.Background(), sig)
	if status != model.StatusBlockedCooldown || reason != SuppressCooldown {
		t.Fatalf("expected cooldown block on second attempt, got %s/%s", status, reason)
	}
	if tr.sends != 1 {
		t.Errorf("expected only one send total, got %d", tr.sends)
	}
}

func TestGate_RateLimitThrottlesSubsequentDispatches(t *testing.T) {
	kv := store.NewMemoryStore()
	tr := &fakeTransport{rlAfter: time.Hour}
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)

	status, _ := g.Process(context.Background(), sampleSignal("p1", "BTC"))
	if status != model.StatusDispatchFailed {
		t.Fatalf("expected dispatch_failed due to rate limit, got %s", status)
	}

	status2, reason2 := g.Process(context.Background(), sampleSignal("p2", "ETH"))
	if status2 != model.StatusBlockedCooldown || reason2 != SuppressCooldown {
		t.Fatalf("expected the whole gate throttled for a different pair, got %s/%s", status2, reason2)
	}
}

func TestGate_RetriesTransientTransportErrorsThenSucceeds(t *testing.T) {
	kv := store.NewMemoryStore()
	attempts := 0
	tr := &countingTransport{fail: 2}
	_ = attempts
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)
	g.backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

	status, _ := g.Process(context.Background(), sampleSignal("p1", "BTC"))
	if status != model.StatusDispatched {
		t.Fatalf("expected eventual dispatch after retries, got %s", status)
	}
	if tr.calls != 3 {
		t.Errorf("expected 3 attempts (2 failures + 1 success), got %d", tr.calls)
	}
}

// TestGate_CooldownClaimedBeforeDispatchAcrossInstances reproduces the
// cross-process race in Testable Property 6: two Gate instances (standing in
// for the scanner and alert_worker processes) sharing one KV store both see
// the same pair-tick. Only the one that wins the SetNX claim may dispatch.
func TestGate_CooldownClaimedBeforeDispatchAcrossInstances(t *testing.T) {
	kv := store.NewMemoryStore()
	tr1 := &fakeTransport{}
	tr2 := &fakeTransport{}
	g1 := New(kv, tr1, nil, zerolog.Nop(), time.Minute)
	g2 := New(kv, tr2, nil, zerolog.Nop(), time.Minute)

	sig := sampleSignal("p1", "BTC")
	status1, _ := g1.Process(context.Background(), sig)
	status2, reason2 := g2.Process(context.Background(), sig)

	dispatched := 0
	if status1 == model.StatusDispatched {
		dispatched++
	}
	if status2 == model.StatusDispatched {
		dispatched++
	}
	if dispatched != 1 {
		t.Fatalf("expected exactly one of the two racing gates to dispatch, got statuses %s/%s", status1, status2)
	}
	if status2 != model.StatusDispatched && reason2 != SuppressCooldown {
		t.Errorf("expected the losing gate to be suppressed by cooldown, got reason %s", reason2)
	}
	if tr1.sends+tr2.sends != 1 {
		t.Errorf("expected exactly one transport send total, got tr1=%d tr2=%d", tr1.sends, tr2.sends)
	}
}

// TestGate_FailedDispatchReleasesCooldownClaimForRetry ensures a dispatch
// that exhausts its retries releases the cooldown key it claimed, so the
// same pair can be retried on the very next tick instead of silently
// cooling down on a notification nobody received.
func TestGate_FailedDispatchReleasesCooldownClaimForRetry(t *testing.T) {
	kv := store.NewMemoryStore()
	tr := &fakeTransport{err: errors.New("permanent failure")}
	g := New(kv, tr, nil, zerolog.Nop(), time.Minute)
	g.backoff = nil

	sig := sampleSignal("p1", "BTC")
	status, _ := g.Process(context.Background(), sig)
	if status != model.StatusDispatchFailed {
		t.Fatalf("expected dispatch_failed, got %s", status)
	}

	_, found, err := kv.Get(context.Background(), store.CooldownKey("p1"))
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected the cooldown claim to be released after a failed dispatch")
	}
}

type countingTransport struct {
	fail  int
	calls int
}

func (c *countingTransport) Send(ctx context.Context, msg notify.Message) error {
	c.calls++
	if c.calls <= c.fail {
		return errors.New("transient failure")
	}
	return nil
}
