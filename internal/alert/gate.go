// Package alert implements the Alert Gate of §4.8: an ordered policy
// pipeline (blacklist, cooldown claim via SetNX, dedup, dispatch; the claim
// is released when dispatch fails) in front of the notification transport.
package alert

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"arbiscan/internal/model"
	"arbiscan/internal/notify"
	"arbiscan/internal/platform/metrics"
	"arbiscan/internal/store"
)

// backoffSchedule is the retry backoff on a transport error, per §4.8
// "Failure semantics".
var backoffSchedule = []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second}

// SuppressReason names which pipeline step suppressed a signal.
type SuppressReason string

const (
	SuppressBlacklist SuppressReason = "blacklist"
	SuppressCooldown  SuppressReason = "cooldown"
	SuppressDedup     SuppressReason = "dedup"
)

// Gate runs the ordered suppression pipeline and dispatches through a
// notify.Transport. A pair's cooldown key and blacklist membership are read
// through the shared KV store so two gate instances racing on the same
// pair cannot both dispatch (SetNX is the create-if-absent primitive).
type Gate struct {
	kv          store.KVStore
	transport   notify.Transport
	metrics     *metrics.Registry
	log         zerolog.Logger
	cooldownTTL time.Duration
	backoff     []time.Duration

	inFlight *inFlightSet

	throttledUntil time.Time
	throttleMu     sync.Mutex
}

func New(kv store.KVStore, transport notify.Transport, metricsReg *metrics.Registry, log zerolog.Logger, cooldownTTL time.Duration) *Gate {
	return &Gate{
		kv: kv, transport: transport, metrics: metricsReg, log: log,
		cooldownTTL: cooldownTTL, backoff: backoffSchedule,
		inFlight: newInFlightSet(),
	}
}

// Process runs one signal through the pipeline, returning the resulting
// status and, if suppressed or failed, the reason.
func (g *Gate) Process(ctx context.Context, sig model.Signal) (model.SignalStatus, SuppressReason) {
	if g.isThrottled() {
		return model.StatusBlockedCooldown, SuppressCooldown
	}

	blacklisted, err := g.kv.SIsMember(ctx, store.KeyBlacklistSymbols, sig.Opportunity.Pair.Symbol)
	if err != nil {
		g.log.Warn().Err(err).Msg("alert: blacklist check failed, failing closed")
		return model.StatusDispatchFailed, ""
	}
	if blacklisted {
		if g.metrics != nil {
			g.metrics.AlertsSuppressed.WithLabelValues(string(SuppressBlacklist)).Inc()
		}
		return model.StatusBlockedBlacklist, SuppressBlacklist
	}

	pairID := sig.Opportunity.Pair.PairID

	// Claim the cooldown key before dispatch: SetNX is the cross-process
	// exclusivity lock, not just a post-dispatch marker. Two Gate instances
	// (scanner + alert_worker) racing on the same pair-tick must have only
	// one winner reach dispatchWithRetry, per Testable Property 6.
	won, err := g.kv.SetNX(ctx, store.CooldownKey(pairID), cooldownValue(pairID, time.Now()), g.cooldownTTL)
	if err != nil {
		g.log.Warn().Err(err).Msg("alert: cooldown claim failed, failing closed")
		return model.StatusDispatchFailed, ""
	}
	if !won {
		if g.metrics != nil {
			g.metrics.AlertsSuppressed.WithLabelValues(string(SuppressCooldown)).Inc()
		}
		return model.StatusBlockedCooldown, SuppressCooldown
	}

	if !g.inFlight.claim(pairID) {
		g.releaseCooldownClaim(ctx, pairID)
		if g.metrics != nil {
			g.metrics.AlertsSuppressed.WithLabelValues(string(SuppressDedup)).Inc()
		}
		return model.StatusBlockedCooldown, SuppressDedup
	}
	defer g.inFlight.release(pairID)

	if err := g.dispatchWithRetry(ctx, sig); err != nil {
		// Dispatch never reached anyone: release the claim so the pair is
		// retryable on the very next tick instead of cooling down on a
		// notification nobody received.
		g.releaseCooldownClaim(ctx, pairID)
		return model.StatusDispatchFailed, ""
	}

	if g.metrics != nil {
		g.metrics.AlertsDispatched.Inc()
	}
	return model.StatusDispatched, ""
}

// releaseCooldownClaim deletes a cooldown key this Gate just won but did not
// end up dispatching on, so the pair isn't stuck cooling down for nothing.
func (g *Gate) releaseCooldownClaim(ctx context.Context, pairID string) {
	if err := g.kv.Delete(ctx, store.CooldownKey(pairID)); err != nil {
		g.log.Warn().Err(err).Str("pair_id", pairID).Msg("alert: failed to release cooldown claim after a non-dispatch")
	}
}

func (g *Gate) isThrottled() bool {
	g.throttleMu.Lock()
	defer g.throttleMu.Unlock()
	return time.Now().Before(g.throttledUntil)
}

func (g *Gate) throttleFor(d time.Duration) {
	g.throttleMu.Lock()
	defer g.throttleMu.Unlock()
	until := time.Now().Add(d)
	if until.After(g.throttledUntil) {
		g.throttledUntil = until
	}
}

// dispatchWithRetry retries a transport error per backoffSchedule; a rate
// limit error throttles the whole gate for its RetryAfter instead of
// consuming a retry slot, per §4.8.
func (g *Gate) dispatchWithRetry(ctx context.Context, sig model.Signal) error {
	msg := notify.Message{StrategyID: sig.StrategyID, Text: renderText(sig)}

	var lastErr error
	for attempt := 0; ; attempt++ {
		err := g.transport.Send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if rlErr, ok := err.(*notify.RateLimitError); ok {
			g.throttleFor(rlErr.RetryAfter)
			return err
		}

		if attempt >= len(g.backoff) {
			break
		}
		select {
		case <-time.After(g.backoff[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.log.Warn().Err(lastErr).Str("strategy_id", sig.StrategyID).Msg("alert: dispatch failed after exhausting retries")
	return lastErr
}

func renderText(sig model.Signal) string {
	lines := append([]string{sig.StrategyID}, sig.ActionText...)
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func cooldownValue(pairID string, t time.Time) string {
	blob, _ := json.Marshal(model.CooldownEntry{PairID: pairID, DispatchedAt: t})
	return string(blob)
}
