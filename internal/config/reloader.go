package config

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// KVReader is the narrow slice of the state store Reloader needs: reading
// the config:* namespace described in §6. internal/store.KVStore satisfies
// this without either package importing the other's full surface.
type KVReader interface {
	GetAllHash(ctx context.Context, key string) (map[string]string, error)
}

// Reloader polls the KV store's config:* hash and atomically swaps a
// *ScannerConfig so readers never observe a half-updated struct.
type Reloader struct {
	store    KVReader
	key      string
	interval time.Duration
	log      zerolog.Logger

	current atomic.Pointer[ScannerConfig]
}

func NewReloader(store KVReader, initial ScannerConfig, interval time.Duration, log zerolog.Logger) *Reloader {
	r := &Reloader{store: store, key: "config:scanner", interval: interval, log: log}
	r.current.Store(&initial)
	return r
}

// Current returns the latest loaded ScannerConfig snapshot.
func (r *Reloader) Current() ScannerConfig {
	return *r.current.Load()
}

// Run polls until ctx is cancelled. Failures to read the store are logged
// at warn and the previous snapshot is kept; this is a state_store_error,
// never fatal.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reloadOnce(ctx)
		}
	}
}

func (r *Reloader) reloadOnce(ctx context.Context) {
	fields, err := r.store.GetAllHash(ctx, r.key)
	if err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("config reload failed, keeping previous snapshot")
		return
	}
	if len(fields) == 0 {
		return
	}
	next := r.Current()
	applyOverrides(&next, fields)
	r.current.Store(&next)
}

func applyOverrides(c *ScannerConfig, fields map[string]string) {
	f := func(k string, dst *float64) {
		if v, ok := fields[k]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = parsed
			}
		}
	}
	i := func(k string, dst *int) {
		if v, ok := fields[k]; ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
			}
		}
	}
	b := func(k string, dst *bool) {
		if v, ok := fields[k]; ok {
			if parsed, err := strconv.ParseBool(v); err == nil {
				*dst = parsed
			}
		}
	}

	f("min_spread_pct", &c.MinSpreadPct)
	i("alert_cooldown_seconds", &c.AlertCooldownSeconds)
	f("min_exit_liquidity_usd", &c.MinExitLiquidityUSD)
	f("min_position_size_usd", &c.MinPositionSizeUSD)
	f("max_position_size_usd", &c.MaxPositionSizeUSD)
	f("suggested_position_usd", &c.SuggestedPositionUSD)
	f("max_slippage_pct", &c.MaxSlippagePct)
	i("max_latency_ms", &c.MaxLatencyMs)
	f("max_position_to_exit_ratio", &c.MaxPositionToExitRatio)
	f("max_bid_ask_spread_pct", &c.MaxBidAskSpreadPct)
	i("max_spread_age_sec", &c.MaxSpreadAgeSec)
	i("max_spread_age_hours", &c.MaxSpreadAgeHours)
	f("min_depth_vs_history_ratio", &c.MinDepthVsHistoryRatio)
	f("warning_depth_ratio", &c.WarningDepthRatio)
	f("min_liquidity_usd", &c.MinLiquidityUSD)
	f("min_dex_liquidity_usd", &c.MinDEXLiquidityUSD)
	f("min_volume_24h_dex", &c.MinVolume24hDEX)
	f("min_volume_24h_futures", &c.MinVolume24hFutures)
	b("enable_auto_signals", &c.EnableAutoSignals)
	b("enable_manual_signals", &c.EnableManualSignals)
	b("enable_lagging_signals", &c.EnableLaggingSignals)
	b("enable_funding_signals", &c.EnableFundingSignals)
	b("enable_zscore_signals", &c.EnableZScoreSignals)
	b("enable_stablecoin_signals", &c.EnableStablecoinSignals)
	i("lagging_min_exchanges", &c.LaggingMinExchanges)
	f("lagging_min_deviation_pct", &c.LaggingMinDeviationPct)
	f("lagging_max_other_deviation_pct", &c.LaggingMaxOtherDeviation)
	i("price_update_interval_sec", &c.PriceUpdateIntervalSec)
	i("ticker_discovery_interval_hours", &c.TickerDiscoveryIntervalH)
	b("require_shortable_high_venue", &c.RequireShortableHighVenue)
}
