// Package orchestrator owns process lifecycle: fanning out the per-venue
// collector workers, running the periodic spread-scan loop over tracked
// pairs, and graceful shutdown — adapted from the teacher's Engine.Run
// goroutine fan-out and periodicTasks ticker loop, generalized from a
// trade-execution engine to a read-only scan-and-signal pipeline.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arbiscan/internal/alert"
	"arbiscan/internal/calc"
	"arbiscan/internal/collector"
	"arbiscan/internal/config"
	"arbiscan/internal/model"
	"arbiscan/internal/notify"
	"arbiscan/internal/opsfeed"
	"arbiscan/internal/orchestrator/health"
	"arbiscan/internal/orderbook"
	"arbiscan/internal/platform/metrics"
	"arbiscan/internal/signal"
	"arbiscan/internal/store"
	"arbiscan/internal/validator"
	"arbiscan/internal/venue"
)

const (
	defaultScanInterval    = 2 * time.Second
	defaultHealthLogEvery  = 30 * time.Second
	maxConsecutiveFailures = 3
	spreadAgeThresholdPct  = 1.0
)

// PairSource supplies the current set of tracked pairs; the discovery
// process (§4.2) owns its implementation, this package only consumes it.
type PairSource interface {
	Pairs() []model.ArbitragePair
}

// NetworkSource supplies one venue's deposit/withdraw capability on one
// chain, for the manual-only deposit_withdraw check (§4.6 check 11).
// registry.PairSource implements this alongside PairSource.
type NetworkSource interface {
	NetworkFlags(symbol, venueID, chain string) (model.NetworkFlags, bool)
}

// Scanner ties the collector, order-book fetcher, spread calculator,
// safety validator, signal builder, alert gate and ops feed into one
// periodic scan loop.
type Scanner struct {
	collector *collector.Collector
	fetcher   *orderbook.Fetcher
	adapters  map[string]venue.Adapter
	venues    map[string]model.Venue
	pairs     PairSource
	networks  NetworkSource
	gate      *alert.Gate
	hub       *opsfeed.Hub
	health    *health.Tracker
	depth     *DepthBaselines
	spreadAge *SpreadAgeTracker
	vol       *calc.VolatilityTracker
	metrics   *metrics.Registry
	log       zerolog.Logger

	// cfg is nil outside the scanner/alert_worker commands (unit tests,
	// one-shot tools); every field below is its fallback in that case.
	cfg *config.Reloader

	thresholds    validator.Thresholds
	scanInterval  time.Duration
	defaultPosUSD decimal.Decimal
	minSpreadPct  decimal.Decimal
	lagging       calc.LaggingParams
}

// Config bundles Scanner's constructor dependencies; every field is
// required except ScanInterval (defaults to 2s), DefaultPosUSD (defaults to
// $1000), Networks (derived from Pairs when it also implements
// NetworkSource), Hub and Metrics (nil skips broadcasting and metric
// updates) and ConfigReloader (omit to run on the construction-time
// defaults only, e.g. in tests).
type Config struct {
	Collector      *collector.Collector
	Fetcher        *orderbook.Fetcher
	Adapters       map[string]venue.Adapter
	Venues         map[string]model.Venue
	Pairs          PairSource
	Networks       NetworkSource
	KV             store.KVStore
	Transport      notify.Transport
	Hub            *opsfeed.Hub
	Metrics        *metrics.Registry
	Log            zerolog.Logger
	ConfigReloader *config.Reloader
	ScanInterval   time.Duration
	CooldownTTL    time.Duration
	DefaultPosUSD  decimal.Decimal
}

func New(cfg Config) *Scanner {
	interval := cfg.ScanInterval
	if interval <= 0 {
		interval = defaultScanInterval
	}
	posUSD := cfg.DefaultPosUSD
	if posUSD.IsZero() {
		posUSD = decimal.NewFromInt(1000)
	}

	networks := cfg.Networks
	if networks == nil {
		if ns, ok := cfg.Pairs.(NetworkSource); ok {
			networks = ns
		}
	}

	return &Scanner{
		collector:     cfg.Collector,
		fetcher:       cfg.Fetcher,
		adapters:      cfg.Adapters,
		venues:        cfg.Venues,
		pairs:         cfg.Pairs,
		networks:      networks,
		gate:          alert.New(cfg.KV, cfg.Transport, cfg.Metrics, cfg.Log, cfg.CooldownTTL),
		hub:           cfg.Hub,
		health:        health.NewTracker(),
		depth:         NewDepthBaselines(),
		spreadAge:     NewSpreadAgeTracker(),
		vol:           calc.NewVolatilityTracker(),
		metrics:       cfg.Metrics,
		log:           cfg.Log,
		cfg:           cfg.ConfigReloader,
		thresholds:    validator.DefaultThresholds(),
		scanInterval:  interval,
		defaultPosUSD: posUSD,
		minSpreadPct:  decimal.NewFromFloat(1.0),
		lagging:       calc.DefaultLaggingParams(),
	}
}

// Run starts the collector loop plus the periodic scan/health loops and
// blocks until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	go func() {
		if err := s.collector.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("orchestrator: collector loop exited")
		}
	}()

	go s.scanLoop(ctx)
	go s.healthLogLoop(ctx)

	<-ctx.Done()
	return ctx.Err()
}

func (s *Scanner) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *Scanner) healthLogLoop(ctx context.Context) {
	ticker := time.NewTicker(defaultHealthLogEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			healthy, total := s.health.Counts()
			s.log.Info().Int("venues_healthy", healthy).Int("venues_total", total).
				Msg("orchestrator: health summary")
		}
	}
}

// liveSettings is one tick's snapshot of every config.Reloader-backed knob
// scanPair needs, read once per scanOnce so every pair in the tick sees a
// consistent view, per §6 "re-read each tick".
type liveSettings struct {
	thresholds    validator.Thresholds
	positionUSD   decimal.Decimal
	minSpreadPct  decimal.Decimal
	lagging       calc.LaggingParams
	enableAuto    bool
	enableManual  bool
	enableLagging bool
}

func (s *Scanner) liveSettings() liveSettings {
	if s.cfg == nil {
		return liveSettings{
			thresholds:    s.thresholds,
			positionUSD:   s.defaultPosUSD,
			minSpreadPct:  s.minSpreadPct,
			lagging:       s.lagging,
			enableAuto:    true,
			enableManual:  true,
			enableLagging: true,
		}
	}
	c := s.cfg.Current()
	posUSD := decimal.NewFromFloat(c.SuggestedPositionUSD)
	if !posUSD.IsPositive() {
		posUSD = s.defaultPosUSD
	}
	return liveSettings{
		thresholds:   thresholdsFromConfig(c),
		positionUSD:  posUSD,
		minSpreadPct: decimal.NewFromFloat(c.MinSpreadPct),
		lagging: calc.LaggingParams{
			MinVenues:             c.LaggingMinExchanges,
			DeviationThresholdPct: decimal.NewFromFloat(c.LaggingMinDeviationPct),
			OtherVenueCeilingPct:  decimal.NewFromFloat(c.LaggingMaxOtherDeviation),
		},
		enableAuto:    c.EnableAutoSignals,
		enableManual:  c.EnableManualSignals,
		enableLagging: c.EnableLaggingSignals,
	}
}

func thresholdsFromConfig(c config.ScannerConfig) validator.Thresholds {
	maxAge := time.Duration(c.MaxSpreadAgeHours) * time.Hour
	if c.MaxSpreadAgeSec > 0 {
		maxAge = time.Duration(c.MaxSpreadAgeSec) * time.Second
	}
	return validator.Thresholds{
		MinExitLiquidityUSD:  decimal.NewFromFloat(c.MinExitLiquidityUSD),
		MaxPositionRatio:     decimal.NewFromFloat(c.MaxPositionToExitRatio),
		MaxSlippagePct:       decimal.NewFromFloat(c.MaxSlippagePct),
		MaxLatencyMs:         int64(c.MaxLatencyMs),
		MinDepthHistoryRatio: decimal.NewFromFloat(c.MinDepthVsHistoryRatio),
		WarnDepthRatio:       decimal.NewFromFloat(c.WarningDepthRatio),
		MaxSpreadAge:         maxAge,
		MaxSpreadFreshness:   validator.DefaultMaxSpreadFreshness,
		MaxBidAskSpreadPct:   decimal.NewFromFloat(c.MaxBidAskSpreadPct),
	}
}

// scanOnce evaluates every tracked pair once: fetch both books, evaluate
// the spread, sample depth history, validate, build a signal, and (if
// valid) dispatch through the alert gate.
func (s *Scanner) scanOnce(ctx context.Context) {
	now := time.Now()
	live := s.liveSettings()
	for _, pair := range s.pairs.Pairs() {
		s.scanPair(ctx, pair, now, live)
	}
}

// scanPair pre-filters on the latest ticker quotes before ever touching the
// order-book fetcher, per §2 "Flow": only a pair whose last ticker-based
// spread clears live.minSpreadPct is worth the 15s-budgeted book fetch.
func (s *Scanner) scanPair(ctx context.Context, pair model.ArbitragePair, now time.Time, live liveSettings) {
	lowAdapter, ok := s.adapters[pair.LowVenue]
	if !ok {
		return
	}
	highAdapter, ok := s.adapters[pair.HighVenue]
	if !ok {
		return
	}

	tickerTTL := 2 * s.scanInterval
	lowRec, ok := s.collector.Store().Get(pair.Symbol, pair.LowVenue, tickerTTL)
	if !ok {
		return
	}
	highRec, ok := s.collector.Store().Get(pair.Symbol, pair.HighVenue, tickerTTL)
	if !ok {
		return
	}
	s.vol.Observe(pair.Symbol, lowRec.Last, now)

	tickerSpread, ok := calc.TickerSpreadPct(lowRec, highRec)
	if !ok || tickerSpread.LessThan(live.minSpreadPct) {
		return
	}

	lowKind := model.MarketSpot
	if pair.LowKind == model.KindCEXFutures {
		lowKind = model.MarketFutures
	}
	highKind := model.MarketSpot
	if pair.HighKind == model.KindCEXFutures {
		highKind = model.MarketFutures
	}

	lowBook, ok := s.fetcher.Fetch(ctx, lowAdapter, pair.Symbol, 0, lowKind)
	if !ok {
		s.recordFailure(pair.LowVenue)
		return
	}
	s.recordSuccess(pair.LowVenue, now)

	highBook, ok := s.fetcher.Fetch(ctx, highAdapter, pair.Symbol, 0, highKind)
	if !ok {
		s.recordFailure(pair.HighVenue)
		return
	}
	s.recordSuccess(pair.HighVenue, now)

	opp := calc.Evaluate(pair, lowBook, highBook, live.positionUSD, now)
	if opp.NonFinite {
		return
	}

	opp.SuggestedPositionUSD = calc.SuggestedPositionUSD(opp.ExitLowDepthUSD, opp.ExitHighDepthUSD)

	prevAvg, hadHistory := s.depth.Sample(pair.PairID, pair.LowVenue, "exit_liquidity",
		decimalMin(opp.ExitLowDepthUSD, opp.ExitHighDepthUSD))

	age := s.spreadAge.Observe(pair.PairID, opp.RealSpreadPct, decimal.NewFromFloat(spreadAgeThresholdPct), now)

	lagging := s.detectLagging(pair.Symbol, live.lagging)
	opp.Lagging = lagging

	isManual := pair.Type == model.PairManual
	lowWithdraw, highDeposit := s.transferFlags(pair, isManual)
	transferMinutes := decimal.Zero
	if isManual && pair.RequiresTransfer {
		transferMinutes = calc.TransferTimeMinutes(pair.TransferNetwork)
	}

	result := validator.Run(validator.Input{
		Opportunity:         opp,
		PositionUSD:         opp.SuggestedPositionUSD,
		DepthHistoryAvg:     prevAvg,
		HaveDepthHistory:    hadHistory,
		SpreadAge:           age,
		SignalCreatedAt:     now,
		Now:                 now,
		IsManual:            isManual,
		LowWithdrawEnabled:  lowWithdraw,
		HighDepositEnabled:  highDeposit,
		TransferTimeMinutes: transferMinutes,
		SymbolVolPerMinute:  s.vol.PerMinute(pair.Symbol),
	}, live.thresholds)

	sig := signal.Build(opp, result, lagging, isManual, venueDirectory(s.venues), "", now)

	if s.hub != nil {
		s.hub.BroadcastSignal(sig)
	}
	if s.metrics != nil {
		if result.Valid {
			s.metrics.SignalsEmitted.WithLabelValues(string(sig.StrategyType)).Inc()
		} else {
			reason := "unknown"
			if len(result.FailedChecks) > 0 {
				reason = result.FailedChecks[0]
			}
			s.metrics.SignalsRejected.WithLabelValues(reason).Inc()
		}
	}

	if result.Valid && sig.Type != model.SignalInvalid && s.signalTypeEnabled(sig.Type, live) {
		s.gate.Process(ctx, sig)
	}
}

// transferFlags resolves the deposit_withdraw check's two booleans (§4.6
// check 11). Non-manual pairs never consult it (the check trivially
// passes regardless); a pair that needs no physical transfer (same
// exchange, or one spot + one futures leg of it) trivially satisfies both
// sides too.
func (s *Scanner) transferFlags(pair model.ArbitragePair, isManual bool) (lowWithdraw, highDeposit bool) {
	if !isManual {
		return false, false
	}
	if !pair.RequiresTransfer {
		return true, true
	}
	if s.networks == nil || pair.TransferNetwork == "" {
		return false, false
	}
	low, _ := s.networks.NetworkFlags(pair.Symbol, pair.LowVenue, pair.TransferNetwork)
	high, _ := s.networks.NetworkFlags(pair.Symbol, pair.HighVenue, pair.TransferNetwork)
	return low.WithdrawEnabled, high.DepositEnabled
}

// signalTypeEnabled gates dispatch on the live enable_*_signals settings
// (§6); funding/zscore/stablecoin toggles have no corresponding signal
// type in this build (those families are external collaborators per
// Non-goals) so they are read but never consulted here.
func (s *Scanner) signalTypeEnabled(t model.SignalType, live liveSettings) bool {
	switch t {
	case model.SignalLagging:
		return live.enableLagging
	case model.SignalManual:
		return live.enableManual
	case model.SignalAuto:
		return live.enableAuto
	default:
		return true
	}
}

func (s *Scanner) detectLagging(symbol string, params calc.LaggingParams) *model.LaggingInfo {
	records := s.collector.Store().AllForSymbol(symbol, 2*s.scanInterval)
	return calc.DetectLagging(records, params)
}

func (s *Scanner) recordSuccess(venueID string, at time.Time) {
	s.health.RecordSuccess(venueID, at)
	if s.hub != nil {
		s.hub.BroadcastHealth(opsfeed.HealthEvent{VenueID: venueID, Healthy: true, LastSuccessUnix: at.Unix()})
	}
}

func (s *Scanner) recordFailure(venueID string) {
	s.health.RecordFailure(venueID, maxConsecutiveFailures)
}

func decimalMin(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

type venueDirectory map[string]model.Venue

func (d venueDirectory) Lookup(venueID string) (model.Venue, bool) {
	v, ok := d[venueID]
	return v, ok
}
