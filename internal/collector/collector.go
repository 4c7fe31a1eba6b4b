package collector

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"arbiscan/internal/model"
	"arbiscan/internal/platform/metrics"
	"arbiscan/internal/store"
	"arbiscan/internal/venue"
)

const (
	// defaultWorkerBudget is the hard per-worker kill timeout of §4.3
	// "Scheduling"; a worker still running past this is abandoned, its
	// results miss this tick's flush, and it is simply retried next tick.
	defaultWorkerBudget = 15 * time.Second

	// defaultTickInterval is the nominal scheduling period; real per-venue
	// refresh settles near 1 Hz once batch latency (100-800ms) is folded in.
	defaultTickInterval = time.Second
)

// source is one (venue, market_kind) polling unit. A cex adapter that
// supports both spot and futures contributes two sources.
type source struct {
	adapter venue.Adapter
	kind    model.MarketKind
}

// Collector runs the parallel per-venue polling loop of §4.3, merging
// every tick's successful records into an in-process PriceStore and then
// flushing the union through to the shared KV store.
type Collector struct {
	sources      []source
	store        *PriceStore
	kv           store.KVStore
	metrics      *metrics.Registry
	log          zerolog.Logger
	workerBudget time.Duration
	tickInterval time.Duration
}

func New(kv store.KVStore, metricsReg *metrics.Registry, log zerolog.Logger) *Collector {
	return &Collector{
		store:        NewPriceStore(16),
		kv:           kv,
		metrics:      metricsReg,
		log:          log,
		workerBudget: defaultWorkerBudget,
		tickInterval: defaultTickInterval,
	}
}

// AddSource registers one (venue, market_kind) polling unit; call once per
// adapter/kind combination before Run.
func (c *Collector) AddSource(a venue.Adapter, kind model.MarketKind) {
	c.sources = append(c.sources, source{adapter: a, kind: kind})
}

// Store exposes the in-process price store for readers (calc, lagging
// detector) that want fresher-than-KV data without a round trip.
func (c *Collector) Store() *PriceStore { return c.store }

// SetTickInterval overrides the default 1s scheduling period (§4.3
// "Tick interval default 1 s"); call before Run. Values <= 0 are ignored.
func (c *Collector) SetTickInterval(d time.Duration) {
	if d > 0 {
		c.tickInterval = d
	}
}

// Run blocks, ticking at c.tickInterval until ctx is cancelled. Each tick
// fans out one goroutine per source, each bounded by workerBudget; a
// worker exceeding its budget is abandoned (its goroutine leaks until the
// adapter call itself respects ctx cancellation, per the adapter contract
// that every Adapter method takes a ctx).
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Collector) tick(parent context.Context) {
	var wg sync.WaitGroup
	for _, src := range c.sources {
		wg.Add(1)
		go func(src source) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(parent, c.workerBudget)
			defer cancel()
			c.pollOne(ctx, src)
		}(src)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.workerBudget):
	}
	c.flush(parent)
}

func (c *Collector) pollOne(ctx context.Context, src source) {
	quotes, err := src.adapter.Tickers(ctx, nil, src.kind)
	if err != nil {
		if c.metrics != nil {
			c.metrics.WorkerFailureCount.WithLabelValues(src.adapter.VenueID()).Inc()
			c.metrics.VenueHealthy.WithLabelValues(src.adapter.VenueID()).Set(0)
		}
		c.log.Warn().Err(err).Str("venue", src.adapter.VenueID()).Str("market", string(src.kind)).Msg("collector: tickers call failed, retrying next tick")
		return
	}
	now := time.Now()
	for symbol, q := range quotes {
		rec := model.PriceRecord{
			Symbol:       symbol,
			VenueID:      src.adapter.VenueID(),
			Market:       src.kind,
			Bid:          q.Bid,
			Ask:          q.Ask,
			Last:         q.Last,
			VenueTime:    q.Timestamp,
			ReceivedTime: now,
		}
		if !rec.Valid() {
			continue
		}
		c.store.Put(rec)
	}
	if c.metrics != nil {
		c.metrics.WorkerLastSuccess.WithLabelValues(src.adapter.VenueID()).Set(float64(now.Unix()))
		c.metrics.VenueHealthy.WithLabelValues(src.adapter.VenueID()).Set(1)
	}
}

// flush serializes the whole PriceStore into prices:latest with a 2x
// tick-interval TTL and touches the prices:last_update sentinel, per §4.3
// "Writes".
func (c *Collector) flush(ctx context.Context) {
	snapshot := c.store.Snapshot()
	blob, err := json.Marshal(snapshot)
	if err != nil {
		c.log.Error().Err(err).Msg("collector: failed to marshal prices:latest snapshot")
		return
	}
	ttl := 2 * c.tickInterval
	if err := c.kv.Set(ctx, store.KeyPricesLatest, string(blob), ttl); err != nil {
		c.log.Warn().Err(err).Msg("collector: failed to write prices:latest")
		return
	}
	if err := c.kv.Set(ctx, store.KeyPricesLastUpdate, time.Now().Format(time.RFC3339), 0); err != nil {
		c.log.Warn().Err(err).Msg("collector: failed to touch prices:last_update")
	}
}
