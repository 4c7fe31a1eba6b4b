package orderbook

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"arbiscan/internal/model"
	"arbiscan/internal/venue"
)

// defaultParallelCeiling is the "never blocks past" ceiling of §4.4's
// fetch_parallel.
const defaultParallelCeiling = 15 * time.Second

// Request is one (adapter, symbol, depth, kind) unit for FetchParallel.
type Request struct {
	Adapter venue.Adapter
	Symbol  string
	Depth   int
	Kind    model.MarketKind
}

// Result pairs a Request's key with its fetch outcome.
type Result struct {
	VenueID string
	Symbol  string
	Book    model.OrderBookSnapshot
	OK      bool
}

// FetchParallel issues every request on its own worker, rate-limited by a
// shared limiter (the global QPS ceiling across all venues this process
// talks to), and returns whatever completed within ceiling — stragglers
// past the ceiling are simply absent from the result, never blocking the
// caller, per §4.4.
func (f *Fetcher) FetchParallel(parent context.Context, reqs []Request, limiter *rate.Limiter, ceiling time.Duration) []Result {
	if ceiling <= 0 {
		ceiling = defaultParallelCeiling
	}
	ctx, cancel := context.WithTimeout(parent, ceiling)
	defer cancel()

	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i] = Result{VenueID: req.Adapter.VenueID(), Symbol: req.Symbol, OK: false}
					return
				}
			}
			book, ok := f.Fetch(ctx, req.Adapter, req.Symbol, req.Depth, req.Kind)
			results[i] = Result{VenueID: req.Adapter.VenueID(), Symbol: req.Symbol, Book: book, OK: ok}
		}(i, req)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return results
}
