package calc

import (
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// chainTransferMinutes gives the typical end-to-end deposit confirmation
// time per chain, used by the transfer_buffer check (§4.6 check 12). Keyed
// on the same chain names as model's transfer-network priority list.
var chainTransferMinutes = map[string]float64{
	"solana":    2,
	"arbitrum":  5,
	"bsc":       3,
	"avalanche": 3,
	"ethereum":  12,
}

// defaultTransferMinutes is used for a chain not in the table above — a
// conservative estimate rather than zero, so an unrecognized chain doesn't
// make the transfer_buffer check trivially pass.
const defaultTransferMinutes = 15

// TransferTimeMinutes returns the typical transfer time for a chain.
func TransferTimeMinutes(chain string) decimal.Decimal {
	if m, ok := chainTransferMinutes[chain]; ok {
		return decimal.NewFromFloat(m)
	}
	return decimal.NewFromFloat(defaultTransferMinutes)
}

// defaultVolPerMinute is the floor sigma_per_min used when a symbol has too
// few samples to estimate volatility from; chosen high enough that
// transfer_buffer fails closed on cold start rather than trivially passing.
var defaultVolPerMinute = decimal.NewFromFloat(0.5)

const volatilityWindow = 30 * time.Minute

type volSample struct {
	at    time.Time
	price decimal.Decimal
}

// VolatilityTracker estimates sigma_per_min(symbol) — the asset-calibrated
// volatility term of the transfer_buffer check — from a rolling window of
// price samples taken off the ticker prefilter, one per scan tick.
type VolatilityTracker struct {
	mu      sync.Mutex
	window  time.Duration
	samples map[string][]volSample
}

func NewVolatilityTracker() *VolatilityTracker {
	return &VolatilityTracker{window: volatilityWindow, samples: make(map[string][]volSample)}
}

// Observe records one price sample for symbol at now, dropping samples
// older than the rolling window.
func (v *VolatilityTracker) Observe(symbol string, price decimal.Decimal, now time.Time) {
	if !price.IsPositive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	s := append(v.samples[symbol], volSample{at: now, price: price})
	cutoff := now.Add(-v.window)
	i := 0
	for i < len(s) && s[i].at.Before(cutoff) {
		i++
	}
	v.samples[symbol] = append([]volSample(nil), s[i:]...)
}

// PerMinute returns the sample standard deviation of per-minute returns
// over the current window, or defaultVolPerMinute when fewer than 3 samples
// are available.
func (v *VolatilityTracker) PerMinute(symbol string) decimal.Decimal {
	v.mu.Lock()
	samples := append([]volSample(nil), v.samples[symbol]...)
	v.mu.Unlock()

	if len(samples) < 3 {
		return defaultVolPerMinute
	}

	returns := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if !prev.price.IsPositive() {
			continue
		}
		dtMin := cur.at.Sub(prev.at).Minutes()
		if dtMin <= 0 {
			continue
		}
		pctChange, _ := cur.price.Sub(prev.price).Div(prev.price).Mul(decimal.NewFromInt(100)).Float64()
		returns = append(returns, pctChange/dtMin)
	}
	if len(returns) < 2 {
		return defaultVolPerMinute
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return decimal.NewFromFloat(math.Sqrt(variance)).Abs()
}
