package orchestrator

import (
	"sync"

	"github.com/shopspring/decimal"
)

// depthBaselineCapacity is the ring buffer's fixed sample capacity per
// (pair, venue, side), per SPEC_FULL's depth baseline supplement.
const depthBaselineCapacity = 30

// depthRing is a fixed-capacity ring buffer of depth-USD samples.
type depthRing struct {
	samples [depthBaselineCapacity]decimal.Decimal
	count   int
	next    int
}

func (r *depthRing) push(v decimal.Decimal) {
	r.samples[r.next] = v
	r.next = (r.next + 1) % depthBaselineCapacity
	if r.count < depthBaselineCapacity {
		r.count++
	}
}

func (r *depthRing) average() (decimal.Decimal, bool) {
	if r.count == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for i := 0; i < r.count; i++ {
		sum = sum.Add(r.samples[i])
	}
	return sum.Div(decimal.NewFromInt(int64(r.count))), true
}

// DepthBaselines tracks a depthRing per (pair_id, venue_id, side), sampled
// once per spread computation and consulted by the depth_vs_history check.
type DepthBaselines struct {
	mu    sync.Mutex
	rings map[string]*depthRing
}

func NewDepthBaselines() *DepthBaselines {
	return &DepthBaselines{rings: make(map[string]*depthRing)}
}

func depthBaselineKey(pairID, venueID, side string) string {
	return pairID + ":" + venueID + ":" + side
}

// Sample records depthUSD for (pairID, venueID, side) and returns the prior
// rolling average (before this sample is added), matching the
// depth_vs_history check's "compare against history" semantics.
func (d *DepthBaselines) Sample(pairID, venueID, side string, depthUSD decimal.Decimal) (avg decimal.Decimal, hadHistory bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := depthBaselineKey(pairID, venueID, side)
	ring, ok := d.rings[key]
	if !ok {
		ring = &depthRing{}
		d.rings[key] = ring
	}

	avg, hadHistory = ring.average()
	ring.push(depthUSD)
	return avg, hadHistory
}
