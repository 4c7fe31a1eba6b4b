package orchestrator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDepthBaselines_FirstSampleHasNoHistory(t *testing.T) {
	d := NewDepthBaselines()
	_, had := d.Sample("p1", "okx_spot", "bid", decimal.NewFromInt(1000))
	if had {
		t.Fatal("expected no history on first sample")
	}
}

func TestDepthBaselines_AveragesPriorSamples(t *testing.T) {
	d := NewDepthBaselines()
	d.Sample("p1", "okx_spot", "bid", decimal.NewFromInt(1000))
	d.Sample("p1", "okx_spot", "bid", decimal.NewFromInt(2000))
	avg, had := d.Sample("p1", "okx_spot", "bid", decimal.NewFromInt(3000))
	if !had {
		t.Fatal("expected history by the third sample")
	}
	want := decimal.NewFromInt(1500)
	if !avg.Equal(want) {
		t.Errorf("expected average %s of prior samples, got %s", want, avg)
	}
}

func TestDepthBaselines_KeysAreIsolatedPerPairVenueSide(t *testing.T) {
	d := NewDepthBaselines()
	d.Sample("p1", "okx_spot", "bid", decimal.NewFromInt(1000))
	_, had := d.Sample("p2", "okx_spot", "bid", decimal.NewFromInt(500))
	if had {
		t.Fatal("expected a different pair_id to have its own isolated ring")
	}
}

func TestDepthRing_WrapsAtCapacity(t *testing.T) {
	r := &depthRing{}
	for i := 0; i < depthBaselineCapacity+5; i++ {
		r.push(decimal.NewFromInt(int64(i)))
	}
	if r.count != depthBaselineCapacity {
		t.Errorf("expected count capped at %d, got %d", depthBaselineCapacity, r.count)
	}
}
