package calc

import (
	"sort"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// defaultLaggingParams are the §4.5 table values, used by callers that
// have no live config.ScannerConfig to read from (tests, one-shot tools).
var defaultLaggingParams = LaggingParams{
	MinVenues:             4,
	DeviationThresholdPct: decimal.NewFromFloat(5.0),
	OtherVenueCeilingPct:  decimal.NewFromFloat(2.0),
}

// LaggingParams bundles the lagging detector's configurable thresholds,
// built from config.ScannerConfig by the caller so this package stays free
// of a dependency on internal/config.
type LaggingParams struct {
	MinVenues             int
	DeviationThresholdPct decimal.Decimal
	OtherVenueCeilingPct  decimal.Decimal
}

// DefaultLaggingParams returns the §4.5 table defaults.
func DefaultLaggingParams() LaggingParams { return defaultLaggingParams }

// DetectLagging flags the single venue whose `last` price deviates from
// the cross-venue median by >= params.DeviationThresholdPct while every
// other venue stays within params.OtherVenueCeilingPct of that median, per
// §4.5 "Lagging detection". Requires at least params.MinVenues reporting
// venues; returns nil otherwise or when more than one venue (or none)
// meets the deviation bar.
func DetectLagging(records []model.PriceRecord, params LaggingParams) *model.LaggingInfo {
	if params.MinVenues <= 0 {
		params = defaultLaggingParams
	}
	if len(records) < params.MinVenues {
		return nil
	}

	median := medianLast(records)
	if !median.IsPositive() {
		return nil
	}

	deviationThreshold := params.DeviationThresholdPct
	otherCeiling := params.OtherVenueCeilingPct

	var laggingIdx = -1
	for i, r := range records {
		dev := r.Last.Sub(median).Div(median).Abs().Mul(decimal.NewFromInt(100))
		if dev.GreaterThanOrEqual(deviationThreshold) {
			if laggingIdx != -1 {
				return nil // more than one outlier — not a clean lagging case
			}
			laggingIdx = i
		} else if dev.GreaterThan(otherCeiling) {
			return nil // a "normal" venue is itself too far from median
		}
	}
	if laggingIdx == -1 {
		return nil
	}

	lagging := records[laggingIdx]
	dev := lagging.Last.Sub(median).Div(median).Abs().Mul(decimal.NewFromInt(100))
	return &model.LaggingInfo{
		VenueID:      lagging.VenueID,
		Price:        lagging.Last,
		Median:       median,
		DeviationPct: dev,
	}
}

func medianLast(records []model.PriceRecord) decimal.Decimal {
	vals := make([]decimal.Decimal, len(records))
	for i, r := range records {
		vals[i] = r.Last
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].LessThan(vals[j]) })

	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return vals[n/2-1].Add(vals[n/2]).Div(decimal.NewFromInt(2))
}
