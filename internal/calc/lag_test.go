package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

func priceRec(venue string, last float64) model.PriceRecord {
	return model.PriceRecord{VenueID: venue, Last: decimal.NewFromFloat(last)}
}

func TestDetectLagging_FlagsSingleOutlier(t *testing.T) {
	records := []model.PriceRecord{
		priceRec("bybit_futures", 100),
		priceRec("okx_spot", 100.5),
		priceRec("okx_futures", 99.5),
		priceRec("gate_spot", 110), // ~10% away — the lagging venue
	}

	info := DetectLagging(records, DefaultLaggingParams())
	if info == nil {
		t.Fatal("expected a lagging venue to be detected")
	}
	if info.VenueID != "gate_spot" {
		t.Errorf("expected gate_spot to be flagged, got %s", info.VenueID)
	}
}

func TestDetectLagging_RequiresFourVenues(t *testing.T) {
	records := []model.PriceRecord{
		priceRec("a", 100), priceRec("b", 100), priceRec("c", 110),
	}
	if DetectLagging(records, DefaultLaggingParams()) != nil {
		t.Error("expected no lagging result with fewer than 4 venues")
	}
}

func TestDetectLagging_NoOutlierWhenAllClose(t *testing.T) {
	records := []model.PriceRecord{
		priceRec("a", 100), priceRec("b", 100.3), priceRec("c", 99.8), priceRec("d", 100.1),
	}
	if DetectLagging(records, DefaultLaggingParams()) != nil {
		t.Error("expected no lagging result when all venues agree")
	}
}

func TestDetectLagging_NilWhenOthersAlsoDeviate(t *testing.T) {
	records := []model.PriceRecord{
		priceRec("a", 100), priceRec("b", 103), priceRec("c", 99), priceRec("d", 120),
	}
	// "d" is >5% away but "c" is also >2% away from the median (101.5), so this is not a clean lag.
	if DetectLagging(records, DefaultLaggingParams()) != nil {
		t.Error("expected nil when a non-outlier venue still exceeds the 2%% band")
	}
}
