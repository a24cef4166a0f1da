package recommend

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/market"
)

var stayDate = time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)

func newTestSynthesizer() *Synthesizer {
	return NewSynthesizer(market.NewAnalyzer(market.DefaultPolicy()), DefaultWeights())
}

func record(rate float64) domain.RateRecord {
	return domain.RateRecord{
		ID:             "rr-1",
		PropertyID:     "prop-1",
		RoomTypeID:     "rt-std",
		RoomTypeCode:   "STD",
		RatePlanID:     "bar",
		Date:           stayDate,
		Rate:           decimal.NewFromFloat(rate),
		Currency:       "USD",
		RoomsAvailable: 20,
		RoomsSold:      12,
	}
}

func competitors(rates ...float64) []domain.CompetitorObservation {
	out := make([]domain.CompetitorObservation, len(rates))
	for i, r := range rates {
		out[i] = domain.CompetitorObservation{
			CompetitorID:   fmt.Sprintf("c%d", i),
			CompetitorName: fmt.Sprintf("Hotel %d", i),
			RoomTypeCode:   "STD",
			Rate:           decimal.NewFromFloat(r),
			Currency:       "USD",
			Date:           stayDate,
			Available:      true,
		}
	}
	return out
}

func history(occupancies ...float64) []domain.RateRecord {
	out := make([]domain.RateRecord, len(occupancies))
	for i, occ := range occupancies {
		out[i] = domain.RateRecord{
			RoomTypeCode:   "STD",
			Date:           stayDate.AddDate(0, 0, -len(occupancies)+i),
			Rate:           decimal.NewFromInt(120),
			RoomsAvailable: 100,
			RoomsSold:      int(math.Round(occ * 100)),
		}
	}
	return out
}

func TestSynthesize_NoComparableData(t *testing.T) {
	s := newTestSynthesizer()

	rec, err := s.Synthesize(record(120), nil, domain.HistoricalPerformance{})
	require.NoError(t, err)
	assert.Nil(t, rec)

	obs := competitors(110, 130)
	obs[0].RoomTypeCode = "DLX"
	obs[1].Available = false
	rec, err = s.Synthesize(record(120), obs, domain.HistoricalPerformance{})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSynthesize_UnderpricedWithHighDemand(t *testing.T) {
	s := newTestSynthesizer()
	perf := s.BuildPerformance(history(0.80, 0.82, 0.84, 0.86, 0.88, 0.90, 0.92, 0.94))
	require.Equal(t, domain.DemandHigh, perf.DemandLevel)
	require.Equal(t, domain.TrendRising, perf.Trend)

	rec, err := s.Synthesize(record(100), competitors(130, 135, 140, 128), perf)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// anchor = 0.6*100 + 0.4*133.25 = 113.3
	// adjustment = +0.03 (increase) +0.02 (value) +0.05 (high demand) +0.04 (trend 0.08*0.5)
	assert.Equal(t, "129.16", rec.SuggestedRate.StringFixed(2))
	assert.True(t, rec.SuggestedRate.GreaterThan(rec.CurrentRate))
	assert.Equal(t, 133.25, rec.Factors.CompetitorAverage)
	assert.Equal(t, domain.DemandHigh, rec.Factors.DemandLevel)
	assert.Equal(t, domain.TrendRising, rec.Factors.MarketTrend)
	assert.Contains(t, rec.Reasoning, "Market average 133.25")
	assert.Contains(t, rec.Reasoning, "point to a rate increase")
	assert.GreaterOrEqual(t, rec.Confidence, 0)
	assert.LessOrEqual(t, rec.Confidence, 100)
	assert.Equal(t, "prop-1", rec.PropertyID)
	assert.Equal(t, "rt-std", rec.RoomTypeID)
	assert.Equal(t, "bar", rec.RatePlanID)
}

func TestSynthesize_OverpricedWithLowDemand(t *testing.T) {
	s := newTestSynthesizer()
	perf := s.BuildPerformance(history(0.40, 0.40, 0.30, 0.30))
	require.Equal(t, domain.DemandLow, perf.DemandLevel)
	require.Equal(t, domain.TrendFalling, perf.Trend)

	rec, err := s.Synthesize(record(200), competitors(150, 155, 160), perf)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.SuggestedRate.LessThan(rec.CurrentRate))
	assert.Contains(t, rec.Reasoning, "point to a rate decrease")
}

func TestSynthesize_HighVarianceCapsConfidence(t *testing.T) {
	s := newTestSynthesizer()
	perf := s.BuildPerformance(history(0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7))

	rec, err := s.Synthesize(record(150), competitors(60, 300, 90, 250, 150, 220, 80, 310, 140, 200), perf)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.LessOrEqual(t, rec.Confidence, 60)
	assert.Contains(t, rec.Reasoning, "widely dispersed")
}

func TestSynthesize_ConfidenceAlwaysInRange(t *testing.T) {
	s := newTestSynthesizer()
	sets := [][]float64{
		{100},
		{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
		{1, 1000},
		{99.5, 100.5},
		{500, 10, 250},
	}
	perfs := []domain.HistoricalPerformance{
		{},
		s.BuildPerformance(history(1, 1, 1, 1, 1, 1, 1, 1)),
		s.BuildPerformance(history(0, 0, 0, 0)),
	}
	for _, rates := range sets {
		for _, perf := range perfs {
			for _, current := range []float64{0, 50, 100, 1000} {
				rec, err := s.Synthesize(record(current), competitors(rates...), perf)
				require.NoError(t, err)
				require.NotNil(t, rec)
				assert.GreaterOrEqual(t, rec.Confidence, 0)
				assert.LessOrEqual(t, rec.Confidence, 100)
				assert.False(t, rec.SuggestedRate.IsNegative())
				assert.NotEmpty(t, rec.Reasoning)
			}
		}
	}
}

func TestSynthesize_AgreementRaisesConfidence(t *testing.T) {
	s := newTestSynthesizer()
	perf := domain.HistoricalPerformance{DemandLevel: domain.DemandModerate, Trend: domain.TrendStable}

	unanimous, err := s.Synthesize(record(100), competitors(130, 131, 132, 133), perf)
	require.NoError(t, err)
	split, err := s.Synthesize(record(100), competitors(130, 131, 102, 103), perf)
	require.NoError(t, err)
	assert.Greater(t, unanimous.Confidence, split.Confidence)
}

func TestSynthesize_PositionCategoryShiftsSuggestion(t *testing.T) {
	perf := domain.HistoricalPerformance{DemandLevel: domain.DemandModerate, Trend: domain.TrendStable}
	obs := competitors(100, 105, 110, 130)

	// 125 sits at the 75th percentile with the gaps split between decrease
	// and maintain, so only the category differs between the two runs.
	premium, err := newTestSynthesizer().Synthesize(record(125), obs, perf)
	require.NoError(t, err)
	require.NotNil(t, premium)

	wide := market.DefaultPolicy()
	wide.PremiumPercentile = 99
	wide.ValuePercentile = 1
	competitive, err := NewSynthesizer(market.NewAnalyzer(wide), DefaultWeights()).Synthesize(record(125), obs, perf)
	require.NoError(t, err)
	require.NotNil(t, competitive)

	assert.Contains(t, premium.Reasoning, "(premium)")
	assert.Contains(t, competitive.Reasoning, "(competitive)")
	assert.True(t, premium.SuggestedRate.LessThan(competitive.SuggestedRate),
		"premium %s, competitive %s", premium.SuggestedRate, competitive.SuggestedRate)
	assert.Equal(t, competitive.Confidence, premium.Confidence)
}

func TestSynthesize_CategoryConflictLowersConfidence(t *testing.T) {
	perf := domain.HistoricalPerformance{DemandLevel: domain.DemandModerate, Trend: domain.TrendStable}
	obs := competitors(150, 155, 160, 210)

	// Three of four gaps say decrease. Under the default cut-offs the 75th
	// percentile is premium, which agrees; with every cut-off at 100 it is
	// value, which does not.
	agree, err := newTestSynthesizer().Synthesize(record(200), obs, perf)
	require.NoError(t, err)
	require.NotNil(t, agree)

	strict := market.DefaultPolicy()
	strict.PremiumPercentile = 100
	strict.ValuePercentile = 100
	disagree, err := NewSynthesizer(market.NewAnalyzer(strict), DefaultWeights()).Synthesize(record(200), obs, perf)
	require.NoError(t, err)
	require.NotNil(t, disagree)

	assert.Contains(t, agree.Reasoning, "point to a rate decrease")
	assert.NotContains(t, agree.Reasoning, "disagrees")
	assert.Contains(t, disagree.Reasoning, "The value position disagrees with the competitor gaps.")
	assert.Equal(t, agree.Confidence-10, disagree.Confidence)
}

func TestSynthesize_NegativeRateFails(t *testing.T) {
	s := newTestSynthesizer()
	_, err := s.Synthesize(record(-5), competitors(100), domain.HistoricalPerformance{})
	assert.Error(t, err)
}

func TestBuildPerformance_Empty(t *testing.T) {
	perf := newTestSynthesizer().BuildPerformance(nil)
	assert.Equal(t, 0, perf.SampleSize)
	assert.Equal(t, domain.DemandModerate, perf.DemandLevel)
	assert.Equal(t, domain.TrendStable, perf.Trend)
}

func TestNewSynthesizer_ZeroWeightsUseDefaults(t *testing.T) {
	s := NewSynthesizer(market.NewAnalyzer(market.DefaultPolicy()), Weights{})
	assert.Equal(t, DefaultWeights(), s.Weights())
}
