package market

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/rate-intel/internal/domain"
)

var testDate = time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)

func observations(rates ...float64) []domain.CompetitorObservation {
	out := make([]domain.CompetitorObservation, len(rates))
	for i, r := range rates {
		out[i] = domain.CompetitorObservation{
			CompetitorID:   fmt.Sprintf("comp-%d", i+1),
			CompetitorName: fmt.Sprintf("Competitor %d", i+1),
			RoomTypeCode:   "STD",
			Rate:           decimal.NewFromFloat(r),
			Currency:       domain.DefaultCurrency,
			Date:           testDate,
			Available:      true,
		}
	}
	return out
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 115.0, Median([]float64{100, 110, 120, 130}))
	assert.Equal(t, 110.0, Median([]float64{100, 110, 120}))
	assert.Equal(t, 110.0, Median([]float64{120, 100, 110}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestAnalyzePosition(t *testing.T) {
	a := NewAnalyzer(DefaultPolicy())

	pos, err := a.AnalyzePosition(125, observations(100, 110, 120, 130))
	require.NoError(t, err)
	assert.Equal(t, 75, pos.Percentile)
	assert.Equal(t, domain.PositionPremium, pos.Category)
	assert.Equal(t, 115.0, pos.Median)
	assert.Equal(t, 10.0, pos.GapToMedian)
	// 120 and 130 are both 5 away; the lower one comes first in sorted order.
	assert.Equal(t, "Competitor 3", pos.ClosestCompetitor)
	assert.Equal(t, 5.0, pos.GapToClosestCompetitor)

	pos, err = a.AnalyzePosition(90, observations(100, 110, 120, 130))
	require.NoError(t, err)
	assert.Equal(t, 0, pos.Percentile)
	assert.Equal(t, domain.PositionValue, pos.Category)

	pos, err = a.AnalyzePosition(112, observations(130, 100, 120, 110))
	require.NoError(t, err)
	assert.Equal(t, 50, pos.Percentile)
	assert.Equal(t, domain.PositionCompetitive, pos.Category)
	assert.Equal(t, "Competitor 4", pos.ClosestCompetitor)
}

func TestAnalyzePosition_Empty(t *testing.T) {
	a := NewAnalyzer(Policy{})
	_, err := a.AnalyzePosition(100, nil)
	assert.ErrorIs(t, err, ErrEmptyMarket)
}

func TestAnalyzePosition_PercentileBoundedAndMonotonic(t *testing.T) {
	a := NewAnalyzer(DefaultPolicy())
	obs := observations(89, 140, 101, 101, 175, 64, 230, 118, 99)

	prev := -1
	for rate := 0.0; rate <= 300; rate += 0.5 {
		pos, err := a.AnalyzePosition(rate, obs)
		require.NoError(t, err)
		require.GreaterOrEqual(t, pos.Percentile, 0)
		require.LessOrEqual(t, pos.Percentile, 100)
		require.GreaterOrEqual(t, pos.Percentile, prev, "percentile dropped at rate %.1f", rate)
		prev = pos.Percentile
	}
	assert.Equal(t, 100, prev)
}

func TestSegment_TierSizesSumToInput(t *testing.T) {
	for n := 1; n <= 50; n++ {
		rates := make([]float64, n)
		for i := range rates {
			rates[i] = float64(80 + (i*37)%200)
		}
		seg := Segment(observations(rates...))
		require.Equal(t, n, seg.Size(), "n=%d", n)
		require.Equal(t, (n*30+99)/100, len(seg.Premium.Members), "premium size n=%d", n)
	}
}

func TestSegment_OrderingAndAverages(t *testing.T) {
	seg := Segment(observations(100, 200, 150, 300, 250, 50, 120, 180, 90, 210))

	require.Len(t, seg.Premium.Members, 3)
	require.Len(t, seg.Mid.Members, 4)
	require.Len(t, seg.Value.Members, 3)

	assert.Equal(t, []float64{300, 250, 210}, Rates(seg.Premium.Members))
	assert.InDelta(t, 253.33, seg.Premium.AverageRate, 0.01)
	assert.Equal(t, []float64{200, 180, 150, 120}, Rates(seg.Mid.Members))
	assert.Equal(t, 162.5, seg.Mid.AverageRate)
	assert.Equal(t, []float64{100, 90, 50}, Rates(seg.Value.Members))
}

func TestSegment_EmptyTierHasNoData(t *testing.T) {
	seg := Segment(observations(100, 200))
	assert.Len(t, seg.Premium.Members, 1)
	assert.Len(t, seg.Mid.Members, 1)
	assert.False(t, seg.Value.HasData())
	assert.True(t, math.IsNaN(seg.Value.AverageRate))
}

func TestCluster_OrderIndependent(t *testing.T) {
	a := NewAnalyzer(DefaultPolicy())

	first := a.Cluster([]float64{140, 100, 108, 105, 145})
	second := a.Cluster([]float64{100, 105, 108, 140, 145})
	require.Equal(t, first, second)

	require.Len(t, first, 2)
	assert.InDelta(t, 104.33, first[0].CenterRate, 0.01)
	assert.Equal(t, 3, first[0].MemberCount)
	assert.Equal(t, []float64{100, 105, 108}, first[0].MemberRates)
	assert.Equal(t, 142.5, first[1].CenterRate)
	assert.Equal(t, 2, first[1].MemberCount)
}

func TestCluster_DropsSingletons(t *testing.T) {
	a := NewAnalyzer(DefaultPolicy())
	clusters := a.Cluster([]float64{100, 150, 155, 300})
	require.Len(t, clusters, 1)
	assert.Equal(t, []float64{150, 155}, clusters[0].MemberRates)

	assert.Empty(t, a.Cluster([]float64{100}))
	assert.Empty(t, a.Cluster(nil))
}

func TestCluster_CustomThreshold(t *testing.T) {
	p := DefaultPolicy()
	p.ClusterThreshold = 5
	a := NewAnalyzer(p)
	clusters := a.Cluster([]float64{100, 105, 108})
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].MemberCount)

	p.ClusterThreshold = 4
	a = NewAnalyzer(p)
	clusters = a.Cluster([]float64{100, 105, 108})
	require.Len(t, clusters, 1)
	assert.Equal(t, []float64{105, 108}, clusters[0].MemberRates)
}

func TestDetectGaps(t *testing.T) {
	a := NewAnalyzer(DefaultPolicy())

	tests := []struct {
		name       string
		current    float64
		competitor float64
		wantPct    float64
		want       domain.GapAction
	}{
		{"well above competitor", 120, 100, 20, domain.ActionDecrease},
		{"well below competitor", 100, 120, -16.67, domain.ActionIncrease},
		{"close to competitor", 100, 105, -4.76, domain.ActionMaintain},
		{"exactly at upper threshold", 115, 100, 15, domain.ActionMaintain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gaps := a.DetectGaps(tt.current, observations(tt.competitor))
			require.Len(t, gaps, 1)
			assert.Equal(t, tt.current-tt.competitor, gaps[0].RateDifference)
			assert.InDelta(t, tt.wantPct, gaps[0].PercentageDifference, 0.01)
			assert.Equal(t, tt.want, gaps[0].Recommendation)
		})
	}
}

func TestDetectGaps_OverriddenThresholds(t *testing.T) {
	p := DefaultPolicy()
	p.DecreaseAbovePct = 3
	p.IncreaseBelowPct = -3
	a := NewAnalyzer(p)
	gaps := a.DetectGaps(100, observations(105, 95, 101))
	require.Len(t, gaps, 3)
	assert.Equal(t, domain.ActionIncrease, gaps[0].Recommendation)
	assert.Equal(t, domain.ActionDecrease, gaps[1].Recommendation)
	assert.Equal(t, domain.ActionMaintain, gaps[2].Recommendation)
}

func TestDetectGaps_ZeroThresholdsHonored(t *testing.T) {
	p := DefaultPolicy()
	p.DecreaseAbovePct = 0
	p.IncreaseBelowPct = 0
	a := NewAnalyzer(p)
	assert.Equal(t, p, a.Policy())

	gaps := a.DetectGaps(100, observations(90, 105, 100))
	require.Len(t, gaps, 3)
	assert.Equal(t, domain.ActionDecrease, gaps[0].Recommendation)
	assert.Equal(t, domain.ActionIncrease, gaps[1].Recommendation)
	assert.Equal(t, domain.ActionMaintain, gaps[2].Recommendation)
}

func TestCategorize_ZeroValuePercentile(t *testing.T) {
	p := DefaultPolicy()
	p.ValuePercentile = 0
	a := NewAnalyzer(p)

	pos, err := a.AnalyzePosition(50, observations(100, 110, 120, 130))
	require.NoError(t, err)
	assert.Equal(t, 0, pos.Percentile)
	assert.Equal(t, domain.PositionCompetitive, pos.Category)
}

func TestMajorityAction(t *testing.T) {
	a := NewAnalyzer(DefaultPolicy())

	action, n := MajorityAction(a.DetectGaps(100, observations(130, 140, 101)))
	assert.Equal(t, domain.ActionIncrease, action)
	assert.Equal(t, 2, n)

	action, _ = MajorityAction(a.DetectGaps(100, observations(130, 70)))
	assert.Equal(t, domain.ActionMaintain, action, "ties resolve to maintain")
}

func TestComparable(t *testing.T) {
	obs := observations(100, 110, 120)
	obs[1].Available = false
	obs[2].RoomTypeCode = "DLX"
	other := observations(130)
	other[0].Date = testDate.AddDate(0, 0, 1)
	obs = append(obs, other...)

	got := Comparable(obs, "STD", testDate.Add(3*time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "comp-1", got[0].CompetitorID)
}

func TestPositionIndex(t *testing.T) {
	assert.Equal(t, 50.0, PositionIndex(120, 100, 100))
	assert.Equal(t, 25.0, PositionIndex(110, 100, 140))
	assert.Equal(t, 100.0, PositionIndex(140, 100, 140))
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{100, 100, 100}))
	assert.InDelta(t, 0.5, CoefficientOfVariation([]float64{50, 150}), 1e-9)
	assert.Equal(t, 0.0, CoefficientOfVariation(nil))
}
