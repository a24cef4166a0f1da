package recommend

import (
	"sort"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/market"
)

// BuildPerformance summarizes past rate records of one room type. Records are
// ordered by date; the trend is the mean occupancy of the later half minus
// that of the earlier half.
func (s *Synthesizer) BuildPerformance(history []domain.RateRecord) domain.HistoricalPerformance {
	perf := domain.HistoricalPerformance{
		SampleSize:  len(history),
		DemandLevel: domain.DemandModerate,
		Trend:       domain.TrendStable,
	}
	if len(history) == 0 {
		return perf
	}

	sorted := append([]domain.RateRecord(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	occ := make([]float64, len(sorted))
	rates := make([]float64, len(sorted))
	for i, r := range sorted {
		occ[i] = r.Occupancy()
		rates[i] = r.Rate.InexactFloat64()
	}
	perf.AverageOccupancy = market.Mean(occ)
	perf.AverageRate = market.Mean(rates)

	if len(occ) >= 2 {
		half := len(occ) / 2
		perf.OccupancyTrend = market.Mean(occ[half:]) - market.Mean(occ[:half])
	}

	w := s.weights
	switch {
	case perf.AverageOccupancy >= w.HighDemandOccupancy:
		perf.DemandLevel = domain.DemandHigh
	case perf.AverageOccupancy < w.LowDemandOccupancy:
		perf.DemandLevel = domain.DemandLow
	}
	switch {
	case perf.OccupancyTrend >= w.StableTrendBand:
		perf.Trend = domain.TrendRising
	case perf.OccupancyTrend <= -w.StableTrendBand:
		perf.Trend = domain.TrendFalling
	}
	return perf
}
