package market

import (
	"errors"
	"math"
	"sort"

	"github.com/ignite/rate-intel/internal/domain"
)

// ErrEmptyMarket is returned when an analysis needs at least one competitor.
var ErrEmptyMarket = errors.New("market: no competitor observations")

// AnalyzePosition places currentRate within the competitive set.
//
// The percentile is the share of competitor rates strictly below currentRate,
// rounded to the nearest integer. Ties for the closest competitor go to the
// first one in ascending rate order.
func (a *Analyzer) AnalyzePosition(currentRate float64, obs []domain.CompetitorObservation) (domain.MarketPosition, error) {
	if len(obs) == 0 {
		return domain.MarketPosition{}, ErrEmptyMarket
	}

	sorted := append([]domain.CompetitorObservation(nil), obs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rate.LessThan(sorted[j].Rate)
	})
	rates := Rates(sorted)

	below := 0
	for _, r := range rates {
		if r < currentRate {
			below++
		}
	}
	percentile := int(math.Round(float64(below) / float64(len(rates)) * 100))

	median := Median(rates)

	closest := 0
	best := math.Abs(rates[0] - currentRate)
	for i := 1; i < len(rates); i++ {
		if d := math.Abs(rates[i] - currentRate); d < best {
			best = d
			closest = i
		}
	}

	return domain.MarketPosition{
		Percentile:             percentile,
		Category:               a.categorize(percentile),
		Median:                 median,
		GapToMedian:            currentRate - median,
		ClosestCompetitor:      sorted[closest].CompetitorName,
		GapToClosestCompetitor: currentRate - rates[closest],
	}, nil
}

func (a *Analyzer) categorize(percentile int) domain.PositionCategory {
	switch {
	case percentile >= a.policy.PremiumPercentile:
		return domain.PositionPremium
	case percentile < a.policy.ValuePercentile:
		return domain.PositionValue
	default:
		return domain.PositionCompetitive
	}
}

// PositionIndex maps currentRate onto the market range as 0..100. It returns
// 50 when the range is degenerate.
func PositionIndex(currentRate, min, max float64) float64 {
	if max == min {
		return 50
	}
	return (currentRate - min) / (max - min) * 100
}
