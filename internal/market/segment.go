package market

import (
	"sort"

	"github.com/ignite/rate-intel/internal/domain"
)

// Tier shares in percent of the competitive set.
const (
	premiumSharePct = 30
	midSharePct     = 40
)

// Segment splits the observations into premium, mid and value tiers by
// descending rate. Premium takes ceil(30%) and mid ceil(40%) of the set; value
// keeps the remainder, which may be smaller than 30% because of rounding.
func Segment(obs []domain.CompetitorObservation) domain.MarketSegmentation {
	sorted := append([]domain.CompetitorObservation(nil), obs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rate.GreaterThan(sorted[j].Rate)
	})

	n := len(sorted)
	premiumCount := ceilPct(n, premiumSharePct)
	midCount := ceilPct(n, midSharePct)
	if premiumCount > n {
		premiumCount = n
	}
	if premiumCount+midCount > n {
		midCount = n - premiumCount
	}

	return domain.MarketSegmentation{
		Premium: newTier(sorted[:premiumCount]),
		Mid:     newTier(sorted[premiumCount : premiumCount+midCount]),
		Value:   newTier(sorted[premiumCount+midCount:]),
	}
}

func newTier(members []domain.CompetitorObservation) domain.Tier {
	return domain.Tier{
		Members:     members,
		AverageRate: Mean(Rates(members)),
	}
}

// ceilPct returns ceil(n * pct / 100) without floating point error.
func ceilPct(n, pct int) int {
	return (n*pct + 99) / 100
}
