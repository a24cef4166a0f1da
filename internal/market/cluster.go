package market

import (
	"sort"

	"github.com/ignite/rate-intel/internal/domain"
)

// Cluster groups rates whose neighbours lie within the policy threshold.
// Runs with fewer than two members are dropped. The result does not depend on
// input order.
func (a *Analyzer) Cluster(rates []float64) []domain.RateCluster {
	if len(rates) == 0 {
		return nil
	}
	sorted := append([]float64(nil), rates...)
	sort.Float64s(sorted)

	var clusters []domain.RateCluster
	current := []float64{sorted[0]}
	flush := func() {
		if len(current) >= 2 {
			clusters = append(clusters, domain.RateCluster{
				CenterRate:  Mean(current),
				MemberCount: len(current),
				MemberRates: current,
			})
		}
	}

	for _, r := range sorted[1:] {
		if r-current[len(current)-1] > a.policy.ClusterThreshold {
			flush()
			current = []float64{r}
			continue
		}
		current = append(current, r)
	}
	flush()
	return clusters
}
