package market

import "github.com/ignite/rate-intel/internal/domain"

// DetectGaps compares currentRate with every observation, in input order.
// Observations with a non-positive rate produce a zero percentage and a
// maintain tag.
func (a *Analyzer) DetectGaps(currentRate float64, obs []domain.CompetitorObservation) []domain.CompetitiveGap {
	gaps := make([]domain.CompetitiveGap, 0, len(obs))
	for _, o := range obs {
		rate := o.RateValue()
		diff := currentRate - rate
		var pct float64
		if rate > 0 {
			pct = diff / rate * 100
		}
		gaps = append(gaps, domain.CompetitiveGap{
			CompetitorName:       o.CompetitorName,
			CompetitorRate:       rate,
			RateDifference:       diff,
			PercentageDifference: pct,
			Recommendation:       a.gapAction(pct),
		})
	}
	return gaps
}

func (a *Analyzer) gapAction(pct float64) domain.GapAction {
	switch {
	case pct > a.policy.DecreaseAbovePct:
		return domain.ActionDecrease
	case pct < a.policy.IncreaseBelowPct:
		return domain.ActionIncrease
	default:
		return domain.ActionMaintain
	}
}

// MajorityAction returns the most frequent gap tag and how many gaps carry
// it. Ties resolve to maintain.
func MajorityAction(gaps []domain.CompetitiveGap) (domain.GapAction, int) {
	counts := map[domain.GapAction]int{}
	for _, g := range gaps {
		counts[g.Recommendation]++
	}
	inc, dec, keep := counts[domain.ActionIncrease], counts[domain.ActionDecrease], counts[domain.ActionMaintain]
	switch {
	case inc > dec && inc > keep:
		return domain.ActionIncrease, inc
	case dec > inc && dec > keep:
		return domain.ActionDecrease, dec
	default:
		return domain.ActionMaintain, keep
	}
}
