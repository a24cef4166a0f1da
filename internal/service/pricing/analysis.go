package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/market"
)

// PerformMarketAnalysis summarizes the competitive market for one room type
// on one day. Stored refresh observations are used when present, otherwise
// the collector is asked. ErrNoCompetitorData is returned when no
// competitor has an available rate.
func (s *Service) PerformMarketAnalysis(ctx context.Context, propertyID string, date time.Time, roomTypeCode string) (*domain.MarketSummary, error) {
	if propertyID == "" || roomTypeCode == "" || date.IsZero() {
		return nil, fmt.Errorf("%w: property, date and room type are required", ErrInvalidRequest)
	}
	day := domain.TruncateDay(date)

	obs := s.storedObservations(ctx, propertyID, day, roomTypeCode)
	if len(obs) == 0 {
		obs = s.collector.Collect(ctx, propertyID, day, day, []string{roomTypeCode})
	}
	compset := market.Comparable(obs, roomTypeCode, day)
	if len(compset) == 0 {
		return nil, fmt.Errorf("%w: property %s room type %s on %s",
			ErrNoCompetitorData, propertyID, roomTypeCode, day.Format(domain.DateLayout))
	}

	rates := market.Rates(compset)
	lo, hi := market.MinMax(rates)
	avg := market.Mean(rates)

	summary := &domain.MarketSummary{
		PropertyID:      propertyID,
		RoomTypeCode:    roomTypeCode,
		Date:            day.Format(domain.DateLayout),
		MarketAverage:   round2(avg),
		MarketMin:       lo,
		MarketMax:       hi,
		PositionIndex:   50,
		CompetitorCount: len(compset),
		Segmentation:    market.Segment(compset),
		Clusters:        s.analyzer.Cluster(rates),
	}

	current, err := s.currentRate(ctx, propertyID, day, roomTypeCode)
	if err != nil {
		s.log.Warn("current rate unavailable", "property_id", propertyID, "room_type", roomTypeCode, "error", err)
	}
	if current != nil {
		cur := current.InexactFloat64()
		pos, err := s.analyzer.AnalyzePosition(cur, compset)
		if err != nil {
			return nil, err
		}
		summary.CurrentRate = current
		summary.Position = &pos
		summary.PositionIndex = round2(market.PositionIndex(cur, lo, hi))
		summary.Gaps = s.analyzer.DetectGaps(cur, compset)
	}

	summary.Recommendations = marketAdvice(summary)
	return summary, nil
}

func (s *Service) storedObservations(ctx context.Context, propertyID string, day time.Time, roomTypeCode string) []domain.CompetitorObservation {
	if s.observations == nil {
		return nil
	}
	obs, err := s.observations.ListObservations(ctx, ObservationFilter{
		PropertyID:   propertyID,
		Date:         day,
		RoomTypeCode: roomTypeCode,
	})
	if err != nil {
		s.log.Warn("stored observations unavailable", "property_id", propertyID, "error", err)
		return nil
	}
	return obs
}

// currentRate returns the lowest rate across rate plans for the room type
// and day, or nil when none is on file.
func (s *Service) currentRate(ctx context.Context, propertyID string, day time.Time, roomTypeCode string) (*decimal.Decimal, error) {
	records, err := s.rates.ListRates(ctx, RateFilter{
		PropertyID:   propertyID,
		Start:        day,
		End:          day,
		RoomTypeCode: roomTypeCode,
	})
	if err != nil {
		return nil, err
	}
	var best *decimal.Decimal
	for i := range records {
		if best == nil || records[i].Rate.LessThan(*best) {
			r := records[i].Rate
			best = &r
		}
	}
	return best, nil
}

func marketAdvice(m *domain.MarketSummary) []string {
	var out []string

	if m.Position == nil {
		out = append(out, fmt.Sprintf("No current rate on file; the market average is %.2f across %d competitors (range %.2f to %.2f).",
			m.MarketAverage, m.CompetitorCount, m.MarketMin, m.MarketMax))
	} else {
		p := m.Position
		out = append(out, fmt.Sprintf("Rate sits at percentile %d among %d competitors (%s position).",
			p.Percentile, m.CompetitorCount, p.Category))

		switch {
		case p.GapToMedian > 0:
			out = append(out, fmt.Sprintf("Rate is %.2f above the market median of %.2f.", p.GapToMedian, p.Median))
		case p.GapToMedian < 0:
			out = append(out, fmt.Sprintf("Rate is %.2f below the market median of %.2f.", -p.GapToMedian, p.Median))
		default:
			out = append(out, fmt.Sprintf("Rate matches the market median of %.2f.", p.Median))
		}

		if action, n := market.MajorityAction(m.Gaps); action != domain.ActionMaintain {
			out = append(out, fmt.Sprintf("%d of %d competitor gaps point to %s the rate.", n, len(m.Gaps), verb(action)))
		} else {
			out = append(out, "Competitor gaps are mostly within tolerance; maintain the rate.")
		}

		if p.ClosestCompetitor != "" {
			out = append(out, fmt.Sprintf("Closest competitor is %s, %.2f away.", p.ClosestCompetitor, math.Abs(p.GapToClosestCompetitor)))
		}
	}

	if c := largestCluster(m.Clusters); c != nil {
		out = append(out, fmt.Sprintf("%d competitors cluster around %.2f.", c.MemberCount, c.CenterRate))
	}
	seg := m.Segmentation
	if seg.Premium.HasData() && seg.Value.HasData() {
		out = append(out, fmt.Sprintf("Premium tier averages %.2f and value tier averages %.2f.",
			seg.Premium.AverageRate, seg.Value.AverageRate))
	}
	return out
}

func largestCluster(clusters []domain.RateCluster) *domain.RateCluster {
	var best *domain.RateCluster
	for i := range clusters {
		if best == nil || clusters[i].MemberCount > best.MemberCount {
			best = &clusters[i]
		}
	}
	return best
}

func verb(a domain.GapAction) string {
	switch a {
	case domain.ActionIncrease:
		return "increasing"
	case domain.ActionDecrease:
		return "decreasing"
	default:
		return "maintaining"
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
