package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/market"
)

// Synthesizer combines market statistics and history into recommendations.
// It is safe for concurrent use.
type Synthesizer struct {
	analyzer *market.Analyzer
	weights  Weights
}

// NewSynthesizer creates a synthesizer using the given analyzer and weights.
func NewSynthesizer(analyzer *market.Analyzer, w Weights) *Synthesizer {
	return &Synthesizer{analyzer: analyzer, weights: w.withDefaults()}
}

// Weights returns the effective weights.
func (s *Synthesizer) Weights() Weights { return s.weights }

// Synthesize returns a recommendation for the record, or nil with a nil error
// when the competitive set has no comparable rate for the record's room type
// and date.
func (s *Synthesizer) Synthesize(record domain.RateRecord, obs []domain.CompetitorObservation, perf domain.HistoricalPerformance) (*domain.RateRecommendation, error) {
	compset := market.Comparable(obs, record.RoomTypeCode, record.Date)
	if len(compset) == 0 {
		return nil, nil
	}
	if record.Rate.IsNegative() {
		return nil, fmt.Errorf("rate record %s has negative rate %s", record.ID, record.Rate)
	}

	if perf.DemandLevel == "" {
		perf.DemandLevel = domain.DemandModerate
	}
	if perf.Trend == "" {
		perf.Trend = domain.TrendStable
	}

	current := record.Rate.InexactFloat64()
	rates := market.Rates(compset)
	avg := market.Mean(rates)
	cv := market.CoefficientOfVariation(rates)

	pos, err := s.analyzer.AnalyzePosition(current, compset)
	if err != nil {
		return nil, err
	}
	gaps := s.analyzer.DetectGaps(current, compset)
	action, agreeing := market.MajorityAction(gaps)
	share := float64(agreeing) / float64(len(gaps))

	w := s.weights
	anchor := w.CurrentWeight*current + w.MarketWeight*avg
	adj := s.directionAdjustment(action) + s.categoryAdjustment(pos.Category) +
		s.demandAdjustment(perf.DemandLevel) + s.trendAdjustment(perf.OccupancyTrend)
	suggested := math.Max(0, anchor*(1+adj))

	conflict := positionConflicts(pos.Category, action)
	confidence := s.confidence(len(compset), share, perf.SampleSize, cv, conflict)

	forecast := clamp(perf.AverageOccupancy+perf.OccupancyTrend, 0, 1) * 100

	rec := &domain.RateRecommendation{
		PropertyID:    record.PropertyID,
		RoomTypeID:    record.RoomTypeID,
		RatePlanID:    record.RatePlanID,
		Date:          domain.TruncateDay(record.Date),
		CurrentRate:   record.Rate,
		SuggestedRate: decimal.NewFromFloat(suggested).Round(2),
		Confidence:    confidence,
		Factors: domain.RecommendationFactors{
			CompetitorAverage: math.Round(avg*100) / 100,
			MarketTrend:       perf.Trend,
			DemandLevel:       perf.DemandLevel,
			OccupancyForecast: math.Round(forecast*10) / 10,
		},
	}
	rec.Reasoning = reasoning(rec, pos, action, agreeing, len(gaps), cv > w.HighVarianceCV, conflict)
	return rec, nil
}

func (s *Synthesizer) directionAdjustment(action domain.GapAction) float64 {
	switch action {
	case domain.ActionIncrease:
		return s.weights.DirectionStep
	case domain.ActionDecrease:
		return -s.weights.DirectionStep
	default:
		return 0
	}
}

// categoryAdjustment pulls a premium rate down and a value rate up.
func (s *Synthesizer) categoryAdjustment(c domain.PositionCategory) float64 {
	switch c {
	case domain.PositionPremium:
		return -s.weights.CategoryStep
	case domain.PositionValue:
		return s.weights.CategoryStep
	default:
		return 0
	}
}

// positionConflicts reports whether the position category points the other
// way from the competitor gaps: a premium rate the gaps say to raise, or a
// value rate the gaps say to cut.
func positionConflicts(c domain.PositionCategory, action domain.GapAction) bool {
	return (c == domain.PositionPremium && action == domain.ActionIncrease) ||
		(c == domain.PositionValue && action == domain.ActionDecrease)
}

func (s *Synthesizer) demandAdjustment(level domain.DemandLevel) float64 {
	switch level {
	case domain.DemandHigh:
		return s.weights.DemandStep
	case domain.DemandLow:
		return -s.weights.DemandStep
	default:
		return 0
	}
}

func (s *Synthesizer) trendAdjustment(trend float64) float64 {
	return clamp(s.weights.TrendFactor*trend, -s.weights.TrendCap, s.weights.TrendCap)
}

func (s *Synthesizer) confidence(competitors int, agreement float64, historySamples int, cv float64, conflict bool) int {
	w := s.weights
	scored := competitors
	if scored > w.MaxCompetitorsScored {
		scored = w.MaxCompetitorsScored
	}
	score := w.BaseConfidence + w.PerCompetitorBonus*float64(scored) + w.AgreementBonus*agreement
	if historySamples >= w.MinHistorySamples {
		score += w.HistoryBonus
	}
	score -= w.DispersionPenalty * cv
	if conflict {
		score -= w.CategoryConflictPenalty
	}

	score = clamp(score, 0, 100)
	if cv > w.HighVarianceCV {
		score = math.Min(score, w.HighVarianceCap)
	}
	return int(math.Round(score))
}

func reasoning(rec *domain.RateRecommendation, pos domain.MarketPosition, action domain.GapAction, agreeing, total int, scattered, conflict bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Market average %.2f across %d competitors; current rate %s sits at the %d percentile (%s).",
		rec.Factors.CompetitorAverage, total, rec.CurrentRate.StringFixed(2), pos.Percentile, pos.Category)
	if action == domain.ActionMaintain {
		fmt.Fprintf(&b, " %d of %d competitor gaps support holding the rate.", agreeing, total)
	} else {
		fmt.Fprintf(&b, " %d of %d competitor gaps point to a rate %s.", agreeing, total, action)
	}
	fmt.Fprintf(&b, " Demand is %s with a %s occupancy trend (forecast %.1f%%).",
		rec.Factors.DemandLevel, rec.Factors.MarketTrend, rec.Factors.OccupancyForecast)
	if conflict {
		fmt.Fprintf(&b, " The %s position disagrees with the competitor gaps.", pos.Category)
	}
	if scattered {
		b.WriteString(" Competitor rates are widely dispersed, so confidence is capped.")
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
