package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PositionCategory places a rate relative to the competitive set.
type PositionCategory string

const (
	PositionPremium     PositionCategory = "premium"
	PositionCompetitive PositionCategory = "competitive"
	PositionValue       PositionCategory = "value"
)

// MarketPosition is derived on every analysis call and never persisted.
type MarketPosition struct {
	Percentile             int              `json:"percentile"`
	Category               PositionCategory `json:"category"`
	Median                 float64          `json:"median"`
	GapToMedian            float64          `json:"gap_to_median"`
	ClosestCompetitor      string           `json:"closest_competitor"`
	GapToClosestCompetitor float64          `json:"gap_to_closest_competitor"`
}

// Tier is one band of a market segmentation. AverageRate is NaN when the
// tier has no members; use HasData before reading it.
type Tier struct {
	Members     []CompetitorObservation `json:"members"`
	AverageRate float64                 `json:"average_rate"`
}

// HasData reports whether the tier has at least one member.
func (t Tier) HasData() bool { return len(t.Members) > 0 }

// MarshalJSON encodes an empty tier's average as null instead of NaN.
func (t Tier) MarshalJSON() ([]byte, error) {
	out := struct {
		Members     []CompetitorObservation `json:"members"`
		AverageRate *float64                `json:"average_rate"`
	}{Members: t.Members}
	if t.HasData() {
		avg := t.AverageRate
		out.AverageRate = &avg
	}
	return json.Marshal(out)
}

// MarketSegmentation splits the competitive set into premium, mid and value
// tiers, each ordered by descending rate.
type MarketSegmentation struct {
	Premium Tier `json:"premium"`
	Mid     Tier `json:"mid"`
	Value   Tier `json:"value"`
}

// Size returns the total number of observations across all tiers.
func (s MarketSegmentation) Size() int {
	return len(s.Premium.Members) + len(s.Mid.Members) + len(s.Value.Members)
}

// GapAction is the directional tag attached to a competitive gap.
type GapAction string

const (
	ActionIncrease GapAction = "increase"
	ActionDecrease GapAction = "decrease"
	ActionMaintain GapAction = "maintain"
)

// CompetitiveGap compares the subject rate with one competitor.
type CompetitiveGap struct {
	CompetitorName       string    `json:"competitor_name"`
	CompetitorRate       float64   `json:"competitor_rate"`
	RateDifference       float64   `json:"rate_difference"`
	PercentageDifference float64   `json:"percentage_difference"`
	Recommendation       GapAction `json:"recommendation"`
}

// RateCluster is a group of competitor rates within the proximity threshold.
type RateCluster struct {
	CenterRate  float64   `json:"center_rate"`
	MemberCount int       `json:"member_count"`
	MemberRates []float64 `json:"member_rates"`
}

// MarketSummary is the result of a single-date market analysis.
type MarketSummary struct {
	PropertyID      string             `json:"property_id"`
	RoomTypeCode    string             `json:"room_type_code"`
	Date            string             `json:"date"`
	CurrentRate     *decimal.Decimal   `json:"current_rate,omitempty"`
	MarketAverage   float64            `json:"market_average"`
	MarketMin       float64            `json:"market_min"`
	MarketMax       float64            `json:"market_max"`
	PositionIndex   float64            `json:"position_index"`
	CompetitorCount int                `json:"competitor_count"`
	Position        *MarketPosition    `json:"position,omitempty"`
	Segmentation    MarketSegmentation `json:"segmentation"`
	Clusters        []RateCluster      `json:"clusters"`
	Gaps            []CompetitiveGap   `json:"gaps,omitempty"`
	Recommendations []string           `json:"recommendations"`
}
