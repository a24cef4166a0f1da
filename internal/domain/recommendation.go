package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecommendationFactors are the inputs that drove a recommendation.
type RecommendationFactors struct {
	CompetitorAverage float64     `json:"competitor_average" db:"competitor_average"`
	MarketTrend       MarketTrend `json:"market_trend" db:"market_trend"`
	DemandLevel       DemandLevel `json:"demand_level" db:"demand_level"`
	OccupancyForecast float64     `json:"occupancy_forecast" db:"occupancy_forecast"`
}

// RateRecommendation is the synthesizer's output for one rate record.
type RateRecommendation struct {
	PropertyID    string                `json:"property_id"`
	RoomTypeID    string                `json:"room_type_id"`
	RatePlanID    string                `json:"rate_plan_id"`
	Date          time.Time             `json:"date"`
	CurrentRate   decimal.Decimal       `json:"current_rate"`
	SuggestedRate decimal.Decimal       `json:"suggested_rate"`
	Confidence    int                   `json:"confidence"`
	Reasoning     string                `json:"reasoning"`
	Factors       RecommendationFactors `json:"factors"`
}

// Suggestion is a persisted recommendation with an apply lifecycle:
// created with IsApplied=false, transitions exactly once to applied.
type Suggestion struct {
	ID string `json:"id" db:"id"`
	RateRecommendation
	IsApplied bool       `json:"is_applied" db:"is_applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty" db:"applied_at"`
	AppliedBy *string    `json:"applied_by,omitempty" db:"applied_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// NewSuggestion wraps a recommendation in an unapplied suggestion.
func NewSuggestion(id string, rec RateRecommendation, now time.Time) Suggestion {
	return Suggestion{ID: id, RateRecommendation: rec, CreatedAt: now}
}

// RecordFailure identifies a rate record that could not be processed.
type RecordFailure struct {
	RecordID     string    `json:"record_id"`
	RoomTypeCode string    `json:"room_type_code"`
	Date         time.Time `json:"date"`
	Reason       string    `json:"reason"`
}

// BatchReport is the outcome of a recommendation batch. Requested always
// equals len(Recommendations) + Skipped + len(Failures).
type BatchReport struct {
	PropertyID      string               `json:"property_id"`
	Requested       int                  `json:"requested"`
	Recommendations []RateRecommendation `json:"recommendations"`
	SuggestionIDs   []string             `json:"suggestion_ids"`
	Skipped         int                  `json:"skipped"`
	Failures        []RecordFailure      `json:"failures"`
}

// RefreshReport is the outcome of a competitor data refresh.
type RefreshReport struct {
	PropertyID   string    `json:"property_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Observations int       `json:"observations"`
	Stored       bool      `json:"stored"`
	Archived     bool      `json:"archived"`
	SkippedLock  bool      `json:"skipped_lock"`
	Errors       []string  `json:"errors,omitempty"`
}
