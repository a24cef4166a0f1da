package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is the property's own rate and inventory for one room type,
// rate plan and date.
type RateRecord struct {
	ID             string          `json:"id" db:"id"`
	PropertyID     string          `json:"property_id" db:"property_id"`
	RoomTypeID     string          `json:"room_type_id" db:"room_type_id"`
	RoomTypeCode   string          `json:"room_type_code" db:"room_type_code"`
	RatePlanID     string          `json:"rate_plan_id" db:"rate_plan_id"`
	Date           time.Time       `json:"date" db:"stay_date"`
	Rate           decimal.Decimal `json:"rate" db:"rate"`
	Currency       string          `json:"currency" db:"currency"`
	RoomsAvailable int             `json:"rooms_available" db:"rooms_available"`
	RoomsSold      int             `json:"rooms_sold" db:"rooms_sold"`
}

// Occupancy returns sold / available, or 0 when nothing was available.
func (r RateRecord) Occupancy() float64 {
	if r.RoomsAvailable <= 0 {
		return 0
	}
	occ := float64(r.RoomsSold) / float64(r.RoomsAvailable)
	if occ > 1 {
		return 1
	}
	return occ
}

// DemandLevel buckets historical occupancy.
type DemandLevel string

const (
	DemandLow      DemandLevel = "low"
	DemandModerate DemandLevel = "moderate"
	DemandHigh     DemandLevel = "high"
)

// MarketTrend is the direction of recent occupancy.
type MarketTrend string

const (
	TrendRising  MarketTrend = "rising"
	TrendStable  MarketTrend = "stable"
	TrendFalling MarketTrend = "falling"
)

// HistoricalPerformance summarizes past occupancy for a room type.
type HistoricalPerformance struct {
	SampleSize       int         `json:"sample_size"`
	AverageOccupancy float64     `json:"average_occupancy"`
	OccupancyTrend   float64     `json:"occupancy_trend"`
	AverageRate      float64     `json:"average_rate"`
	DemandLevel      DemandLevel `json:"demand_level"`
	Trend            MarketTrend `json:"trend"`
}
