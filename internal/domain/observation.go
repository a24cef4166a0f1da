package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a provider omits the currency of a rate.
const DefaultCurrency = "USD"

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// ObservationSource records where a competitor observation came from.
type ObservationSource string

const (
	SourceProvider  ObservationSource = "provider"
	SourceSynthetic ObservationSource = "synthetic"
)

// CompetitorObservation is one competitor rate for one room type on one date.
// It is immutable once produced by the collector.
type CompetitorObservation struct {
	CompetitorID   string            `json:"competitor_id" db:"competitor_id"`
	CompetitorName string            `json:"competitor_name" db:"competitor_name"`
	RoomTypeCode   string            `json:"room_type_code" db:"room_type_code"`
	Rate           decimal.Decimal   `json:"rate" db:"rate"`
	Currency       string            `json:"currency" db:"currency"`
	Date           time.Time         `json:"date" db:"stay_date"`
	Available      bool              `json:"available" db:"available"`
	Source         ObservationSource `json:"source" db:"source"`
}

// RateValue returns the observed rate as a float for statistics.
func (o CompetitorObservation) RateValue() float64 {
	return o.Rate.InexactFloat64()
}

// Competitor identifies a hotel in the competitive set.
type Competitor struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// SameDay reports whether a and b fall on the same calendar day (UTC).
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// TruncateDay returns t at midnight UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
