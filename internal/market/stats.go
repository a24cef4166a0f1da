package market

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/rate-intel/internal/domain"
)

// Rates extracts the rate of every observation, preserving order.
func Rates(obs []domain.CompetitorObservation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.RateValue()
	}
	return out
}

// Comparable keeps the available observations with a positive rate for the
// given room type and date.
func Comparable(obs []domain.CompetitorObservation, roomTypeCode string, date time.Time) []domain.CompetitorObservation {
	var out []domain.CompetitorObservation
	for _, o := range obs {
		if o.RoomTypeCode != roomTypeCode || !domain.SameDay(o.Date, date) {
			continue
		}
		if !o.Available || !o.Rate.IsPositive() {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the median using the even/odd rule, or NaN when empty.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// StdDev returns the population standard deviation, or 0 for fewer than two
// values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

// CoefficientOfVariation is StdDev / Mean, 0 when the mean is not positive.
func CoefficientOfVariation(values []float64) float64 {
	m := Mean(values)
	if len(values) == 0 || m <= 0 {
		return 0
	}
	return StdDev(values) / m
}

// MinMax returns the smallest and largest value. Both are 0 when empty.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
