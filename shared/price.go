package shared

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	// DateLayout is the format layout for rendering dates.
	DateLayout = "2006-01-02 15:04:05"
	// MonthLayout is the format layout for monthly buckets.
	MonthLayout = "2006-01"
	// DayLayout is the format layout for daily buckets.
	DayLayout = "2006-01-02"
)

var (
	// ErrDuplicateTimestamp is returned when a price series has two points with the same timestamp.
	ErrDuplicateTimestamp = errors.New("duplicate price timestamp")
	// ErrUnorderedSeries is returned when a price series is not strictly ordered by timestamp.
	ErrUnorderedSeries = errors.New("price series not ordered by timestamp")
)

// PricePoint represents a single price observation.
type PricePoint struct {
	Date  time.Time
	Value float64
}

// PriceSeries represents an ordered set of price observations for a market.
type PriceSeries struct {
	Market string
	points []PricePoint
}

// NewPriceSeries initializes a price series from the provided points. The points must be
// strictly ordered by timestamp.
func NewPriceSeries(market string, points []PricePoint) (*PriceSeries, error) {
	for idx := 1; idx < len(points); idx++ {
		prev := points[idx-1].Date
		current := points[idx].Date
		switch {
		case current.Equal(prev):
			return nil, fmt.Errorf("%w: %s at index %d", ErrDuplicateTimestamp,
				current.Format(DateLayout), idx)
		case current.Before(prev):
			return nil, fmt.Errorf("%w: %s precedes %s at index %d", ErrUnorderedSeries,
				current.Format(DateLayout), prev.Format(DateLayout), idx)
		}
	}

	return &PriceSeries{
		Market: market,
		points: slices.Clone(points),
	}, nil
}

// SortPricePoints sorts the provided points by timestamp in place.
func SortPricePoints(points []PricePoint) {
	slices.SortStableFunc(points, func(a, b PricePoint) int {
		return a.Date.Compare(b.Date)
	})
}

// Len returns the number of points in the series.
func (s *PriceSeries) Len() int {
	return len(s.points)
}

// Points returns a copy of the series points.
func (s *PriceSeries) Points() []PricePoint {
	return slices.Clone(s.points)
}

// Values returns the series prices in order.
func (s *PriceSeries) Values() []float64 {
	values := make([]float64, len(s.points))
	for idx := range s.points {
		values[idx] = s.points[idx].Value
	}

	return values
}

// Dates returns the series timestamps in order.
func (s *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.points))
	for idx := range s.points {
		dates[idx] = s.points[idx].Date
	}

	return dates
}

// Last returns the most recent point of the series.
func (s *PriceSeries) Last() (PricePoint, bool) {
	if len(s.points) == 0 {
		return PricePoint{}, false
	}

	return s.points[len(s.points)-1], true
}
