package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/datavis/indicator"
)

var (
	// ErrMisaligned is returned when a derived series is longer than the timestamps it is
	// aligned to.
	ErrMisaligned = errors.New("derived series longer than its timestamps")
)

// Mode represents how a trace is drawn.
type Mode int

const (
	Lines Mode = iota
	Markers
)

// String stringifies the provided mode.
func (m Mode) String() string {
	switch m {
	case Lines:
		return "lines"
	case Markers:
		return "markers"
	default:
		return "unknown"
	}
}

// Trace represents a named series of a figure. Time based traces populate X, categorical
// traces populate Labels.
type Trace struct {
	Name   string
	Mode   Mode
	X      []time.Time
	Labels []string
	Y      []float64
}

// Len returns the number of values in the trace.
func (t *Trace) Len() int {
	return len(t.Y)
}

// Figure represents a titled collection of traces.
type Figure struct {
	Title  string
	Traces []Trace
}

// AlignSeries returns the suffix of the provided timestamps matching a derived series of
// length n, derived series drop leading values.
func AlignSeries(times []time.Time, n int) ([]time.Time, error) {
	if n > len(times) {
		return nil, fmt.Errorf("%w: %d values for %d timestamps", ErrMisaligned, n, len(times))
	}

	return times[indicator.Offset(len(times), n):], nil
}

// NewLine creates a time based line trace, aligning the values with the trailing timestamps.
func NewLine(name string, times []time.Time, values []float64) (Trace, error) {
	x, err := AlignSeries(times, len(values))
	if err != nil {
		return Trace{}, fmt.Errorf("aligning %s: %w", name, err)
	}

	return Trace{
		Name: name,
		Mode: Lines,
		X:    x,
		Y:    values,
	}, nil
}

// NewMarkers creates a categorical marker trace.
func NewMarkers(name string, labels []string, values []float64) (Trace, error) {
	if len(labels) != len(values) {
		return Trace{}, fmt.Errorf("%s has %d labels for %d values", name, len(labels), len(values))
	}

	return Trace{
		Name:   name,
		Mode:   Markers,
		Labels: labels,
		Y:      values,
	}, nil
}
