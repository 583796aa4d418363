// Package indicator computes derived price series for charting.
//
// All functions are pure: they allocate fresh output and never retain or mutate their input,
// so they are safe to call concurrently.
package indicator

import (
	"errors"
	"fmt"
)

const (
	// DefaultRSIWindow is the conventional RSI lookback window.
	DefaultRSIWindow = 14
)

var (
	// ErrInvalidWindow is returned when an indicator window is less than one.
	ErrInvalidWindow = errors.New("indicator window must be at least 1")
	// ErrInsufficientData is returned when there is not enough history to produce an indicator value.
	ErrInsufficientData = errors.New("insufficient data")
)

// Kind represents the indicator type.
type Kind int

const (
	MovingAverageKind Kind = iota
	RSIKind
)

// String stringifies the provided indicator kind.
func (k Kind) String() string {
	switch k {
	case MovingAverageKind:
		return "moving average"
	case RSIKind:
		return "rsi"
	default:
		return "unknown"
	}
}

// OutputLen returns the number of values an indicator of the provided kind produces for n input
// prices. Inputs too short to produce values yield zero.
func OutputLen(kind Kind, n int, window int) int {
	var size int
	switch kind {
	case MovingAverageKind:
		size = n - window + 1
	case RSIKind:
		size = n - 1 - window
	}

	if size < 0 {
		return 0
	}

	return size
}

// RequireHistory returns ErrInsufficientData if n input prices cannot produce a single value of
// the provided indicator kind.
func RequireHistory(kind Kind, n int, window int) error {
	if window < 1 {
		return fmt.Errorf("%s: %w, got %d", kind.String(), ErrInvalidWindow, window)
	}

	if OutputLen(kind, n, window) == 0 {
		return fmt.Errorf("%s (window %d) over %d prices: %w", kind.String(), window, n,
			ErrInsufficientData)
	}

	return nil
}

// Offset returns the number of leading input timestamps to skip so the remaining suffix lines up
// with a derived series of length outputLen.
func Offset(inputLen int, outputLen int) int {
	offset := inputLen - outputLen
	if offset < 0 {
		return 0
	}

	return offset
}
