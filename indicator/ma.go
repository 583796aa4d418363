package indicator

import "fmt"

// MovingAverage computes the simple moving average of the provided prices over a sliding window.
//
// Output index i is the mean of prices[i : i+window], so it corresponds to the input price at
// i+window-1. An input shorter than the window yields an empty series.
func MovingAverage(prices []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidWindow, window)
	}

	size := OutputLen(MovingAverageKind, len(prices), window)
	avgs := make([]float64, size)
	if size == 0 {
		return avgs, nil
	}

	// Sum every window directly, a running sum drifts from the exact mean.
	w := float64(window)
	for idx := range size {
		var sum float64
		for _, price := range prices[idx : idx+window] {
			sum += price
		}
		avgs[idx] = sum / w
	}

	return avgs, nil
}
