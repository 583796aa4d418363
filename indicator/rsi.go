package indicator

import "fmt"

const (
	// maxRSI is the saturated RSI value, returned when there are no losses to compare gains to.
	maxRSI = 100.0
)

// RSI computes the Relative Strength Index of the provided prices.
//
// Gains and losses between successive prices are smoothed with the recurrence
// avg[i] = (avg[i-1]*(window-1) + x[i-1]) / window seeded at zero, and the first window values
// are discarded as warm-up. An average loss of zero saturates the index at 100. The output has
// len(prices)-1-window values, or none when the input is too short.
func RSI(prices []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidWindow, window)
	}

	size := OutputLen(RSIKind, len(prices), window)
	rsi := make([]float64, size)
	if size == 0 {
		return rsi, nil
	}

	deltas := len(prices) - 1
	w := float64(window)

	var avgGain, avgLoss float64
	for idx := range deltas {
		if idx > 0 {
			delta := prices[idx] - prices[idx-1]
			var gain, loss float64
			switch {
			case delta > 0:
				gain = delta
			case delta < 0:
				loss = -delta
			}

			avgGain = (avgGain*(w-1) + gain) / w
			avgLoss = (avgLoss*(w-1) + loss) / w
		}

		if idx < window {
			continue
		}

		rsi[idx-window] = relativeStrengthIndex(avgGain, avgLoss)
	}

	return rsi, nil
}

// relativeStrengthIndex maps smoothed average gains and losses to the [0, 100] index range.
func relativeStrengthIndex(avgGain float64, avgLoss float64) float64 {
	if avgLoss == 0 {
		return maxRSI
	}

	rs := avgGain / avgLoss
	return maxRSI - maxRSI/(1+rs)
}
