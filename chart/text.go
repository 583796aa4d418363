package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dnldd/datavis/shared"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// sparkTicks are the glyphs used for sparklines, lowest first.
var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// resample reduces values to at most width buckets by averaging each bucket.
func resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}

	out := make([]float64, width)
	for idx := range width {
		start := idx * len(values) / width
		end := (idx + 1) * len(values) / width
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[idx] = sum / float64(end-start)
	}

	return out
}

// Sparkline renders the provided values as a single line of block glyphs no wider than width,
// a non-positive width renders every value.
func Sparkline(values []float64, width int) string {
	values = resample(values, width)
	if len(values) == 0 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var sb strings.Builder
	top := len(sparkTicks) - 1
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		sb.WriteRune(sparkTicks[idx])
	}

	return sb.String()
}

// WriteFigure writes a text rendering of the provided figure.
func WriteFigure(w io.Writer, fig *Figure, width int) error {
	_, err := fmt.Fprintf(w, "%s\n", fig.Title)
	if err != nil {
		return err
	}

	for idx := range fig.Traces {
		trace := &fig.Traces[idx]
		if trace.Len() == 0 {
			_, err = fmt.Fprintf(w, "  %-16s (no data)\n", trace.Name)
			if err != nil {
				return err
			}
			continue
		}

		switch trace.Mode {
		case Markers:
			for i := range trace.Labels {
				_, err = fmt.Fprintf(w, "  %-16s %-12s %s\n", trace.Name, trace.Labels[i],
					humanize.CommafWithDigits(trace.Y[i], 2))
				if err != nil {
					return err
				}
			}
		default:
			last := trace.Y[len(trace.Y)-1]
			_, err = fmt.Fprintf(w, "  %-16s %s %s\n", trace.Name, Sparkline(trace.Y, width),
				humanize.CommafWithDigits(last, 2))
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// humanizeAmount renders a decimal amount with thousands separators.
func humanizeAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 2)
}

// DetailLines returns human readable detail lines for the provided market summary.
func DetailLines(market shared.MarketSummary) []string {
	capValue, _ := market.MarketCap.Float64()
	capSI, capUnit := humanize.ComputeSI(capValue)

	return []string{
		market.Name,
		fmt.Sprintf("Price: $%s", humanizeAmount(market.CurrentPrice)),
		fmt.Sprintf("Market Cap: $%s (%s%s)", humanizeAmount(market.MarketCap),
			humanize.FtoaWithDigits(capSI, 2), capUnit),
		fmt.Sprintf("24h Volume: $%s", humanizeAmount(market.TotalVolume)),
		fmt.Sprintf("24h Change: %+.2f%%", market.PriceChangePercent24h),
	}
}
