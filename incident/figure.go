package incident

import (
	"fmt"
	"time"

	"github.com/dnldd/datavis/chart"
	"github.com/dnldd/datavis/shared"
)

// MonthlyFigure creates the monthly incident trend figure.
func MonthlyFigure(counts []MonthCount) (chart.Figure, error) {
	times := make([]time.Time, len(counts))
	values := make([]float64, len(counts))
	for idx := range counts {
		month, err := time.Parse(shared.MonthLayout, counts[idx].Month)
		if err != nil {
			return chart.Figure{}, fmt.Errorf("parsing month: %w", err)
		}
		times[idx] = month
		values[idx] = float64(counts[idx].Count)
	}

	trace, err := chart.NewLine("Incident Count", times, values)
	if err != nil {
		return chart.Figure{}, err
	}

	return chart.Figure{
		Title:  "Monthly Incident Trends",
		Traces: []chart.Trace{trace},
	}, nil
}

// DayTypeFigure creates a figure with one marker trace per crime type, labelled by day.
func DayTypeFigure(counts []DayTypeCount, maxAge int) chart.Figure {
	fig := chart.Figure{
		Title: fmt.Sprintf("Incidents Involving Victims Aged %d or Under", maxAge),
	}

	index := make(map[string]int)
	for _, count := range counts {
		idx, ok := index[count.CrimeType]
		if !ok {
			idx = len(fig.Traces)
			index[count.CrimeType] = idx
			fig.Traces = append(fig.Traces, chart.Trace{Name: count.CrimeType, Mode: chart.Markers})
		}
		trace := &fig.Traces[idx]
		trace.Labels = append(trace.Labels, count.Day)
		trace.Y = append(trace.Y, float64(count.Count))
	}

	return fig
}
