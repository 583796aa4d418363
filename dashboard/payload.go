package dashboard

import (
	"time"

	"github.com/dnldd/datavis/chart"
	"github.com/dnldd/datavis/shared"
	"github.com/google/uuid"
)

// Selection represents the dashboard selection state. An empty coin means nothing is selected.
type Selection struct {
	Coin string
	Days int
}

// Payload represents a rendered dashboard.
type Payload struct {
	ID        uuid.UUID
	CreatedOn time.Time
	Selection Selection
	Markets   []shared.MarketSummary
	Details   *shared.MarketSummary
	Figures   []chart.Figure
	News      []shared.Article
	Notes     []string
}

// Figure returns the figure with the provided title.
func (p *Payload) Figure(title string) (chart.Figure, bool) {
	for idx := range p.Figures {
		if p.Figures[idx].Title == title {
			return p.Figures[idx], true
		}
	}

	return chart.Figure{}, false
}

// Stats represents the render counters of the dashboard service.
type Stats struct {
	Renders         uint64
	Failures        uint64
	NewsFailures    uint64
	PersistFailures uint64
}
