package shared

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSummary represents a market snapshot entry for a coin.
type MarketSummary struct {
	ID                    string
	Symbol                string
	Name                  string
	CurrentPrice          decimal.Decimal
	MarketCap             decimal.Decimal
	TotalVolume           decimal.Decimal
	PriceChangePercent24h float64
	LastUpdated           time.Time
}

// Article represents a news headline.
type Article struct {
	Title       string
	URL         string
	Source      string
	PublishedAt time.Time
}

// FindMarket returns the summary with the provided id.
func FindMarket(markets []MarketSummary, id string) (MarketSummary, bool) {
	for idx := range markets {
		if markets[idx].ID == id {
			return markets[idx], true
		}
	}

	return MarketSummary{}, false
}
