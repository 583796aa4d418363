package shared

import (
	"context"
	"time"
)

// MarketFetcher defines the requirements for fetching coin market snapshots.
type MarketFetcher interface {
	// FetchMarketSummaries fetches the current market snapshot ordered by market cap.
	FetchMarketSummaries(ctx context.Context) ([]MarketSummary, error)
}

// HistoryFetcher defines the requirements for fetching coin price history.
type HistoryFetcher interface {
	// FetchPriceHistory fetches the price history of a coin covering the provided number of days.
	FetchPriceHistory(ctx context.Context, coinID string, days int) (*PriceSeries, error)
}

// HeadlineFetcher defines the requirements for fetching news headlines.
type HeadlineFetcher interface {
	// FetchHeadlines fetches the latest headlines matching the query, capped at limit.
	FetchHeadlines(ctx context.Context, query string, limit int) ([]Article, error)
}

// RenderRecord represents a persisted record of a rendered dashboard.
type RenderRecord struct {
	ID          string
	Coin        string
	Days        int
	PricePoints int
	CreatedOn   time.Time
}

// HistoryStorer defines the requirements for archiving fetched data.
type HistoryStorer interface {
	// PersistPriceSeries stores the provided price series.
	PersistPriceSeries(ctx context.Context, series *PriceSeries) error
	// PersistRender stores the provided render record.
	PersistRender(ctx context.Context, record *RenderRecord) error
}
