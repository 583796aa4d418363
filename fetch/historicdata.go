package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dnldd/datavis/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic data source configuration.
type HistoricDataConfig struct {
	// FilePath is the filepath to the historic price data.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *HistoricDataConfig) Validate() error {
	var errs error

	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("historic data filepath cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// HistoricData represents stored price history for a coin, used to render without network
// access.
type HistoricData struct {
	cfg    *HistoricDataConfig
	coin   string
	series *shared.PriceSeries
}

// Ensure HistoricData implements the HistoryFetcher interface.
var _ shared.HistoryFetcher = (*HistoricData)(nil)

// loadHistoricData loads the historic data from the provided file path.
func loadHistoricData(filepath string) (*gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %w", filepath, err)
	}

	if !gjson.ValidBytes(readb) {
		return nil, fmt.Errorf("historic data at '%s' is not valid json", filepath)
	}

	b := gjson.ParseBytes(readb)

	return &b, nil
}

// NewHistoricData initializes a new historic data source.
func NewHistoricData(cfg *HistoricDataConfig) (*HistoricData, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating historic data config: %w", err)
	}

	b, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %w", err)
	}

	coin := b.Get("coin").String()
	if coin == "" {
		return nil, fmt.Errorf("historic data at '%s' has no coin", cfg.FilePath)
	}

	series, err := parsePricePairs(b.Get("prices").Array(), coin)
	if err != nil {
		return nil, fmt.Errorf("parsing historic prices: %w", err)
	}

	if series.Len() > 0 {
		dates := series.Dates()
		first := dates[0]
		last := dates[len(dates)-1]
		cfg.Logger.Info().Msgf("loaded %d historic %s prices covering %.2f hours, from %s, to %s",
			series.Len(), coin, last.Sub(first).Hours(), first.Format(time.RFC1123),
			last.Format(time.RFC1123))
	}

	return &HistoricData{
		cfg:    cfg,
		coin:   coin,
		series: series,
	}, nil
}

// FetchCoin returns the coin of the loaded historical data.
func (h *HistoricData) FetchCoin() string {
	return h.coin
}

// FetchPriceHistory returns the stored prices of the coin within the provided number of days of
// the most recent stored price.
func (h *HistoricData) FetchPriceHistory(_ context.Context, coinID string, days int) (*shared.PriceSeries, error) {
	if coinID != h.coin {
		return nil, fmt.Errorf("no historic data for %s, only %s is available", coinID, h.coin)
	}

	last, ok := h.series.Last()
	if !ok || days <= 0 {
		return h.series, nil
	}

	cutoff := last.Date.AddDate(0, 0, -days)
	points := h.series.Points()
	start := 0
	for start < len(points) && points[start].Date.Before(cutoff) {
		start++
	}

	return shared.NewPriceSeries(h.coin, points[start:])
}
