package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dnldd/datavis/chart"
	"github.com/dnldd/datavis/indicator"
	"github.com/dnldd/datavis/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type marketsMock struct {
	markets []shared.MarketSummary
	err     error
}

func (m *marketsMock) FetchMarketSummaries(_ context.Context) ([]shared.MarketSummary, error) {
	return m.markets, m.err
}

type historyMock struct {
	series *shared.PriceSeries
	err    error
	coin   string
	days   int
}

func (m *historyMock) FetchPriceHistory(_ context.Context, coinID string, days int) (*shared.PriceSeries, error) {
	m.coin = coinID
	m.days = days
	return m.series, m.err
}

type headlinesMock struct {
	articles []shared.Article
	err      error
	query    string
	limit    int
}

func (m *headlinesMock) FetchHeadlines(_ context.Context, query string, limit int) ([]shared.Article, error) {
	m.query = query
	m.limit = limit
	return m.articles, m.err
}

type storerMock struct {
	mtx       sync.Mutex
	series    []*shared.PriceSeries
	records   []*shared.RenderRecord
	seriesErr error
	renderErr error
}

func (m *storerMock) PersistPriceSeries(_ context.Context, series *shared.PriceSeries) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.series = append(m.series, series)
	return m.seriesErr
}

func (m *storerMock) PersistRender(_ context.Context, record *shared.RenderRecord) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.records = append(m.records, record)
	return m.renderErr
}

func testMarkets() []shared.MarketSummary {
	return []shared.MarketSummary{
		{
			ID:           "bitcoin",
			Symbol:       "btc",
			Name:         "Bitcoin",
			CurrentPrice: decimal.RequireFromString("97123.45"),
			MarketCap:    decimal.RequireFromString("1923456789012"),
			TotalVolume:  decimal.RequireFromString("31234567890"),
		},
		{
			ID:           "ethereum",
			Symbol:       "eth",
			Name:         "Ethereum",
			CurrentPrice: decimal.RequireFromString("2650.10"),
			MarketCap:    decimal.RequireFromString("319456789012"),
			TotalVolume:  decimal.RequireFromString("15234567890"),
		},
	}
}

func testSeries(t *testing.T, n int) *shared.PriceSeries {
	t.Helper()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]shared.PricePoint, n)
	for idx := range points {
		value := 94000.0 + float64(idx*150)
		if idx%3 == 0 {
			value -= 400
		}
		points[idx] = shared.PricePoint{Date: start.AddDate(0, 0, idx), Value: value}
	}

	series, err := shared.NewPriceSeries("bitcoin", points)
	assert.NoError(t, err)

	return series
}

func testConfig(markets shared.MarketFetcher, history shared.HistoryFetcher) *Config {
	logger := zerolog.Nop()
	return &Config{
		Markets:   markets,
		History:   history,
		NewsQuery: "cryptocurrency",
		MAWindow:  5,
		RSIWindow: indicator.DefaultRSIWindow,
		Logger:    &logger,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(cfg *Config)
		errContains string
	}{
		{"valid", func(cfg *Config) {}, ""},
		{"nil markets", func(cfg *Config) { cfg.Markets = nil }, "market fetcher cannot be nil"},
		{"nil markets with unlisted selections", func(cfg *Config) {
			cfg.Markets = nil
			cfg.AllowUnlisted = true
		}, ""},
		{"nil history", func(cfg *Config) { cfg.History = nil }, "history fetcher cannot be nil"},
		{"empty news query", func(cfg *Config) {
			cfg.Headlines = &headlinesMock{}
			cfg.NewsQuery = ""
		}, "news query cannot be an empty string"},
		{"negative news limit", func(cfg *Config) { cfg.NewsLimit = -1 }, "news limit cannot be negative"},
		{"zero ma window", func(cfg *Config) { cfg.MAWindow = 0 }, "moving average window must be positive"},
		{"negative rsi window", func(cfg *Config) { cfg.RSIWindow = -2 }, "rsi window must be positive"},
		{"negative days", func(cfg *Config) { cfg.DefaultDays = -1 }, "default days cannot be negative"},
		{"nil logger", func(cfg *Config) { cfg.Logger = nil }, "logger cannot be nil"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := testConfig(&marketsMock{}, &historyMock{})
			test.modify(cfg)

			err := cfg.Validate()
			if test.errContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), test.errContains))
		})
	}
}

func TestRenderWithoutSelection(t *testing.T) {
	history := &historyMock{}
	svc, err := NewService(testConfig(&marketsMock{markets: testMarkets()}, history))
	assert.NoError(t, err)
	assert.Nil(t, svc.Last())

	// Ensure a payload without a selection only carries the market overview.
	payload, err := svc.Render(context.Background(), Selection{})
	assert.NoError(t, err)
	assert.NotEqual(t, payload.ID, uuid.Nil)
	assert.Nil(t, payload.Details)
	assert.Equal(t, payload.Selection.Days, DefaultDays)
	assert.Equal(t, len(payload.Markets), 2)
	assert.Equal(t, len(payload.Figures), 1)
	assert.Equal(t, payload.Notes, []string{NoSelectionNote})
	assert.Equal(t, history.coin, "")

	overview := payload.Figures[0]
	assert.Equal(t, overview.Title, "Top 2 Cryptos by Market Cap")
	assert.Equal(t, len(overview.Traces), 2)
	assert.Equal(t, overview.Traces[0].Name, "Bitcoin")
	assert.Equal(t, overview.Traces[0].Mode, chart.Markers)
	assert.Equal(t, overview.Traces[0].Labels, []string{"bitcoin"})
	assert.Equal(t, overview.Traces[0].Y, []float64{97123.45})

	assert.True(t, svc.Last() == payload)
	assert.Equal(t, svc.Stats(), Stats{Renders: 1})
}

func TestRenderSelection(t *testing.T) {
	history := &historyMock{series: testSeries(t, 40)}
	headlines := &headlinesMock{articles: []shared.Article{
		{Title: "Crypto headline 1", URL: "https://example.com/news/1", Source: "Source 1"},
	}}
	storer := &storerMock{}

	cfg := testConfig(&marketsMock{markets: testMarkets()}, history)
	cfg.Headlines = headlines
	cfg.Storer = storer
	svc, err := NewService(cfg)
	assert.NoError(t, err)

	payload, err := svc.Render(context.Background(), Selection{Coin: "bitcoin", Days: 40})
	assert.NoError(t, err)

	// Ensure the selection drives the history request.
	assert.Equal(t, history.coin, "bitcoin")
	assert.Equal(t, history.days, 40)

	// Ensure the selected market details are attached.
	assert.NotNil(t, payload.Details)
	assert.Equal(t, payload.Details.Name, "Bitcoin")
	assert.Equal(t, len(payload.Notes), 0)

	// Ensure the price and moving average traces are aligned to the series timestamps.
	priceFig, ok := payload.Figure("Bitcoin Price")
	assert.True(t, ok)
	assert.Equal(t, len(priceFig.Traces), 2)
	price, ma := priceFig.Traces[0], priceFig.Traces[1]
	assert.Equal(t, price.Len(), 40)
	assert.Equal(t, ma.Name, "MA(5)")
	assert.Equal(t, ma.Len(), 36)
	assert.Equal(t, len(ma.X), ma.Len())
	assert.True(t, cmp.Equal(ma.X, history.series.Dates()[4:]))

	// Ensure the rsi trace is aligned to the trailing timestamps.
	rsiFig, ok := payload.Figure("Bitcoin RSI")
	assert.True(t, ok)
	rsi := rsiFig.Traces[0]
	assert.Equal(t, rsi.Name, "RSI(14)")
	assert.Equal(t, rsi.Len(), 25)
	assert.True(t, rsi.X[0].Equal(history.series.Dates()[15]))
	for _, v := range rsi.Y {
		assert.GreaterThanOrEqual(t, v, 0.0)
		assert.LessThanOrEqual(t, v, 100.0)
	}

	// Ensure headlines are requested with the configured query and limit.
	assert.Equal(t, headlines.query, "cryptocurrency")
	assert.Equal(t, headlines.limit, DefaultNewsLimit)
	assert.Equal(t, payload.News, headlines.articles)

	// Ensure the history and the render record are persisted.
	assert.Equal(t, len(storer.series), 1)
	assert.Equal(t, len(storer.records), 1)
	assert.Equal(t, storer.records[0].ID, payload.ID.String())
	assert.Equal(t, storer.records[0].Coin, "bitcoin")
	assert.Equal(t, storer.records[0].PricePoints, 40)
	assert.Equal(t, svc.Stats(), Stats{Renders: 1})
}

func TestRenderInsufficientHistory(t *testing.T) {
	history := &historyMock{series: testSeries(t, 10)}
	svc, err := NewService(testConfig(&marketsMock{markets: testMarkets()}, history))
	assert.NoError(t, err)

	// Ensure short histories are noted instead of failing the render.
	payload, err := svc.Render(context.Background(), Selection{Coin: "bitcoin"})
	assert.NoError(t, err)
	assert.Equal(t, len(payload.Notes), 1)
	assert.True(t, strings.Contains(payload.Notes[0], "rsi"))

	rsiFig, ok := payload.Figure("Bitcoin RSI")
	assert.True(t, ok)
	assert.Equal(t, rsiFig.Traces[0].Len(), 0)

	priceFig, ok := payload.Figure("Bitcoin Price")
	assert.True(t, ok)
	assert.Equal(t, priceFig.Traces[1].Len(), 6)
}

func TestRenderUnlisted(t *testing.T) {
	history := &historyMock{series: testSeries(t, 40)}
	cfg := testConfig(&marketsMock{markets: testMarkets()}, history)
	cfg.AllowUnlisted = true
	svc, err := NewService(cfg)
	assert.NoError(t, err)

	// Ensure selections missing from the snapshot render from history alone.
	payload, err := svc.Render(context.Background(), Selection{Coin: "dogecoin"})
	assert.NoError(t, err)
	assert.Nil(t, payload.Details)
	assert.Equal(t, history.coin, "dogecoin")
	assert.Equal(t, len(payload.Markets), 2)
	assert.Equal(t, payload.Notes, []string{"dogecoin is not in the market snapshot, rendering history only"})
	_, ok := payload.Figure("dogecoin Price")
	assert.True(t, ok)
	_, ok = payload.Figure("dogecoin RSI")
	assert.True(t, ok)

	// Ensure the dashboard renders without a market snapshot source.
	cfg = testConfig(nil, history)
	cfg.AllowUnlisted = true
	svc, err = NewService(cfg)
	assert.NoError(t, err)

	payload, err = svc.Render(context.Background(), Selection{Coin: "bitcoin"})
	assert.NoError(t, err)
	assert.Nil(t, payload.Details)
	assert.Equal(t, len(payload.Markets), 0)
	assert.Equal(t, len(payload.Figures), 2)
	assert.Equal(t, payload.Notes[0], NoSnapshotNote)
	_, ok = payload.Figure("bitcoin Price")
	assert.True(t, ok)
}

func TestRenderFailures(t *testing.T) {
	fetchErr := errors.New("connection refused")

	// Ensure market snapshot failures fail the render.
	svc, err := NewService(testConfig(&marketsMock{err: fetchErr}, &historyMock{}))
	assert.NoError(t, err)
	_, err = svc.Render(context.Background(), Selection{})
	assert.True(t, errors.Is(err, fetchErr))
	assert.Equal(t, svc.Stats().Failures, uint64(1))
	assert.Nil(t, svc.Last())

	// Ensure unknown coins are rejected.
	svc, err = NewService(testConfig(&marketsMock{markets: testMarkets()}, &historyMock{}))
	assert.NoError(t, err)
	_, err = svc.Render(context.Background(), Selection{Coin: "dogecoin"})
	assert.True(t, errors.Is(err, ErrUnknownCoin))

	// Ensure history failures fail the render.
	svc, err = NewService(testConfig(&marketsMock{markets: testMarkets()}, &historyMock{err: fetchErr}))
	assert.NoError(t, err)
	_, err = svc.Render(context.Background(), Selection{Coin: "bitcoin"})
	assert.True(t, errors.Is(err, fetchErr))
}

func TestRenderDegradedCollaborators(t *testing.T) {
	cfg := testConfig(&marketsMock{markets: testMarkets()}, &historyMock{series: testSeries(t, 40)})
	cfg.Headlines = &headlinesMock{err: errors.New("rate limited")}
	cfg.Storer = &storerMock{
		seriesErr: errors.New("database unavailable"),
		renderErr: errors.New("database unavailable"),
	}
	svc, err := NewService(cfg)
	assert.NoError(t, err)

	// Ensure news and persistence failures do not fail the render.
	payload, err := svc.Render(context.Background(), Selection{Coin: "ethereum"})
	assert.NoError(t, err)
	assert.Equal(t, len(payload.News), 0)
	assert.Equal(t, svc.Stats(), Stats{Renders: 1, NewsFailures: 1, PersistFailures: 2})
}

func TestWritePayload(t *testing.T) {
	cfg := testConfig(&marketsMock{markets: testMarkets()}, &historyMock{series: testSeries(t, 40)})
	cfg.Headlines = &headlinesMock{articles: []shared.Article{
		{Title: "Crypto headline 1", URL: "https://example.com/news/1", Source: "Source 1"},
	}}
	svc, err := NewService(cfg)
	assert.NoError(t, err)

	payload, err := svc.Render(context.Background(), Selection{Coin: "bitcoin"})
	assert.NoError(t, err)

	var sb strings.Builder
	err = WritePayload(&sb, payload, 30)
	assert.NoError(t, err)

	out := sb.String()
	assert.True(t, strings.Contains(out, "Price: $97,123.45"))
	assert.True(t, strings.Contains(out, "Top 2 Cryptos by Market Cap"))
	assert.True(t, strings.Contains(out, "Bitcoin RSI"))
	assert.True(t, strings.Contains(out, "Crypto headline 1 (Source 1)"))
}
