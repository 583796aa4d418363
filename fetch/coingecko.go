package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dnldd/datavis/shared"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	// CoinGeckoBaseURL is the CoinGecko public api base url.
	CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	// defaultPerPage is the default number of coins fetched for a market snapshot.
	defaultPerPage = 10
	// demoAPIKeyHeader is the header carrying CoinGecko demo api keys.
	demoAPIKeyHeader = "x-cg-demo-api-key"
)

// CoinGeckoConfig represents the configuration for the CoinGecko client.
type CoinGeckoConfig struct {
	// BaseURL is the api base url.
	BaseURL string
	// APIKey is the optional CoinGecko demo api key.
	APIKey string
	// VsCurrency is the quote currency for prices.
	VsCurrency string
	// PerPage is the number of coins fetched for a market snapshot.
	PerPage int
	// Timeout is the http client timeout.
	Timeout time.Duration
}

// Validate asserts the config sane inputs.
func (cfg *CoinGeckoConfig) Validate() error {
	var errs error

	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("base url cannot be an empty string"))
	}
	if cfg.VsCurrency == "" {
		errs = errors.Join(errs, fmt.Errorf("vs currency cannot be an empty string"))
	}
	if cfg.PerPage < 0 {
		errs = errors.Join(errs, fmt.Errorf("per page cannot be negative"))
	}

	return errs
}

// CoinGeckoClient represents the CoinGecko market data api client.
type CoinGeckoClient struct {
	cfg   *CoinGeckoConfig
	httpc *http.Client
	buf   *bytes.Buffer
}

// Ensure the CoinGeckoClient implements the MarketFetcher and HistoryFetcher interfaces.
var _ shared.MarketFetcher = (*CoinGeckoClient)(nil)
var _ shared.HistoryFetcher = (*CoinGeckoClient)(nil)

// NewCoinGeckoClient instantiates a new CoinGecko client.
func NewCoinGeckoClient(cfg *CoinGeckoConfig) (*CoinGeckoClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating coingecko config: %w", err)
	}

	if cfg.PerPage == 0 {
		cfg.PerPage = defaultPerPage
	}

	return &CoinGeckoClient{
		cfg:   cfg,
		httpc: newHTTPClient(cfg.Timeout),
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *CoinGeckoClient) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// header returns the request headers for the api.
func (c *CoinGeckoClient) header() http.Header {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		header.Set(demoAPIKeyHeader, c.cfg.APIKey)
	}

	return header
}

// FetchMarkets fetches the market snapshot of the top coins by market cap.
func (c *CoinGeckoClient) FetchMarkets(ctx context.Context) ([]gjson.Result, error) {
	const marketsPath = "/coins/markets"

	params := url.Values{}
	params.Add("vs_currency", c.cfg.VsCurrency)
	params.Add("order", "market_cap_desc")
	params.Add("per_page", strconv.Itoa(c.cfg.PerPage))
	params.Add("page", "1")
	params.Add("sparkline", "false")

	body, err := get(ctx, c.httpc, c.formURL(marketsPath, params.Encode()), c.header())
	if err != nil {
		return nil, fmt.Errorf("fetching markets: %w", err)
	}

	data := gjson.ParseBytes(body)
	if !data.IsArray() {
		return nil, fmt.Errorf("expected a json array of markets, got %s", data.Type.String())
	}

	return data.Array(), nil
}

// FetchMarketChart fetches the historical market chart of a coin covering the provided number
// of days.
func (c *CoinGeckoClient) FetchMarketChart(ctx context.Context, coinID string, days int) (gjson.Result, error) {
	if coinID == "" {
		return gjson.Result{}, fmt.Errorf("coin id cannot be an empty string")
	}
	if days <= 0 {
		return gjson.Result{}, fmt.Errorf("days must be positive, got %d", days)
	}

	path := "/coins/" + url.PathEscape(coinID) + "/market_chart"

	params := url.Values{}
	params.Add("vs_currency", c.cfg.VsCurrency)
	params.Add("days", strconv.Itoa(days))

	body, err := get(ctx, c.httpc, c.formURL(path, params.Encode()), c.header())
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetching market chart (%d days) for %s: %w", days, coinID, err)
	}

	return gjson.ParseBytes(body), nil
}

// parseDecimal parses a json number into a decimal, preserving its textual precision.
// Null or missing values parse as zero.
func parseDecimal(res gjson.Result) (decimal.Decimal, error) {
	switch res.Type {
	case gjson.Null:
		return decimal.Zero, nil
	case gjson.Number:
		return decimal.NewFromString(res.Raw)
	case gjson.String:
		return decimal.NewFromString(res.Str)
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected json type %s for a decimal", res.Type.String())
	}
}

// ParseMarkets parses market summaries from the provided json data.
func (c *CoinGeckoClient) ParseMarkets(data []gjson.Result) ([]shared.MarketSummary, error) {
	markets := make([]shared.MarketSummary, 0, len(data))

	for idx := range data {
		var market shared.MarketSummary
		var err error

		market.ID = data[idx].Get("id").String()
		if market.ID == "" {
			return nil, fmt.Errorf("market at index %d has no id", idx)
		}

		market.Symbol = data[idx].Get("symbol").String()
		market.Name = data[idx].Get("name").String()
		market.PriceChangePercent24h = data[idx].Get("price_change_percentage_24h").Float()

		market.CurrentPrice, err = parseDecimal(data[idx].Get("current_price"))
		if err != nil {
			return nil, fmt.Errorf("parsing %s current price: %w", market.ID, err)
		}
		market.MarketCap, err = parseDecimal(data[idx].Get("market_cap"))
		if err != nil {
			return nil, fmt.Errorf("parsing %s market cap: %w", market.ID, err)
		}
		market.TotalVolume, err = parseDecimal(data[idx].Get("total_volume"))
		if err != nil {
			return nil, fmt.Errorf("parsing %s total volume: %w", market.ID, err)
		}

		if updated := data[idx].Get("last_updated").String(); updated != "" {
			dt, err := time.Parse(time.RFC3339, updated)
			if err != nil {
				return nil, fmt.Errorf("parsing %s last updated date: %w", market.ID, err)
			}
			market.LastUpdated = dt
		}

		markets = append(markets, market)
	}

	return markets, nil
}

// ParsePriceSeries parses the price series of a coin from the provided market chart data.
func (c *CoinGeckoClient) ParsePriceSeries(data gjson.Result, coinID string) (*shared.PriceSeries, error) {
	return parsePricePairs(data.Get("prices").Array(), coinID)
}

// FetchMarketSummaries fetches and parses the current market snapshot.
func (c *CoinGeckoClient) FetchMarketSummaries(ctx context.Context) ([]shared.MarketSummary, error) {
	data, err := c.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}

	return c.ParseMarkets(data)
}

// FetchPriceHistory fetches and parses the price history of a coin.
func (c *CoinGeckoClient) FetchPriceHistory(ctx context.Context, coinID string, days int) (*shared.PriceSeries, error) {
	data, err := c.FetchMarketChart(ctx, coinID, days)
	if err != nil {
		return nil, err
	}

	return c.ParsePriceSeries(data, coinID)
}
