package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dnldd/datavis/shared"
	"github.com/tidwall/gjson"
)

const (
	// NewsBaseURL is the NewsAPI base url.
	NewsBaseURL = "https://newsapi.org"
	// apiKeyHeader is the header carrying NewsAPI keys.
	apiKeyHeader = "X-Api-Key"
)

// NewsConfig represents the configuration for the news client.
type NewsConfig struct {
	// BaseURL is the api base url.
	BaseURL string
	// APIKey is the NewsAPI key.
	APIKey string
	// Timeout is the http client timeout.
	Timeout time.Duration
}

// Validate asserts the config sane inputs.
func (cfg *NewsConfig) Validate() error {
	var errs error

	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("base url cannot be an empty string"))
	}
	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("news api key cannot be an empty string"))
	}

	return errs
}

// NewsClient represents the NewsAPI client.
type NewsClient struct {
	cfg   *NewsConfig
	httpc *http.Client
}

// Ensure the NewsClient implements the HeadlineFetcher interface.
var _ shared.HeadlineFetcher = (*NewsClient)(nil)

// NewNewsClient instantiates a new news client.
func NewNewsClient(cfg *NewsConfig) (*NewsClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating news config: %w", err)
	}

	return &NewsClient{
		cfg:   cfg,
		httpc: newHTTPClient(cfg.Timeout),
	}, nil
}

// ParseArticles parses news articles from the provided json data, capped at limit.
func (c *NewsClient) ParseArticles(data []gjson.Result, limit int) ([]shared.Article, error) {
	if limit > len(data) || limit <= 0 {
		limit = len(data)
	}

	articles := make([]shared.Article, 0, limit)
	for idx := range data[:limit] {
		article := shared.Article{
			Title:  data[idx].Get("title").String(),
			URL:    data[idx].Get("url").String(),
			Source: data[idx].Get("source.name").String(),
		}

		if published := data[idx].Get("publishedAt").String(); published != "" {
			dt, err := time.Parse(time.RFC3339, published)
			if err != nil {
				return nil, fmt.Errorf("parsing article published date: %w", err)
			}
			article.PublishedAt = dt
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// FetchHeadlines fetches the latest articles matching the provided query, capped at limit.
func (c *NewsClient) FetchHeadlines(ctx context.Context, query string, limit int) ([]shared.Article, error) {
	const everythingPath = "/v2/everything"

	if query == "" {
		return nil, fmt.Errorf("news query cannot be an empty string")
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("sortBy", "publishedAt")
	if limit > 0 {
		params.Add("pageSize", fmt.Sprint(limit))
	}

	header := http.Header{}
	header.Set(apiKeyHeader, c.cfg.APIKey)

	body, err := get(ctx, c.httpc, c.cfg.BaseURL+everythingPath+"?"+params.Encode(), header)
	if err != nil {
		return nil, fmt.Errorf("fetching headlines for %q: %w", query, err)
	}

	res := gjson.ParseBytes(body)
	if status := res.Get("status").String(); status != "ok" {
		return nil, fmt.Errorf("news api status %q: %s", status, res.Get("message").String())
	}

	return c.ParseArticles(res.Get("articles").Array(), limit)
}
