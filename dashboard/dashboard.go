package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/datavis/chart"
	"github.com/dnldd/datavis/indicator"
	"github.com/dnldd/datavis/shared"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// DefaultNewsLimit is the default number of headlines rendered.
	DefaultNewsLimit = 5
	// DefaultDays is the default number of days of history rendered for a selection.
	DefaultDays = 30
	// DefaultMAWindow is the default moving average window.
	DefaultMAWindow = 7
	// NoSelectionNote is the note attached to payloads rendered without a selection.
	NoSelectionNote = "select a coin for details"
	// NoSnapshotNote is the note attached to payloads rendered without a market snapshot.
	NoSnapshotNote = "market snapshot unavailable"
)

var (
	// ErrUnknownCoin is returned when the selected coin is not part of the market snapshot.
	ErrUnknownCoin = errors.New("unknown coin")
)

// Config represents the configuration struct for the dashboard service.
type Config struct {
	// Markets provides the market snapshot, optional when unlisted selections are allowed.
	Markets shared.MarketFetcher
	// History provides price history for the selected coin.
	History shared.HistoryFetcher
	// Headlines provides news headlines, optional.
	Headlines shared.HeadlineFetcher
	// Storer archives fetched history and renders, optional.
	Storer shared.HistoryStorer
	// NewsQuery is the headline search query.
	NewsQuery string
	// NewsLimit is the number of headlines rendered.
	NewsLimit int
	// MAWindow is the moving average window.
	MAWindow int
	// RSIWindow is the relative strength index window.
	RSIWindow int
	// DefaultDays is the history range used when a selection does not specify one.
	DefaultDays int
	// AllowUnlisted renders selections missing from the market snapshot from their history
	// alone, without details.
	AllowUnlisted bool
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Markets == nil && !cfg.AllowUnlisted {
		errs = errors.Join(errs, fmt.Errorf("market fetcher cannot be nil"))
	}
	if cfg.History == nil {
		errs = errors.Join(errs, fmt.Errorf("history fetcher cannot be nil"))
	}
	if cfg.Headlines != nil && cfg.NewsQuery == "" {
		errs = errors.Join(errs, fmt.Errorf("news query cannot be an empty string"))
	}
	if cfg.NewsLimit < 0 {
		errs = errors.Join(errs, fmt.Errorf("news limit cannot be negative"))
	}
	if cfg.MAWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("moving average window must be positive"))
	}
	if cfg.RSIWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("rsi window must be positive"))
	}
	if cfg.DefaultDays < 0 {
		errs = errors.Join(errs, fmt.Errorf("default days cannot be negative"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Service renders dashboard payloads on request.
type Service struct {
	cfg             *Config
	renders         atomic.Uint64
	failures        atomic.Uint64
	newsFailures    atomic.Uint64
	persistFailures atomic.Uint64
	last            atomic.Pointer[Payload]
}

// NewService initializes a new dashboard service.
func NewService(cfg *Config) (*Service, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating dashboard config: %w", err)
	}

	if cfg.NewsLimit == 0 {
		cfg.NewsLimit = DefaultNewsLimit
	}
	if cfg.DefaultDays == 0 {
		cfg.DefaultDays = DefaultDays
	}

	return &Service{cfg: cfg}, nil
}

// Stats returns the render counters of the service.
func (s *Service) Stats() Stats {
	return Stats{
		Renders:         s.renders.Load(),
		Failures:        s.failures.Load(),
		NewsFailures:    s.newsFailures.Load(),
		PersistFailures: s.persistFailures.Load(),
	}
}

// Last returns the most recently rendered payload, nil if nothing has been rendered.
func (s *Service) Last() *Payload {
	return s.last.Load()
}

// Render renders the dashboard for the provided selection.
func (s *Service) Render(ctx context.Context, sel Selection) (*Payload, error) {
	payload, err := s.render(ctx, sel)
	if err != nil {
		s.failures.Inc()
		return nil, err
	}

	s.renders.Inc()
	s.last.Store(payload)

	return payload, nil
}

func (s *Service) render(ctx context.Context, sel Selection) (*Payload, error) {
	if sel.Days <= 0 {
		sel.Days = s.cfg.DefaultDays
	}

	payload := &Payload{
		ID:        uuid.New(),
		CreatedOn: time.Now().UTC(),
		Selection: sel,
	}

	if s.cfg.Markets == nil {
		payload.Notes = append(payload.Notes, NoSnapshotNote)
	} else {
		markets, err := s.cfg.Markets.FetchMarketSummaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching market summaries: %w", err)
		}

		overview, err := overviewFigure(markets)
		if err != nil {
			return nil, err
		}

		payload.Markets = markets
		payload.Figures = append(payload.Figures, overview)
	}

	var series *shared.PriceSeries
	var err error
	if sel.Coin == "" {
		payload.Notes = append(payload.Notes, NoSelectionNote)
	} else {
		name := sel.Coin
		details, ok := shared.FindMarket(payload.Markets, sel.Coin)
		switch {
		case ok:
			payload.Details = &details
			name = details.Name
		case s.cfg.AllowUnlisted:
			payload.Notes = append(payload.Notes, fmt.Sprintf("%s is not in the market snapshot, "+
				"rendering history only", sel.Coin))
		default:
			ids := make([]string, len(payload.Markets))
			for idx := range payload.Markets {
				ids[idx] = payload.Markets[idx].ID
			}
			s.cfg.Logger.Debug().Msgf("%s not in market snapshot: %s", sel.Coin, spew.Sdump(ids))
			return nil, fmt.Errorf("%w: %s", ErrUnknownCoin, sel.Coin)
		}

		series, err = s.cfg.History.FetchPriceHistory(ctx, sel.Coin, sel.Days)
		if err != nil {
			return nil, fmt.Errorf("fetching %s price history: %w", sel.Coin, err)
		}

		err = s.addIndicatorFigures(payload, name, series)
		if err != nil {
			return nil, err
		}
	}

	s.addNews(ctx, payload)
	s.persist(ctx, payload, series)

	return payload, nil
}

// overviewFigure creates the market snapshot figure, one marker trace per coin.
func overviewFigure(markets []shared.MarketSummary) (chart.Figure, error) {
	fig := chart.Figure{
		Title:  fmt.Sprintf("Top %d Cryptos by Market Cap", len(markets)),
		Traces: make([]chart.Trace, 0, len(markets)),
	}

	for idx := range markets {
		price, _ := markets[idx].CurrentPrice.Float64()
		trace, err := chart.NewMarkers(markets[idx].Name, []string{markets[idx].ID}, []float64{price})
		if err != nil {
			return chart.Figure{}, fmt.Errorf("creating market trace: %w", err)
		}
		fig.Traces = append(fig.Traces, trace)
	}

	return fig, nil
}

// addIndicatorFigures attaches the price, moving average and rsi figures of the provided series
// to the payload. Indicators lacking history are noted rather than treated as failures.
func (s *Service) addIndicatorFigures(payload *Payload, name string, series *shared.PriceSeries) error {
	prices := series.Values()
	dates := series.Dates()

	price, err := chart.NewLine("Price", dates, prices)
	if err != nil {
		return err
	}
	priceFig := chart.Figure{
		Title:  fmt.Sprintf("%s Price", name),
		Traces: []chart.Trace{price},
	}

	ma, err := indicator.MovingAverage(prices, s.cfg.MAWindow)
	if err != nil {
		return fmt.Errorf("calculating moving average: %w", err)
	}
	err = indicator.RequireHistory(indicator.MovingAverageKind, len(prices), s.cfg.MAWindow)
	if err != nil {
		payload.Notes = append(payload.Notes, err.Error())
	}
	maTrace, err := chart.NewLine(fmt.Sprintf("MA(%d)", s.cfg.MAWindow), dates, ma)
	if err != nil {
		return err
	}
	priceFig.Traces = append(priceFig.Traces, maTrace)

	rsi, err := indicator.RSI(prices, s.cfg.RSIWindow)
	if err != nil {
		return fmt.Errorf("calculating rsi: %w", err)
	}
	err = indicator.RequireHistory(indicator.RSIKind, len(prices), s.cfg.RSIWindow)
	if err != nil {
		payload.Notes = append(payload.Notes, err.Error())
	}
	rsiTrace, err := chart.NewLine(fmt.Sprintf("RSI(%d)", s.cfg.RSIWindow), dates, rsi)
	if err != nil {
		return err
	}
	rsiFig := chart.Figure{
		Title:  fmt.Sprintf("%s RSI", name),
		Traces: []chart.Trace{rsiTrace},
	}

	payload.Figures = append(payload.Figures, priceFig, rsiFig)

	return nil
}

// addNews attaches headlines to the payload when a headline source is configured.
func (s *Service) addNews(ctx context.Context, payload *Payload) {
	if s.cfg.Headlines == nil {
		return
	}

	articles, err := s.cfg.Headlines.FetchHeadlines(ctx, s.cfg.NewsQuery, s.cfg.NewsLimit)
	if err != nil {
		s.newsFailures.Inc()
		s.cfg.Logger.Error().Msgf("fetching headlines: %v", err)
		return
	}

	payload.News = articles
}

// persist archives the fetched history and the render record when a storer is configured.
func (s *Service) persist(ctx context.Context, payload *Payload, series *shared.PriceSeries) {
	if s.cfg.Storer == nil {
		return
	}

	record := &shared.RenderRecord{
		ID:        payload.ID.String(),
		Coin:      payload.Selection.Coin,
		Days:      payload.Selection.Days,
		CreatedOn: payload.CreatedOn,
	}

	if series != nil {
		record.PricePoints = series.Len()
		err := s.cfg.Storer.PersistPriceSeries(ctx, series)
		if err != nil {
			s.persistFailures.Inc()
			s.cfg.Logger.Error().Msgf("persisting %s price history: %v", series.Market, err)
		}
	}

	err := s.cfg.Storer.PersistRender(ctx, record)
	if err != nil {
		s.persistFailures.Inc()
		s.cfg.Logger.Error().Msgf("persisting render %s: %v", record.ID, err)
	}
}
