package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dnldd/datavis/chart"
	"github.com/dnldd/datavis/dashboard"
	"github.com/dnldd/datavis/database"
	"github.com/dnldd/datavis/fetch"
	"github.com/dnldd/datavis/grid"
	"github.com/dnldd/datavis/incident"
	"github.com/dnldd/datavis/shared"
	"github.com/rs/zerolog"
)

// endpoints represents the api base urls used by the command.
type endpoints struct {
	coinGecko string
	news      string
}

var defaultEndpoints = endpoints{
	coinGecko: fetch.CoinGeckoBaseURL,
	news:      fetch.NewsBaseURL,
}

// run executes the configured mode, writing its output to w.
func run(ctx context.Context, cfg *Config, urls endpoints, logger *zerolog.Logger, w io.Writer) error {
	switch cfg.Mode {
	case dashboardMode:
		return runDashboard(ctx, cfg, urls, logger, w)
	case gridMode:
		return runGrid(ctx, cfg, w)
	case incidentsMode:
		return runIncidents(cfg, w)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

// runDashboard renders the dashboard once for the first configured symbol.
func runDashboard(ctx context.Context, cfg *Config, urls endpoints, logger *zerolog.Logger, w io.Writer) error {
	coinGecko, err := fetch.NewCoinGeckoClient(&fetch.CoinGeckoConfig{
		BaseURL:    urls.coinGecko,
		APIKey:     cfg.CoinGeckoAPIKey,
		VsCurrency: cfg.VsCurrency,
	})
	if err != nil {
		return fmt.Errorf("creating coingecko client: %w", err)
	}

	dashCfg := &dashboard.Config{
		History:   coinGecko,
		NewsQuery: cfg.NewsQuery,
		MAWindow:  cfg.MAWindow,
		RSIWindow: cfg.RSIWindow,
	}
	if !cfg.Offline {
		dashCfg.Markets = coinGecko
	}

	var coin string
	if len(cfg.Symbols) > 0 {
		coin = strings.TrimSpace(cfg.Symbols[0])
	}

	if cfg.HistoryFilePath != "" {
		historicDataLogger := logger.With().Str("component", "historicdata").Logger()
		historicData, err := fetch.NewHistoricData(&fetch.HistoricDataConfig{
			FilePath: cfg.HistoryFilePath,
			Logger:   &historicDataLogger,
		})
		if err != nil {
			return fmt.Errorf("creating historic data: %w", err)
		}
		dashCfg.History = historicData
		dashCfg.AllowUnlisted = true
		if coin == "" {
			coin = historicData.FetchCoin()
		}
	}

	if cfg.NewsAPIKey != "" {
		news, err := fetch.NewNewsClient(&fetch.NewsConfig{
			BaseURL: urls.news,
			APIKey:  cfg.NewsAPIKey,
		})
		if err != nil {
			return fmt.Errorf("creating news client: %w", err)
		}
		dashCfg.Headlines = news
	}

	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			logger.Error().Msgf("creating database, rendering without persistence: %v", err)
		} else {
			dashCfg.Storer = db
		}
	}

	dashLogger := logger.With().Str("component", "dashboard").Logger()
	dashCfg.Logger = &dashLogger
	svc, err := dashboard.NewService(dashCfg)
	if err != nil {
		return fmt.Errorf("creating dashboard service: %w", err)
	}

	payload, err := svc.Render(ctx, dashboard.Selection{Coin: coin, Days: cfg.HistoryDays})
	if err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}

	stats := svc.Stats()
	logger.Info().Msgf("rendered dashboard %s for %s (news failures: %d, persist failures: %d)",
		payload.ID, coin, stats.NewsFailures, stats.PersistFailures)

	return dashboard.WritePayload(w, payload, cfg.ChartWidth)
}

// runGrid fetches the configured document and prints the reconstructed grid.
func runGrid(ctx context.Context, cfg *Config, w io.Writer) error {
	client := fetch.NewDocumentClient(&fetch.DocumentConfig{})
	doc, err := client.FetchDocument(ctx, cfg.DocumentURL)
	if err != nil {
		return err
	}

	points, err := fetch.ParseDocument(strings.NewReader(doc))
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	if len(points) == 0 {
		_, err = fmt.Fprintln(w, "no data to display")
		return err
	}

	var blank rune
	if cfg.GridBlank != "" {
		blank = shared.NewPoint(0, 0, cfg.GridBlank).Glyph
	}

	g, err := grid.Build(points, blank)
	if err != nil {
		return fmt.Errorf("building grid: %w", err)
	}

	_, err = fmt.Fprintln(w, g.String())
	return err
}

// runIncidents prints the incident aggregates of the configured csv.
func runIncidents(cfg *Config, w io.Writer) error {
	incidents, err := incident.Load(cfg.IncidentsFilePath)
	if err != nil {
		return err
	}

	monthly := incident.MonthlyCounts(incidents)
	fig, err := incident.MonthlyFigure(monthly)
	if err != nil {
		return err
	}
	err = chart.WriteFigure(w, &fig, cfg.ChartWidth)
	if err != nil {
		return err
	}
	for _, month := range monthly {
		_, err = fmt.Fprintf(w, "  %s  %d\n", month.Month, month.Count)
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(w)
	if err != nil {
		return err
	}
	dayType := incident.DayTypeFigure(incident.CountByDayAndType(incidents, cfg.MaxAge), cfg.MaxAge)
	err = chart.WriteFigure(w, &dayType, cfg.ChartWidth)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\n%d of %d incidents can be mapped\n",
		len(incident.HeatPoints(incidents)), len(incidents))
	return err
}
