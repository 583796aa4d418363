package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

func newFixtureServer(t *testing.T, fixtures map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, ok := fixtures[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		b, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Write(b)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestRunDashboard(t *testing.T) {
	server := newFixtureServer(t, map[string]string{
		"/coins/markets":              "testdata/markets.json",
		"/coins/bitcoin/market_chart": "testdata/marketchart.json",
		"/v2/everything":              "testdata/news.json",
	})

	cfg := &Config{
		Mode:       dashboardMode,
		Symbols:    []string{"bitcoin"},
		NewsAPIKey: "key",
	}
	cfg.applyDefaults()
	assert.NoError(t, cfg.Validate())

	urls := endpoints{coinGecko: server.URL, news: server.URL}
	logger := zerolog.Nop()
	var sb strings.Builder

	// Ensure the dashboard renders details, figures and headlines.
	err := run(context.Background(), cfg, urls, &logger, &sb)
	assert.NoError(t, err)

	out := sb.String()
	assert.True(t, strings.Contains(out, "Price: $97,123.45"))
	assert.True(t, strings.Contains(out, "Bitcoin Price"))
	assert.True(t, strings.Contains(out, "RSI(14)"))
	assert.True(t, strings.Contains(out, "Latest Crypto News"))
	assert.True(t, strings.Contains(out, "Crypto headline 1"))
	assert.False(t, strings.Contains(out, "Crypto headline 5"))
}

func TestRunDashboardFromHistory(t *testing.T) {
	server := newFixtureServer(t, map[string]string{
		"/coins/markets": "testdata/markets.json",
	})

	cfg := &Config{
		Mode:            dashboardMode,
		HistoryFilePath: "testdata/pricehistory.json",
	}
	cfg.applyDefaults()

	urls := endpoints{coinGecko: server.URL}
	logger := zerolog.Nop()
	var sb strings.Builder

	// Ensure the selected coin is taken from the stored history.
	err := run(context.Background(), cfg, urls, &logger, &sb)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(sb.String(), "Bitcoin RSI"))
}

func TestRunDashboardOffline(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Inc()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := &Config{
		Mode:            dashboardMode,
		HistoryFilePath: "testdata/pricehistory.json",
		Offline:         true,
	}
	cfg.applyDefaults()
	assert.NoError(t, cfg.Validate())

	urls := endpoints{coinGecko: server.URL}
	logger := zerolog.Nop()
	var sb strings.Builder

	// Ensure stored history renders without contacting the market api.
	err := run(context.Background(), cfg, urls, &logger, &sb)
	assert.NoError(t, err)
	assert.Equal(t, requests.Load(), int64(0))

	out := sb.String()
	assert.True(t, strings.Contains(out, "bitcoin Price"))
	assert.True(t, strings.Contains(out, "bitcoin RSI"))
	assert.True(t, strings.Contains(out, "note: market snapshot unavailable"))
	assert.True(t, strings.Contains(out, "note: bitcoin is not in the market snapshot"))
}

func TestRunGrid(t *testing.T) {
	server := newFixtureServer(t, map[string]string{
		"/doc":   "testdata/document.html",
		"/blank": "testdata/document_blankglyph.html",
	})

	cfg := &Config{Mode: gridMode, DocumentURL: server.URL + "/doc"}
	cfg.applyDefaults()
	logger := zerolog.Nop()
	var sb strings.Builder

	// Ensure the document points are reconstructed into rows, top row first.
	err := run(context.Background(), cfg, endpoints{}, &logger, &sb)
	assert.NoError(t, err)
	assert.Equal(t, sb.String(), "█▀▀▀\n█▀▀ \n█   \n")

	// Ensure the blank glyph is configurable.
	cfg.GridBlank = "."
	sb.Reset()
	err = run(context.Background(), cfg, endpoints{}, &logger, &sb)
	assert.NoError(t, err)
	assert.Equal(t, sb.String(), "█▀▀▀\n█▀▀.\n█...\n")

	// Ensure fetch failures are returned.
	// Ensure blank glyph cells render as the blank glyph rather than a nul rune.
	cfg.DocumentURL = server.URL + "/blank"
	sb.Reset()
	err = run(context.Background(), cfg, endpoints{}, &logger, &sb)
	assert.NoError(t, err)
	assert.Equal(t, sb.String(), "A.B\n")
	assert.False(t, strings.ContainsRune(sb.String(), 0))

	cfg.DocumentURL = server.URL + "/missing"
	err = run(context.Background(), cfg, endpoints{}, &logger, &sb)
	assert.Error(t, err)
}

func TestRunIncidents(t *testing.T) {
	cfg := &Config{Mode: incidentsMode, IncidentsFilePath: "testdata/incidents.csv"}
	cfg.applyDefaults()
	logger := zerolog.Nop()
	var sb strings.Builder

	err := run(context.Background(), cfg, endpoints{}, &logger, &sb)
	assert.NoError(t, err)

	out := sb.String()
	assert.True(t, strings.Contains(out, "Monthly Incident Trends"))
	assert.True(t, strings.Contains(out, "2024-01  4"))
	assert.True(t, strings.Contains(out, "Incidents Involving Victims Aged 18 or Under\n"))
	assert.True(t, strings.Contains(out, "6 of 7 incidents can be mapped"))

	// Ensure the age filtered figure renders one trace per crime type.
	for _, want := range []struct {
		crimeType string
		day       string
		count     string
	}{
		{"Assault", "2024-01-05", "1"},
		{"Theft", "2024-01-05", "2"},
		{"Robbery", "2024-02-02", "1"},
		{"Theft", "2024-02-14", "1"},
	} {
		line := fmt.Sprintf("  %-16s %-12s %s\n", want.crimeType, want.day, want.count)
		assert.True(t, strings.Contains(out, line))
	}
	assert.False(t, strings.Contains(out, "Vandalism"))
}
