package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dnldd/datavis/dashboard"
	"github.com/dnldd/datavis/incident"
	"github.com/dnldd/datavis/indicator"
	"github.com/joho/godotenv"
)

const (
	dashboardMode = "dashboard"
	gridMode      = "grid"
	incidentsMode = "incidents"

	defaultVsCurrency = "usd"
	defaultNewsQuery  = "cryptocurrency"
	defaultChartWidth = 60
)

// Config is the configuration struct for the service.
type Config struct {
	// Mode is the command mode, one of dashboard, grid or incidents.
	Mode string
	// Symbols represents the coin ids selectable on the dashboard.
	Symbols []string
	// VsCurrency is the quote currency for prices.
	VsCurrency string
	// HistoryDays is the number of days of price history rendered.
	HistoryDays int
	// MAWindow is the moving average window.
	MAWindow int
	// RSIWindow is the relative strength index window.
	RSIWindow int
	// ChartWidth is the terminal chart width.
	ChartWidth int
	// CoinGeckoAPIKey is the optional CoinGecko demo api key.
	CoinGeckoAPIKey string
	// NewsAPIKey is the news api key, news is skipped when empty.
	NewsAPIKey string
	// NewsQuery is the headline search query.
	NewsQuery string
	// DocumentURL is the url of the document holding the grid points table.
	DocumentURL string
	// GridBlank is the glyph filling empty grid cells.
	GridBlank string
	// IncidentsFilePath is the filepath to the incidents csv.
	IncidentsFilePath string
	// MaxAge is the victim age bound for age filtered incident counts.
	MaxAge int
	// HistoryFilePath is the optional filepath to stored price history.
	HistoryFilePath string
	// Offline renders the dashboard from stored price history without a market snapshot.
	Offline bool
	// DBEndpoint is the optional rqlite endpoint, persistence is skipped when empty.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string

	registeredFlags map[string]bool
}

// applyDefaults sets defaults for options left unset.
func (cfg *Config) applyDefaults() {
	if cfg.Mode == "" {
		cfg.Mode = dashboardMode
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = defaultVsCurrency
	}
	if cfg.HistoryDays == 0 {
		cfg.HistoryDays = dashboard.DefaultDays
	}
	if cfg.MAWindow == 0 {
		cfg.MAWindow = dashboard.DefaultMAWindow
	}
	if cfg.RSIWindow == 0 {
		cfg.RSIWindow = indicator.DefaultRSIWindow
	}
	if cfg.ChartWidth == 0 {
		cfg.ChartWidth = defaultChartWidth
	}
	if cfg.NewsQuery == "" {
		cfg.NewsQuery = defaultNewsQuery
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = incident.DefaultMaxAge
	}
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	switch cfg.Mode {
	case dashboardMode:
		if len(cfg.Symbols) == 0 && cfg.HistoryFilePath == "" {
			errs = errors.Join(errs, fmt.Errorf("no symbols or history filepath provided for dashboard"))
		}
		if cfg.Offline && cfg.HistoryFilePath == "" {
			errs = errors.Join(errs, fmt.Errorf("offline dashboard requires a history filepath"))
		}
		if cfg.HistoryDays < 0 {
			errs = errors.Join(errs, fmt.Errorf("history days cannot be negative"))
		}
		if cfg.MAWindow < 0 {
			errs = errors.Join(errs, fmt.Errorf("moving average window cannot be negative"))
		}
		if cfg.RSIWindow < 0 {
			errs = errors.Join(errs, fmt.Errorf("rsi window cannot be negative"))
		}
		if cfg.DBUser != "" && cfg.DBEndpoint == "" {
			errs = errors.Join(errs, fmt.Errorf("database user provided without an endpoint"))
		}
	case gridMode:
		if cfg.DocumentURL == "" {
			errs = errors.Join(errs, fmt.Errorf("document url cannot be an empty string"))
		}
		if utf8.RuneCountInString(cfg.GridBlank) > 1 {
			errs = errors.Join(errs, fmt.Errorf("grid blank must be a single glyph"))
		}
	case incidentsMode:
		if cfg.IncidentsFilePath == "" {
			errs = errors.Join(errs, fmt.Errorf("incidents filepath cannot be an empty string"))
		}
		if cfg.MaxAge < 0 {
			errs = errors.Join(errs, fmt.Errorf("max age cannot be negative"))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown mode %q", cfg.Mode))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"mode", &cfg.Mode, "the command mode (dashboard, grid or incidents)"},
		{"symbols", &cfg.Symbols, "the selectable coin ids"},
		{"vscurrency", &cfg.VsCurrency, "the quote currency"},
		{"historydays", &cfg.HistoryDays, "the days of price history rendered"},
		{"mawindow", &cfg.MAWindow, "the moving average window"},
		{"rsiwindow", &cfg.RSIWindow, "the rsi window"},
		{"chartwidth", &cfg.ChartWidth, "the terminal chart width"},
		{"coingeckoapikey", &cfg.CoinGeckoAPIKey, "the CoinGecko demo api key"},
		{"newsapikey", &cfg.NewsAPIKey, "the news api key"},
		{"newsquery", &cfg.NewsQuery, "the headline search query"},
		{"documenturl", &cfg.DocumentURL, "the grid document url"},
		{"gridblank", &cfg.GridBlank, "the glyph filling empty grid cells"},
		{"incidentsfilepath", &cfg.IncidentsFilePath, "the incidents csv filepath"},
		{"maxage", &cfg.MaxAge, "the victim age bound for age filtered counts"},
		{"historyfilepath", &cfg.HistoryFilePath, "the stored price history filepath"},
		{"offline", &cfg.Offline, "render the dashboard from stored history only"},
		{"dbendpoint", &cfg.DBEndpoint, "the rqlite endpoint"},
		{"dbuser", &cfg.DBUser, "the database user"},
		{"dbpass", &cfg.DBPass, "the database user pass"},
	}

	// Register command line arguments using loaded environment variables as defaults.
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	cfg.applyDefaults()

	return cfg.Validate()
}
