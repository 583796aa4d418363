package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/datavis/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createPriceTableSQL  = "CREATE TABLE IF NOT EXISTS price (coin TEXT NOT NULL, date INTEGER NOT NULL, value REAL NOT NULL, PRIMARY KEY (coin, date))"
	createRenderTableSQL = "CREATE TABLE IF NOT EXISTS render (id TEXT PRIMARY KEY, coin TEXT, days INTEGER, pricepoints INTEGER, createdon INTEGER)"
	persistPriceSQL      = "INSERT OR REPLACE INTO price(coin, date, value) VALUES(?,?,?)"
	persistRenderSQL     = "INSERT INTO render(id, coin, days, pricepoints, createdon) VALUES(?,?,?,?,?)"

	// maxBatchSize is the maximum number of statements sent in a single request.
	maxBatchSize = 500
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *DatabaseConfig) Validate() error {
	var errs error

	if cfg.Endpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// executor defines the rqlite client operations used by the database.
type executor interface {
	Execute(ctx context.Context, statements rqlitehttp.SQLStatements, opts *rqlitehttp.ExecuteOptions) (*rqlitehttp.ExecuteResponse, error)
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client executor
}

// Ensure the database implements the HistoryStorer interface.
var _ shared.HistoryStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating database config: %w", err)
	}

	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	return newDatabase(ctx, cfg, client)
}

// newDatabase bootstraps a database over the provided client.
func newDatabase(ctx context.Context, cfg *DatabaseConfig, client executor) (*Database, error) {
	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err := db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// execute runs the provided statements in a transaction, surfacing statement level errors.
func (db *Database) execute(ctx context.Context, statements rqlitehttp.SQLStatements) error {
	resp, err := db.client.Execute(ctx, statements, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("statement %d: %s", idx, errStr)
	}

	return nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	return db.execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createPriceTableSQL},
		{SQL: createRenderTableSQL},
	})
}

// PersistPriceSeries stores the provided price series, replacing existing prices recorded for
// the same coin and timestamp.
func (db *Database) PersistPriceSeries(ctx context.Context, series *shared.PriceSeries) error {
	points := series.Points()
	if len(points) == 0 {
		return nil
	}

	for start := 0; start < len(points); start += maxBatchSize {
		end := min(start+maxBatchSize, len(points))

		statements := make(rqlitehttp.SQLStatements, 0, end-start)
		for _, pt := range points[start:end] {
			statements = append(statements, rqlitehttp.SQLStatements{{
				SQL:              persistPriceSQL,
				PositionalParams: []any{series.Market, pt.Date.UnixMilli(), pt.Value},
			}}...)
		}

		err := db.execute(ctx, statements)
		if err != nil {
			return fmt.Errorf("persisting %s prices [%d:%d]: %w", series.Market, start, end, err)
		}
	}

	db.cfg.Logger.Info().Msgf("persisted %d %s prices", len(points), series.Market)

	return nil
}

// PersistRender stores the provided render record.
func (db *Database) PersistRender(ctx context.Context, record *shared.RenderRecord) error {
	if record.ID == "" {
		db.cfg.Logger.Error().Msgf("unexpected render record without id: %s", spew.Sdump(record))
		return fmt.Errorf("render record id cannot be an empty string")
	}

	err := db.execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistRenderSQL,
			PositionalParams: []any{record.ID, record.Coin, record.Days, record.PricePoints,
				record.CreatedOn.Unix()},
		},
	})
	if err != nil {
		return fmt.Errorf("persisting render %s: %w", record.ID, err)
	}

	return nil
}
