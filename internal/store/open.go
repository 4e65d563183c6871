// Package store executes built analytics queries against the configured
// backends and decodes the result rows.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"

	"github.com/paylens/analytics/internal/config"
	cerrors "github.com/paylens/analytics/internal/errors"
	"github.com/paylens/analytics/pkg/version"
)

// Supported database/sql drivers.
const (
	DriverPgx        = "pgx"
	DriverClickHouse = "clickhouse"
	DriverDuckDB     = "duckdb"
)

// ApplicationName is reported to Postgres in pg_stat_activity and to
// ClickHouse in system.query_log, followed by the build version.
const ApplicationName = "paylens-analytics"

// Open creates a connection pool for cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.BackendConfig, logger zerolog.Logger) (*sql.DB, error) {
	db, err := openDriver(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		cerrors.DeferClose(logger, db, "failed to close pool after ping failure")
		return nil, fmt.Errorf("failed to ping %s backend: %w", cfg.Driver, err)
	}

	logger.Debug().
		Str("driver", cfg.Driver).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Opened backend pool")

	return db, nil
}

func openDriver(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPgx:
		return openPostgres(dsn)
	case DriverClickHouse:
		return openClickHouse(dsn)
	case DriverDuckDB:
		return OpenDuckDB(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func openPostgres(dsn string) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if connConfig.RuntimeParams == nil {
		connConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := connConfig.RuntimeParams["application_name"]; !ok {
		connConfig.RuntimeParams["application_name"] = version.ClientName(ApplicationName)
	}
	return sql.Open(DriverPgx, stdlib.RegisterConnConfig(connConfig))
}

func openClickHouse(dsn string) (*sql.DB, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	opts.ClientInfo.Products = append(opts.ClientInfo.Products, struct{ Name, Version string }{
		ApplicationName, version.Version,
	})
	return clickhouse.OpenDB(opts), nil
}

// OpenDuckDB opens an embedded DuckDB database. An empty dsn or ":memory:"
// opens an in-memory database shared by every connection of the pool.
func OpenDuckDB(dsn string) (*sql.DB, error) {
	if dsn == ":memory:" {
		dsn = ""
	}
	connector, err := duckdb.NewConnector(dsn, nil)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}
