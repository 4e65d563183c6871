// Package config loads the analytics configuration from defaults, a YAML file
// and ANALYTICS_* environment variables.
package config

import (
	"time"

	"github.com/paylens/analytics/internal/logging"
	"github.com/paylens/analytics/internal/query"
)

// Config is the root configuration.
type Config struct {
	Log logging.Config `yaml:"log" env:"LOG"`

	// Transactional is the row-oriented backend queried with the Postgres dialect.
	Transactional BackendConfig `yaml:"transactional" env:"TRANSACTIONAL"`

	// Analytical is the column-oriented backend queried with the ClickHouse dialect.
	Analytical BackendConfig `yaml:"analytical" env:"ANALYTICAL"`

	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Tables maps table names to their storage engine. Tables not listed are
	// plain.
	Tables map[string]TableConfig `yaml:"tables"`
}

// BackendConfig describes one database pool.
type BackendConfig struct {
	// Driver is the database/sql driver name: pgx, clickhouse or duckdb.
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`

	// QueryTimeout bounds a single LoadRows call. Zero disables the bound.
	QueryTimeout time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT"`
}

// RetryConfig controls retries of queries that failed on a broken connection.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries" env:"MAX_RETRIES"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"INITIAL_BACKOFF"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env:"MAX_BACKOFF"`
	Jitter         float64       `yaml:"jitter" env:"JITTER"`
}

// AuthConfig verifies tenant-scope tokens.
type AuthConfig struct {
	// Secret is the HMAC key tokens are signed with. Only read from the
	// environment or a file, never logged.
	Secret   string        `yaml:"secret" env:"SECRET"`
	Issuer   string        `yaml:"issuer" env:"ISSUER"`
	Audience string        `yaml:"audience" env:"AUDIENCE"`
	Leeway   time.Duration `yaml:"leeway" env:"LEEWAY"`
}

// Engine names accepted in TableConfig.
const (
	EnginePlain               = "plain"
	EngineCollapsingMergeTree = "collapsing_merge_tree"
)

// TableConfig is the storage engine of one table.
type TableConfig struct {
	Engine string `yaml:"engine"`
	// Sign is the sign column of a collapsing_merge_tree table.
	Sign string `yaml:"sign"`
}

// Engines returns a resolver over the configured tables.
func (c *Config) Engines() query.StaticEngines {
	engines := make(query.StaticEngines, len(c.Tables))
	for name, t := range c.Tables {
		if t.Engine == EngineCollapsingMergeTree {
			engines[query.Table(name)] = query.CollapsingMergeTree(t.Sign)
		} else {
			engines[query.Table(name)] = query.PlainTable()
		}
	}
	return engines
}
