package config

import (
	"time"

	"github.com/paylens/analytics/internal/logging"
)

// Default values.
const (
	DefaultTransactionalDriver = "pgx"
	DefaultAnalyticalDriver    = "clickhouse"
	DefaultMaxOpenConns        = 10
	DefaultMaxIdleConns        = 5
	DefaultConnMaxLifetime     = 30 * time.Minute
	DefaultQueryTimeout        = 30 * time.Second
	DefaultSignColumn          = "sign_flag"
	DefaultTokenIssuer         = "paylens-auth"
	DefaultTokenAudience       = "paylens-analytics"
	DefaultTokenLeeway         = 30 * time.Second
)

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Log: logging.DefaultConfig(),
		Transactional: BackendConfig{
			Driver:          DefaultTransactionalDriver,
			MaxOpenConns:    DefaultMaxOpenConns,
			MaxIdleConns:    DefaultMaxIdleConns,
			ConnMaxLifetime: DefaultConnMaxLifetime,
			QueryTimeout:    DefaultQueryTimeout,
		},
		Analytical: BackendConfig{
			Driver:          DefaultAnalyticalDriver,
			MaxOpenConns:    DefaultMaxOpenConns,
			MaxIdleConns:    DefaultMaxIdleConns,
			ConnMaxLifetime: DefaultConnMaxLifetime,
			QueryTimeout:    DefaultQueryTimeout,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Jitter:         0.1,
		},
		Auth: AuthConfig{
			Issuer:   DefaultTokenIssuer,
			Audience: DefaultTokenAudience,
			Leeway:   DefaultTokenLeeway,
		},
		Tables: map[string]TableConfig{
			"payment_attempts": {Engine: EngineCollapsingMergeTree, Sign: DefaultSignColumn},
			"payment_intents":  {Engine: EngineCollapsingMergeTree, Sign: DefaultSignColumn},
			"refunds":          {Engine: EngineCollapsingMergeTree, Sign: DefaultSignColumn},
			"dispute":          {Engine: EngineCollapsingMergeTree, Sign: DefaultSignColumn},
			"api_events_audit": {Engine: EnginePlain},
			"sdk_events_audit": {Engine: EnginePlain},
		},
	}
}
