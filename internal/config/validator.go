package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Validator is the interface for validating configuration.
type Validator interface {
	Validate() error
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "validation failed with %d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&builder, "  %d. %s\n", i+1, err.Error())
	}
	return builder.String()
}

var (
	transactionalDrivers = []string{"pgx", "duckdb"}
	analyticalDrivers    = []string{"clickhouse"}
)

// Validate checks drivers, pool sizes, retry settings and table engines.
func (c *Config) Validate() error {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	validateBackend := func(name string, b BackendConfig, drivers []string) {
		if !slices.Contains(drivers, b.Driver) {
			add(name+".driver", "driver %q is not one of %s", b.Driver, strings.Join(drivers, ", "))
		}
		if b.MaxOpenConns < 0 {
			add(name+".max_open_conns", "must not be negative")
		}
		if b.MaxIdleConns < 0 {
			add(name+".max_idle_conns", "must not be negative")
		}
		if b.QueryTimeout < 0 {
			add(name+".query_timeout", "must not be negative")
		}
	}
	validateBackend("transactional", c.Transactional, transactionalDrivers)
	validateBackend("analytical", c.Analytical, analyticalDrivers)

	if c.Retry.MaxRetries < 1 {
		add("retry.max_retries", "must be at least 1")
	}
	if c.Retry.InitialBackoff <= 0 {
		add("retry.initial_backoff", "must be positive")
	}
	if c.Retry.MaxBackoff > 0 && c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		add("retry.max_backoff", "must not be less than initial_backoff")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		add("retry.jitter", "must be between 0 and 1")
	}

	if c.Auth.Leeway < 0 {
		add("auth.leeway", "must not be negative")
	}

	for _, name := range slices.Sorted(maps.Keys(c.Tables)) {
		t := c.Tables[name]
		field := "tables." + name
		switch t.Engine {
		case EnginePlain, "":
		case EngineCollapsingMergeTree:
			if t.Sign == "" {
				add(field+".sign", "collapsing_merge_tree requires a sign column")
			}
		default:
			add(field+".engine", "unknown engine %q", t.Engine)
		}
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}
