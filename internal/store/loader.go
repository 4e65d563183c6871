package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/paylens/analytics/internal/config"
	cerrors "github.com/paylens/analytics/internal/errors"
	"github.com/paylens/analytics/internal/query"
	"github.com/paylens/analytics/internal/retry"
)

// Querier is satisfied by *sql.DB and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLLoader runs query text on a database/sql pool speaking dialect D and
// decodes each row into R. It is safe for concurrent use.
type SQLLoader[D query.Dialect, R any] struct {
	db      Querier
	retry   retry.Config
	timeout time.Duration
	logger  zerolog.Logger
}

var _ query.RowLoader[query.Postgres, map[string]any] = (*SQLLoader[query.Postgres, map[string]any])(nil)

// Option configures an SQLLoader.
type Option func(*options)

type options struct {
	retry   retry.Config
	timeout time.Duration
	logger  zerolog.Logger
}

// WithRetry retries transient connection failures with cfg.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

// WithTimeout bounds each LoadRows call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger for query tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// RetryConfig converts the configured retry settings.
func RetryConfig(cfg config.RetryConfig) retry.Config {
	return retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Jitter:         cfg.Jitter,
	}
}

// NewSQLLoader creates a loader over db. Without WithRetry a query is
// attempted once.
func NewSQLLoader[D query.Dialect, R any](db Querier, opts ...Option) *SQLLoader[D, R] {
	o := options{
		retry:  retry.Config{MaxRetries: 1},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLLoader[D, R]{
		db:      db,
		retry:   o.retry,
		timeout: o.timeout,
		logger:  o.logger,
	}
}

// Dialect implements query.RowLoader.
func (l *SQLLoader[D, R]) Dialect() D {
	var d D
	return d
}

// LoadRows implements query.RowLoader.
func (l *SQLLoader[D, R]) LoadRows(ctx context.Context, q string) ([]R, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	logger := l.logger.With().
		Str("query_id", uuid.NewString()).
		Str("dialect", l.Dialect().Name()).
		Str("fingerprint", Fingerprint(q)).
		Logger()

	start := time.Now()
	attempts := 0
	rows, err := retry.DoValue(ctx, l.retry, func() ([]R, error) {
		attempts++
		if attempts > 1 {
			logger.Warn().Int("attempt", attempts).Msg("Retrying query")
		}
		return l.query(ctx, q)
	}, IsTransient)
	if err != nil {
		logger.Error().
			Err(err).
			Int("attempts", attempts).
			Dur("duration", time.Since(start)).
			Msg("Query failed")
		return nil, err
	}

	logger.Debug().
		Int("rows", len(rows)).
		Int("attempts", attempts).
		Dur("duration", time.Since(start)).
		Msg("Query completed")

	return rows, nil
}

func (l *SQLLoader[D, R]) query(ctx context.Context, q string) (out []R, err error) {
	rows, err := l.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer cerrors.CloseInto(&err, rows, "result set")

	return ScanAll[R](rows)
}

// IsTransient reports whether err is a connection-level failure that a fresh
// connection may not hit again. Query errors and context errors are final.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
