package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylens/analytics/internal/query"
	"github.com/paylens/analytics/internal/retry"
	"github.com/paylens/analytics/internal/testutil"
)

var paymentAttemptFixture = []string{
	`CREATE TABLE payment_attempt (
		payment_id VARCHAR,
		organization_id VARCHAR,
		merchant_id VARCHAR,
		connector VARCHAR,
		currency VARCHAR,
		status VARCHAR,
		amount BIGINT,
		created_at TIMESTAMP
	)`,
	`INSERT INTO payment_attempt VALUES
		('p1', 'org_1', 'm_1', 'stripe',   'USD', 'charged', 100, '2024-01-01 10:03:00'),
		('p2', 'org_1', 'm_1', 'stripe',   'USD', 'charged', 250, '2024-01-01 10:07:00'),
		('p3', 'org_1', 'm_1', 'adyen',    'EUR', 'failure',  80, '2024-01-01 10:40:00'),
		('p4', 'org_1', 'm_2', 'adyen',    'USD', 'charged',  40, '2024-01-01 11:15:00'),
		('p5', 'org_1', 'm_2', 'checkout', 'EUR', 'charged',  60, '2024-01-01 11:20:00'),
		('p6', 'org_1', 'm_2', 'checkout', 'EUR', 'charged',  70, '2024-01-01 11:50:00'),
		('p7', 'org_2', 'm_9', 'stripe',   'USD', 'charged', 999, '2024-01-01 10:00:00')`,
}

const paymentAttempt = query.Table("payment_attempt")

type currencyCount struct {
	Currency string `db:"currency"`
	Count    int64  `db:"count"`
}

func newPaymentsDB(t *testing.T) *sql.DB {
	return testutil.NewDuckDB(t, paymentAttemptFixture...)
}

func TestSQLLoader_StructRows(t *testing.T) {
	db := newPaymentsDB(t)

	b := query.New[query.Postgres](paymentAttempt, nil).WithLogger(testutil.NewTestLoggerWithOutput(t))
	require.NoError(t, query.ApplyScope(b, query.MerchantLevel{OrgID: "org_1", MerchantIDs: []string{"m_1", "m_2"}}))
	require.NoError(t, b.AddSelectColumn(query.Column("currency")))
	require.NoError(t, b.AddSelectColumn(query.Count{Alias: "count"}))
	require.NoError(t, b.AddFilterClause(query.Column("status"), query.Text("charged")))
	require.NoError(t, b.AddGroupByClause(query.Column("currency")))
	require.NoError(t, b.AddOrderByClause(query.Column("count"), query.Descending))

	loader := NewSQLLoader[query.Postgres, currencyCount](db, WithLogger(testutil.NewTestLoggerWithOutput(t)))
	rows, err := query.Execute[query.Postgres, currencyCount](testutil.NewTestContext(t), b, loader)
	require.NoError(t, err)
	assert.Equal(t, []currencyCount{{"USD", 3}, {"EUR", 2}}, rows)
}

func TestSQLLoader_MapRows(t *testing.T) {
	db := newPaymentsDB(t)

	b := query.New[query.Postgres](paymentAttempt, nil)
	require.NoError(t, query.ApplyScope(b, query.ProfileLevel{OrgID: "org_1", MerchantID: "m_1", ProfileIDs: []string{"pro_1"}}))
	require.NoError(t, b.AddSelectColumn(query.Column("payment_id")))

	q, err := b.Build()
	require.NoError(t, err)

	// payment_attempt has no profile_id column.
	_, err = NewSQLLoader[query.Postgres, map[string]any](db).LoadRows(testutil.NewTestContext(t), q)
	require.Error(t, err)

	b = query.New[query.Postgres](paymentAttempt, nil)
	require.NoError(t, query.ApplyScope(b, query.OrgLevel{OrgID: "org_2"}))
	require.NoError(t, b.AddSelectColumn(query.Column("payment_id")))
	require.NoError(t, b.AddSelectColumn(query.Column("amount")))

	q, err = b.Build()
	require.NoError(t, err)

	rows, err := NewSQLLoader[query.Postgres, map[string]any](db).LoadRows(testutil.NewTestContext(t), q)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"payment_id": "p7", "amount": int64(999)}}, rows)
}

func TestSQLLoader_TopN(t *testing.T) {
	db := newPaymentsDB(t)

	type connectorRank struct {
		MerchantID string `db:"merchant_id"`
		Connector  string
		Count      int64
		TopN       int64 `db:"top_n"`
	}

	b := query.New[query.Postgres](paymentAttempt, nil)
	require.NoError(t, query.ApplyScope(b, query.OrgLevel{OrgID: "org_1"}))
	require.NoError(t, b.AddSelectColumn(query.Column("merchant_id")))
	require.NoError(t, b.AddSelectColumn(query.Column("connector")))
	require.NoError(t, b.AddSelectColumn(query.Count{Alias: "count"}))
	require.NoError(t, b.AddGroupByClause(query.Column("merchant_id")))
	require.NoError(t, b.AddGroupByClause(query.Column("connector")))
	require.NoError(t, b.AddOuterSelectColumn(query.Column("*")))
	require.NoError(t, b.AddTopN(query.Columns("merchant_id"), 1, query.Column("count"), query.Descending))

	rows, err := query.Execute[query.Postgres, connectorRank](testutil.NewTestContext(t), b,
		NewSQLLoader[query.Postgres, connectorRank](db))
	require.NoError(t, err)

	sort.Slice(rows, func(i, j int) bool { return rows[i].MerchantID < rows[j].MerchantID })
	assert.Equal(t, []connectorRank{
		{MerchantID: "m_1", Connector: "stripe", Count: 2, TopN: 1},
		{MerchantID: "m_2", Connector: "checkout", Count: 2, TopN: 1},
	}, rows)
}

func TestSQLLoader_GranularityBuckets(t *testing.T) {
	db := newPaymentsDB(t)

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 11, 59, 59, 0, time.UTC)

	b := query.New[query.Postgres](paymentAttempt, nil)
	require.NoError(t, query.ApplyFilters(b,
		query.ScopeFilter[query.Postgres](query.OrgLevel{OrgID: "org_1"}),
		query.RangeFilter[query.Postgres](query.TimeRange{Start: start, End: &end}),
	))
	require.NoError(t, b.AddSelectColumn(query.Count{Alias: "count"}))
	require.NoError(t, b.AddGranularityGroupBy(query.FifteenMin))
	require.NoError(t, b.AddOrderByClause(query.Column("count"), query.Descending))

	counts, err := query.Execute[query.Postgres, int64](testutil.NewTestContext(t), b,
		NewSQLLoader[query.Postgres, int64](db))
	require.NoError(t, err)

	// Bucket the fixture in Go with the clipping algorithm and compare.
	created := []string{"10:03", "10:07", "10:40", "11:15", "11:20", "11:50"}
	buckets := map[time.Time]int64{}
	for _, hm := range created {
		ts, err := time.Parse("2006-01-02 15:04", "2024-01-01 "+hm)
		require.NoError(t, err)
		bucket, err := query.FifteenMin.ClipToStart(ts)
		require.NoError(t, err)
		buckets[bucket]++
	}
	var want []int64
	for _, c := range buckets {
		want = append(want, c)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] > want[j] })

	assert.Equal(t, want, counts)
}

type flakyQuerier struct {
	db       *sql.DB
	failures int
	err      error
	calls    int
}

func (f *flakyQuerier) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.db.QueryContext(ctx, q, args...)
}

func TestSQLLoader_RetriesTransientFailures(t *testing.T) {
	flaky := &flakyQuerier{db: newPaymentsDB(t), failures: 2, err: driver.ErrBadConn}
	loader := NewSQLLoader[query.Postgres, int64](flaky,
		WithRetry(retry.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}),
		WithTimeout(10*time.Second),
	)

	counts, err := loader.LoadRows(testutil.NewTestContext(t), "SELECT COUNT(*) FROM payment_attempt")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, counts)
	assert.Equal(t, 3, flaky.calls)
}

func TestSQLLoader_DoesNotRetryQueryErrors(t *testing.T) {
	flaky := &flakyQuerier{db: newPaymentsDB(t)}
	loader := NewSQLLoader[query.Postgres, int64](flaky,
		WithRetry(retry.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}),
	)

	_, err := loader.LoadRows(testutil.NewTestContext(t), "SELECT COUNT(*) FROM missing_table")
	require.Error(t, err)
	assert.Equal(t, 1, flaky.calls)
}

func TestExecute_WrapsLoaderFailure(t *testing.T) {
	db := newPaymentsDB(t)

	b := query.New[query.Postgres](query.Table("refunds"), nil)
	require.NoError(t, b.AddSelectColumn(query.Column("refund_id")))

	_, err := query.Execute[query.Postgres, map[string]any](testutil.NewTestContext(t), b,
		NewSQLLoader[query.Postgres, map[string]any](db))
	require.Error(t, err)

	var execErr *query.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "SELECT refund_id FROM refunds", execErr.Query)
}

func TestSQLLoader_Dialect(t *testing.T) {
	assert.Equal(t, "clickhouse", NewSQLLoader[query.ClickHouse, map[string]any](nil).Dialect().Name())
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"network timeout", timeoutErr{}, true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), false},
		{"syntax", errors.New("syntax error at or near SELEC"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
