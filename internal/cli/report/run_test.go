package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylens/analytics/internal/cli/helpers"
	"github.com/paylens/analytics/internal/config"
	"github.com/paylens/analytics/internal/query"
	"github.com/paylens/analytics/internal/store"
	"github.com/paylens/analytics/internal/testutil"
)

// newDuckDBFile creates a database file holding a small payment_attempt
// table and returns its path.
func newDuckDBFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analytics.duckdb")

	db, err := store.OpenDuckDB(path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE payment_attempt (organization_id VARCHAR, currency VARCHAR, created_at TIMESTAMP)`)
	require.NoError(t, err)

	type attempt struct {
		OrganizationID string    `db:"organization_id"`
		Currency       string    `db:"currency"`
		CreatedAt      time.Time `db:"created_at"`
	}
	at := func(minute int) time.Time { return time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC) }

	table, err := store.NewTable[attempt](db, "payment_attempt")
	require.NoError(t, err)
	require.NoError(t, table.InsertBatch(testutil.NewTestContext(t), []attempt{
		{"org_1", "USD", at(0)},
		{"org_1", "USD", at(5)},
		{"org_1", "EUR", at(10)},
		{"org_2", "USD", at(15)},
	}))
	require.NoError(t, db.Close())
	return path
}

func duckDBConfig(t *testing.T) *config.Config {
	cfg := testConfig()
	cfg.Transactional = config.BackendConfig{Driver: store.DriverDuckDB, DSN: newDuckDBFile(t)}
	return cfg
}

func TestRun_DuckDB(t *testing.T) {
	cfg := duckDBConfig(t)

	req := &Request{
		Table:      "payment_attempt",
		Select:     []string{"currency"},
		Aggregates: []string{"count"},
		GroupBy:    []string{"currency"},
		OrderBy:    []string{"count:desc"},
		AllTime:    true,
		Scope:      helpers.ScopeFlags{Org: "org_1"},
	}

	rows, err := Run(testutil.NewTestContext(t), req, cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"currency": "USD", "count": int64(2)},
		{"currency": "EUR", "count": int64(1)},
	}, rows)
}

func TestRun_ExecutionError(t *testing.T) {
	cfg := duckDBConfig(t)

	req := &Request{
		Table:      "refunds",
		Aggregates: []string{"count"},
		AllTime:    true,
		Scope:      helpers.ScopeFlags{Org: "org_1"},
	}

	_, err := Run(testutil.NewTestContext(t), req, cfg, testutil.NewTestLogger(t))
	require.Error(t, err)

	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Query, "FROM refunds")
}

func TestRun_BackendUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Transactional = config.BackendConfig{Driver: "oracle"}

	req := &Request{Table: "payment_attempt", Aggregates: []string{"count"}, AllTime: true, Scope: helpers.ScopeFlags{Org: "org_1"}}

	_, err := Run(testutil.NewTestContext(t), req, cfg, testutil.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported driver "oracle"`)
}

func TestRunCmd_CSV(t *testing.T) {
	path := newDuckDBFile(t)
	t.Setenv("ANALYTICS_TRANSACTIONAL_DRIVER", store.DriverDuckDB)
	t.Setenv("ANALYTICS_TRANSACTIONAL_DSN", path)
	t.Setenv("ANALYTICS_LOG_LEVEL", "error")

	cmd := NewRunCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"-t", "payment_attempt",
		"--org", "org_1",
		"-s", "currency",
		"-a", "count",
		"-g", "currency",
		"--order-by", "count:desc",
		"--all-time",
		"-o", "csv",
	})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "currency,count\nUSD,2\nEUR,1\n", out.String())
}

func TestRunCmd_InvalidFormat(t *testing.T) {
	cmd := NewRunCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-t", "payment_attempt", "--org", "org_1", "-a", "count", "-o", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "xml"`)
}

func TestRenderCmd(t *testing.T) {
	cmd := NewRenderCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--dialect", "clickhouse",
		"-t", "dispute",
		"--org", "org_1",
		"-s", "dispute_stage",
		"-a", "count",
		"-g", "dispute_stage",
		"--all-time",
	})

	require.NoError(t, cmd.Execute())
	assert.Equal(t,
		"SELECT dispute_stage, COUNT(*) AS count FROM dispute WHERE ( organization_id = 'org_1' ) "+
			"GROUP BY dispute_stage HAVING COUNT(sign_flag) >= '1'\n",
		out.String())
}
