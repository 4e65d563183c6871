package testutil

import (
	"database/sql"
	"testing"

	"github.com/marcboeker/go-duckdb"
)

// NewDuckDB opens an in-memory DuckDB database, runs the statements in
// setup and closes the database when the test completes.
func NewDuckDB(t *testing.T, setup ...string) *sql.DB {
	t.Helper()

	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		t.Fatalf("failed to create duckdb connector: %v", err)
	}
	db := sql.OpenDB(connector)

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to run setup statement %q: %v", stmt, err)
		}
	}
	return db
}
