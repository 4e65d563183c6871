package store

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	cerrors "github.com/paylens/analytics/internal/errors"
	"github.com/paylens/analytics/internal/retry"
)

// conflictRetry retries writes that lost a DuckDB optimistic-concurrency race.
var conflictRetry = retry.Config{
	MaxRetries:     10,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     500 * time.Millisecond,
	Jitter:         0.1,
}

// Table writes rows of struct type T into one table of a local backend.
// Columns come from T's fields, named as ScanAll reads them. Statements use
// positional ? placeholders, as DuckDB and ClickHouse accept.
type Table[T any] struct {
	db      *sql.DB
	name    string
	columns []string
	fields  [][]int
}

// NewTable creates a writer for table. T must be a struct with at least one
// mapped field.
func NewTable[T any](db *sql.DB, table string) (*Table[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("table %s: row type %s is not a struct", table, t)
	}

	index := fieldIndex(t)
	if len(index) == 0 {
		return nil, fmt.Errorf("table %s: row type %s has no columns", table, t)
	}

	// Insert in declaration order so statements are stable.
	columns := make([]string, 0, len(index))
	for name := range index {
		columns = append(columns, name)
	}
	slices.SortFunc(columns, func(a, b string) int {
		return slices.Compare(index[a], index[b])
	})

	fields := make([][]int, len(columns))
	for i, col := range columns {
		fields[i] = index[col]
	}

	return &Table[T]{db: db, name: table, columns: columns, fields: fields}, nil
}

// Columns returns the column list in insert order.
func (t *Table[T]) Columns() []string { return slices.Clone(t.columns) }

func (t *Table[T]) insertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	// #nosec G201 - table and column names come from code, not user input
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), placeholders)
}

func (t *Table[T]) values(item *T) []any {
	v := reflect.ValueOf(item).Elem()
	values := make([]any, len(t.fields))
	for i, idx := range t.fields {
		values[i] = v.FieldByIndex(idx).Interface()
	}
	return values
}

// Insert writes one row.
func (t *Table[T]) Insert(ctx context.Context, item T) error {
	q := t.insertSQL()
	values := t.values(&item)

	return retry.Do(ctx, conflictRetry, func() error {
		_, err := t.db.ExecContext(ctx, q, values...)
		return err
	}, isTransactionConflict)
}

// InsertBatch writes items in a single transaction with a prepared
// statement. Either every row is written or none is.
func (t *Table[T]) InsertBatch(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}

	return retry.Do(ctx, conflictRetry, func() error {
		return t.insertBatch(ctx, items)
	}, isTransactionConflict)
}

func (t *Table[T]) insertBatch(ctx context.Context, items []T) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, t.insertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.name, err)
	}
	defer cerrors.CloseInto(&err, stmt, "insert statement")

	for i := range items {
		if _, err := stmt.ExecContext(ctx, t.values(&items[i])...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, t.name, err)
		}
	}

	return tx.Commit()
}

// isTransactionConflict reports DuckDB write-write conflicts, which succeed
// when retried on a fresh transaction.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Conflict on") || strings.Contains(msg, "serialization")
}
