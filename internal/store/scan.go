package store

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Rows is the part of *sql.Rows used for decoding.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

var _ Rows = (*sql.Rows)(nil)

// fieldCache maps a struct type to its column name to field index table.
var fieldCache sync.Map

// ScanAll decodes every remaining row into R. R may be
//   - a struct whose fields are matched to columns by their `db:"name"` tag,
//     or by lower-cased field name when untagged; `db:"-"` skips a field and
//     unmatched columns are discarded,
//   - map[string]any, keyed by column name, or
//   - a scalar destination type when the result has exactly one column.
func ScanAll[R any](rows Rows) ([]R, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var zero R
	if _, ok := any(zero).(map[string]any); ok {
		return scanMaps[R](rows, columns)
	}

	t := reflect.TypeOf(&zero).Elem()
	if t.Kind() == reflect.Struct {
		return scanStructs[R](rows, columns, fieldIndex(t))
	}

	if len(columns) != 1 {
		return nil, fmt.Errorf("cannot scan %d columns into %s", len(columns), t)
	}
	var out []R
	for rows.Next() {
		var item R
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanMaps[R any](rows Rows, columns []string) ([]R, error) {
	var out []R
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		m := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				m[col] = string(b)
			} else {
				m[col] = values[i]
			}
		}
		out = append(out, any(m).(R))
	}
	return out, rows.Err()
}

func scanStructs[R any](rows Rows, columns []string, index map[string][]int) ([]R, error) {
	var out []R
	for rows.Next() {
		var item R
		v := reflect.ValueOf(&item).Elem()

		dest := make([]any, len(columns))
		for i, col := range columns {
			if idx, ok := index[strings.ToLower(col)]; ok {
				dest[i] = v.FieldByIndex(idx).Addr().Interface()
			} else {
				dest[i] = new(any)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row into %s: %w", v.Type(), err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func fieldIndex(t reflect.Type) map[string][]int {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string][]int)
	}

	index := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		name = strings.ToLower(strings.TrimSpace(strings.Split(name, ",")[0]))
		if _, dup := index[name]; !dup {
			index[name] = f.Index
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, index)
	return actual.(map[string][]int)
}
