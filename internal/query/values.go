package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToSQL is implemented by every value that can appear in generated text.
// Rendering is pure: the same value, dialect and engine give the same text.
type ToSQL interface {
	ToSQL(d Dialect, engine TableEngine) (string, error)
}

// Column is a column name or an already-rendered SQL expression.
// It is emitted verbatim.
type Column string

func (c Column) ToSQL(Dialect, TableEngine) (string, error) { return string(c), nil }

// Table identifies a physical table.
type Table string

func (t Table) ToSQL(Dialect, TableEngine) (string, error) { return string(t), nil }

func (t Table) String() string { return string(t) }

// Text is a string literal. It renders escaped but unquoted; the filter
// templates supply the quotes.
type Text string

func (s Text) ToSQL(d Dialect, _ TableEngine) (string, error) {
	return d.EscapeString(string(s)), nil
}

// Bool is a boolean literal.
type Bool bool

func (b Bool) ToSQL(d Dialect, _ TableEngine) (string, error) {
	return d.FormatBool(bool(b)), nil
}

// Int is a signed integer literal.
type Int int64

func (i Int) ToSQL(Dialect, TableEngine) (string, error) {
	return strconv.FormatInt(int64(i), 10), nil
}

// Uint is an unsigned integer literal.
type Uint uint64

func (u Uint) ToSQL(Dialect, TableEngine) (string, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

// Float is a floating point literal.
type Float float64

func (f Float) ToSQL(Dialect, TableEngine) (string, error) {
	return strconv.FormatFloat(float64(f), 'f', -1, 64), nil
}

// Timestamp is a point in time rendered in the dialect's literal format.
type Timestamp time.Time

func (t Timestamp) ToSQL(d Dialect, _ TableEngine) (string, error) {
	return d.FormatTimestamp(time.Time(t)), nil
}

// Stringer adapts an external enumeration (dimension names, statuses,
// currencies) whose String method yields its column or literal name.
func Stringer(s fmt.Stringer) ToSQL {
	return stringerValue{s}
}

type stringerValue struct{ s fmt.Stringer }

func (v stringerValue) ToSQL(d Dialect, _ TableEngine) (string, error) {
	if v.s == nil {
		return "", fmt.Errorf("nil enumeration value")
	}
	return v.s.String(), nil
}

// Columns converts names to renderable columns.
func Columns(names ...string) []ToSQL {
	out := make([]ToSQL, len(names))
	for i, n := range names {
		out[i] = Column(n)
	}
	return out
}

// Texts converts strings to renderable literals.
func Texts(values ...string) []ToSQL {
	out := make([]ToSQL, len(values))
	for i, v := range values {
		out[i] = Text(v)
	}
	return out
}

// Values renders its elements joined by ", ".
type Values []ToSQL

func (vs Values) ToSQL(d Dialect, engine TableEngine) (string, error) {
	parts, err := renderAll(d, engine, vs)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, ", "), nil
}

func renderAll(d Dialect, engine TableEngine, values []ToSQL) ([]string, error) {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("value %d is nil", i)
		}
		s, err := v.ToSQL(d, engine)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return parts, nil
}
