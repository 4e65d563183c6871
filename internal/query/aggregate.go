package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Order is a sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

func (o Order) ToSQL(Dialect, TableEngine) (string, error) {
	switch o {
	case Ascending, Descending:
		return o.String(), nil
	default:
		return "", fmt.Errorf("unknown order %d", int(o))
	}
}

// ParseOrder accepts "asc" or "desc" in any case.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "asc", "":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown order %q", s)
	}
}

// Aggregate is one of Count, Sum, Min, Max, Percentile or DistinctCount.
type Aggregate interface {
	ToSQL
	aggregate()
}

// Count counts rows, or non-null values of Field when set.
type Count struct {
	Field ToSQL
	Alias string
}

// Sum adds up Field.
type Sum struct {
	Field ToSQL
	Alias string
}

// Min is the smallest value of Field.
type Min struct {
	Field ToSQL
	Alias string
}

// Max is the largest value of Field.
type Max struct {
	Field ToSQL
	Alias string
}

// Percentile is the exact Percentile-th percentile of Field. A nil
// Percentile means the median.
type Percentile struct {
	Field      ToSQL
	Alias      string
	Percentile *uint8
}

// DistinctCount counts distinct values of Field.
type DistinctCount struct {
	Field ToSQL
	Alias string
}

func (Count) aggregate() {}
func (Sum) aggregate() {}
func (Min) aggregate() {}
func (Max) aggregate() {}
func (Percentile) aggregate() {}
func (DistinctCount) aggregate() {}

func (a Count) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderAggregate(a, e) }
func (a Sum) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderAggregate(a, e) }
func (a Min) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderAggregate(a, e) }
func (a Max) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderAggregate(a, e) }
func (a Percentile) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderAggregate(a, e) }
func (a DistinctCount) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderAggregate(a, e) }

// Fraction returns the percentile as a literal between 0 and 1.
func (a Percentile) Fraction() (string, error) {
	p := uint8(50)
	if a.Percentile != nil {
		p = *a.Percentile
	}
	if p > 100 {
		return "", fmt.Errorf("percentile %d out of range", p)
	}
	return strconv.FormatFloat(float64(p)/100, 'f', -1, 64), nil
}

// WindowOrder is the ORDER BY part of an OVER clause.
type WindowOrder struct {
	Column string
	Order  Order
}

// Window is one of WindowSum or RowNumber.
type Window interface {
	ToSQL
	window()
}

// WindowSum is SUM(Field) over a window.
type WindowSum struct {
	Field       ToSQL
	PartitionBy string
	OrderBy     *WindowOrder
	Alias       string
}

// RowNumber numbers rows within each partition.
type RowNumber struct {
	PartitionBy string
	OrderBy     *WindowOrder
	Alias       string
}

func (WindowSum) window() {}
func (RowNumber) window() {}

func (w WindowSum) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderWindow(w, e) }
func (w RowNumber) ToSQL(d Dialect, e TableEngine) (string, error) { return d.RenderWindow(w, e) }

// overClause renders "OVER (PARTITION BY p ORDER BY c dir)" from the parts
// that are set. Both dialects share this syntax.
func overClause(partitionBy string, orderBy *WindowOrder) string {
	s := "OVER ("
	if partitionBy != "" {
		s += "PARTITION BY " + partitionBy
	}
	if orderBy != nil {
		if partitionBy != "" {
			s += " "
		}
		s += "ORDER BY " + orderBy.Column + " " + orderBy.Order.String()
	}
	return s + ")"
}

func withAlias(expr, alias string) string {
	if alias == "" {
		return expr
	}
	return expr + " AS " + alias
}

func renderField(clause string, d Dialect, e TableEngine, field ToSQL) (string, error) {
	if field == nil {
		return "", fmt.Errorf("%s requires a field", clause)
	}
	return field.ToSQL(d, e)
}
