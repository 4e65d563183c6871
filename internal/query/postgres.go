package query

import (
	"fmt"
	"strings"
	"time"
)

// Postgres renders for the transactional backend.
type Postgres struct{}

var _ Dialect = Postgres{}

func (Postgres) Name() string { return "postgres" }

// EscapeString doubles single quotes (standard_conforming_strings).
func (Postgres) EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (Postgres) FormatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (Postgres) FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.999999")
}

// GranularityGroupBy truncates to the granularity level and, for sub-hour
// buckets, adds a floor-division of the minute since Postgres has no N-minute
// bucket primitive.
func (Postgres) GranularityGroupBy(g Granularity, column string) ([]string, error) {
	if !g.Valid() {
		return nil, errUnknownGranularity(g)
	}
	terms := []string{fmt.Sprintf("DATE_TRUNC('%s', %s)", g.Level(), column)}
	switch g {
	case FiveMin, FifteenMin, ThirtyMin:
		terms = append(terms, fmt.Sprintf("FLOOR(DATE_PART('minute', %s)/%d)", column, g.BucketSize()))
	}
	return terms, nil
}

func (d Postgres) RenderAggregate(a Aggregate, e TableEngine) (string, error) {
	switch a := a.(type) {
	case Count:
		return renderCount(d, e, a)
	case Sum:
		return renderUnary(d, e, "SUM", a.Field, a.Alias)
	case Min:
		return renderUnary(d, e, "MIN", a.Field, a.Alias)
	case Max:
		return renderUnary(d, e, "MAX", a.Field, a.Alias)
	case DistinctCount:
		return renderDistinctCount(d, e, a)
	case Percentile:
		field, err := renderField("percentile", d, e, a.Field)
		if err != nil {
			return "", err
		}
		p, err := a.Fraction()
		if err != nil {
			return "", err
		}
		return withAlias(fmt.Sprintf("PERCENTILE_CONT(%s) WITHIN GROUP (ORDER BY %s asc)", p, field), a.Alias), nil
	default:
		return "", &NotImplementedError{Feature: fmt.Sprintf("%T aggregate on %s", a, d.Name())}
	}
}

func (d Postgres) RenderWindow(w Window, e TableEngine) (string, error) {
	return renderWindow(d, e, w)
}

func renderCount(d Dialect, e TableEngine, a Count) (string, error) {
	if a.Field == nil {
		return withAlias("COUNT(*)", a.Alias), nil
	}
	field, err := a.Field.ToSQL(d, e)
	if err != nil {
		return "", err
	}
	return withAlias("COUNT("+field+")", a.Alias), nil
}

func renderDistinctCount(d Dialect, e TableEngine, a DistinctCount) (string, error) {
	field, err := renderField("distinct count", d, e, a.Field)
	if err != nil {
		return "", err
	}
	return withAlias("COUNT(DISTINCT "+field+")", a.Alias), nil
}

func renderUnary(d Dialect, e TableEngine, fn string, f ToSQL, alias string) (string, error) {
	field, err := renderField(strings.ToLower(fn), d, e, f)
	if err != nil {
		return "", err
	}
	return withAlias(fn+"("+field+")", alias), nil
}

func renderWindow(d Dialect, e TableEngine, w Window) (string, error) {
	switch w := w.(type) {
	case WindowSum:
		field, err := renderField("window sum", d, e, w.Field)
		if err != nil {
			return "", err
		}
		return withAlias("SUM("+field+") "+overClause(w.PartitionBy, w.OrderBy), w.Alias), nil
	case RowNumber:
		return withAlias("ROW_NUMBER() "+overClause(w.PartitionBy, w.OrderBy), w.Alias), nil
	default:
		return "", &NotImplementedError{Feature: fmt.Sprintf("%T window on %s", w, d.Name())}
	}
}
