package query

import (
	"fmt"
	"strings"
	"time"
)

// ClickHouse renders for the analytical backend.
type ClickHouse struct{}

var (
	_ Dialect         = ClickHouse{}
	_ LimitByDialect  = ClickHouse{}
	_ IntervalDialect = ClickHouse{}
)

var clickhouseEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func (ClickHouse) Name() string { return "clickhouse" }

// EscapeString escapes backslashes and quotes; ClickHouse treats a backslash
// inside a literal as an escape.
func (ClickHouse) EscapeString(s string) string {
	return clickhouseEscaper.Replace(s)
}

func (ClickHouse) FormatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// FormatTimestamp keeps microseconds when present so bucket end bounds cover
// the last second on DateTime64 columns; DateTime columns ignore the fraction.
func (ClickHouse) FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.999999")
}

// GranularityGroupBy uses the native bucket-start functions.
func (ClickHouse) GranularityGroupBy(g Granularity, column string) ([]string, error) {
	var expr string
	switch g {
	case OneMin:
		expr = "toStartOfMinute(%s)"
	case FiveMin:
		expr = "toStartOfFiveMinutes(%s)"
	case FifteenMin:
		expr = "toStartOfFifteenMinutes(%s)"
	case ThirtyMin:
		expr = "toStartOfInterval(%s, INTERVAL 30 minute)"
	case OneHour:
		expr = "toStartOfHour(%s)"
	case OneDay:
		expr = "toStartOfDay(%s)"
	default:
		return nil, errUnknownGranularity(g)
	}
	return []string{fmt.Sprintf(expr, column)}, nil
}

// IntervalBucket projects the bucket start as a time_bucket column.
func (ClickHouse) IntervalBucket(column string, minutes int) string {
	return fmt.Sprintf("toStartOfInterval(%s, INTERVAL %d MINUTE) AS time_bucket", column, minutes)
}

// RenderLimitBy renders the native per-group row cap.
func (ClickHouse) RenderLimitBy(l LimitBy) string {
	return l.String()
}

func (d ClickHouse) RenderAggregate(a Aggregate, e TableEngine) (string, error) {
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
		return withAlias(fmt.Sprintf("quantileExact(%s)(%s)", p, field), a.Alias), nil
	default:
		return "", &NotImplementedError{Feature: fmt.Sprintf("%T aggregate on %s", a, d.Name())}
	}
}

func (d ClickHouse) RenderWindow(w Window, e TableEngine) (string, error) {
	return renderWindow(d, e, w)
}
