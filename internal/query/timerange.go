package query

import "time"

// TimeRange restricts the builder's time column to [Start, End]. A nil End
// leaves the range open.
type TimeRange struct {
	Start time.Time
	End   *time.Time
}

// ApplyTimeRange adds the bounds of r on the builder's time column.
func ApplyTimeRange[D Dialect](b *Builder[D], r TimeRange) error {
	col := Column(b.timeColumn)
	if err := b.AddCustomFilterClause(col, Timestamp(r.Start), Gte); err != nil {
		return err
	}
	if r.End != nil {
		return b.AddCustomFilterClause(col, Timestamp(*r.End), Lte)
	}
	return nil
}

// RangeFilter adapts r to a QueryFilter.
func RangeFilter[D Dialect](r TimeRange) QueryFilter[D] {
	return filterFunc[D](func(b *Builder[D]) error { return ApplyTimeRange(b, r) })
}
