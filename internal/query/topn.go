package query

import (
	"fmt"
	"strings"
)

// TopNAlias is the outer-select alias of the row number used by AddTopN.
const TopNAlias = "top_n"

// TopN keeps the Count highest (or lowest) ranked rows of each group.
//
// Usage:
//
//	b.AddTopN(query.Columns("merchant_id"), 5, query.Column("count"), query.Descending)
type TopN struct {
	// Columns is the rendered partition list.
	Columns     string
	Count       uint64
	OrderColumn string
	Order       Order
}

// LimitBy caps rows per group with the backend's native LIMIT n BY.
type LimitBy struct {
	Limit   uint64
	Columns []string
}

func (l LimitBy) String() string {
	return fmt.Sprintf("LIMIT %d BY %s", l.Limit, strings.Join(l.Columns, ", "))
}
