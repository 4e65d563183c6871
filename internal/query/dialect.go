package query

import (
	"fmt"
	"time"
)

// Dialect renders the backend-specific parts of a query. Implementations are
// zero-size types used as the Builder's type parameter; they carry no state.
type Dialect interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// EscapeString escapes s for use inside a single-quoted literal.
	// The surrounding quotes are added by the filter templates.
	EscapeString(s string) string

	// FormatBool renders a boolean literal.
	FormatBool(v bool) string

	// FormatTimestamp renders a timestamp literal body (without quotes).
	FormatTimestamp(t time.Time) string

	// GranularityGroupBy returns the GROUP BY terms bucketing column by g.
	// Unknown granularities are an error.
	GranularityGroupBy(g Granularity, column string) ([]string, error)

	// RenderAggregate renders an aggregate function call with its alias.
	RenderAggregate(a Aggregate, engine TableEngine) (string, error)

	// RenderWindow renders a window function call with its OVER clause and alias.
	RenderWindow(w Window, engine TableEngine) (string, error)
}

// LimitByDialect is implemented by backends with a native per-group row cap.
type LimitByDialect interface {
	Dialect
	RenderLimitBy(l LimitBy) string
}

// IntervalDialect is implemented by backends that can project an N-minute
// bucket start directly in the select list.
type IntervalDialect interface {
	Dialect
	IntervalBucket(column string, minutes int) string
}

// EngineKind is the storage semantics of a table.
type EngineKind int

const (
	// EnginePlain is an ordinary table.
	EnginePlain EngineKind = iota
	// EngineCollapsingMergeTree marks retracted rows with a negative sign column.
	EngineCollapsingMergeTree
)

func (k EngineKind) String() string {
	switch k {
	case EnginePlain:
		return "plain"
	case EngineCollapsingMergeTree:
		return "collapsing_merge_tree"
	default:
		return fmt.Sprintf("EngineKind(%d)", int(k))
	}
}

// TableEngine describes how a table stores rows. It is resolved once when a
// builder is created.
type TableEngine struct {
	Kind EngineKind
	// Sign is the sign column of a collapsing table.
	Sign string
}

// PlainTable returns the descriptor of a table without deduplication.
func PlainTable() TableEngine {
	return TableEngine{Kind: EnginePlain}
}

// CollapsingMergeTree returns the descriptor of a deduplicating table whose
// live rows are counted through sign.
func CollapsingMergeTree(sign string) TableEngine {
	return TableEngine{Kind: EngineCollapsingMergeTree, Sign: sign}
}

// IsCollapsing reports whether grouped queries need the sign predicate.
func (e TableEngine) IsCollapsing() bool {
	return e.Kind == EngineCollapsingMergeTree
}

// EngineResolver looks up the storage engine of a table.
type EngineResolver interface {
	TableEngine(table Table) TableEngine
}

// StaticEngines resolves engines from a fixed map. Unknown tables are plain.
type StaticEngines map[Table]TableEngine

// TableEngine implements EngineResolver.
func (s StaticEngines) TableEngine(table Table) TableEngine {
	if e, ok := s[table]; ok {
		return e
	}
	return PlainTable()
}
