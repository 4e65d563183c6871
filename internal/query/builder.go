package query

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultTimeColumn is the column bucketed and range-filtered by default.
const DefaultTimeColumn = "created_at"

// errNilValue is reported when a clause is given a nil value.
var errNilValue = errors.New("nil value")

// havingEntry is one rendered HAVING predicate.
type havingEntry struct {
	aggregate string
	op        FilterType
	value     string
}

// Builder accumulates the clauses of one SELECT query for dialect D.
// Values are rendered as soon as they are added; Build only concatenates.
// A Builder is owned by a single request and is not safe for concurrent use.
type Builder[D Dialect] struct {
	dialect     D
	table       Table
	engine      TableEngine
	timeColumn  string
	columns     []string
	filters     Filter
	groupBy     []string
	orderBy     []string
	having      []havingEntry
	limitBy     string
	outerSelect []string
	topN        *TopN
	distinct    bool
	logger      zerolog.Logger
}

// New creates a builder for table. The table engine is resolved once through
// engines; a nil resolver treats the table as plain.
func New[D Dialect](table Table, engines EngineResolver) *Builder[D] {
	engine := PlainTable()
	if engines != nil {
		engine = engines.TableEngine(table)
	}
	return &Builder[D]{
		table:      table,
		engine:     engine,
		timeColumn: DefaultTimeColumn,
		filters:    NewFilter(),
		logger:     zerolog.Nop(),
	}
}

// WithLogger sets the logger used to trace built queries.
func (b *Builder[D]) WithLogger(logger zerolog.Logger) *Builder[D] {
	b.logger = logger
	return b
}

// TimeColumn sets the column used by granularity grouping and time ranges.
func (b *Builder[D]) TimeColumn(name string) *Builder[D] {
	b.timeColumn = name
	return b
}

// TimeColumnName returns the column time ranges and buckets apply to.
func (b *Builder[D]) TimeColumnName() string { return b.timeColumn }

// Table returns the table the builder selects from.
func (b *Builder[D]) Table() Table { return b.table }

// Engine returns the resolved table engine.
func (b *Builder[D]) Engine() TableEngine { return b.engine }

// Filters returns the filter tree.
func (b *Builder[D]) Filters() Filter { return b.filters }

func (b *Builder[D]) render(clause string, v ToSQL) (string, error) {
	if v == nil {
		return "", serializeErr(clause, errNilValue)
	}
	s, err := v.ToSQL(b.dialect, b.engine)
	if err != nil {
		return "", serializeErr(clause, err)
	}
	return s, nil
}

// AddSelectColumn appends a column, aggregate or expression to the select list.
func (b *Builder[D]) AddSelectColumn(column ToSQL) error {
	s, err := b.render("select column", column)
	if err != nil {
		return err
	}
	b.columns = append(b.columns, s)
	return nil
}

// TransformToSQLValues renders values joined by ", ".
func (b *Builder[D]) TransformToSQLValues(values []ToSQL) (string, error) {
	return b.render("value list", Values(values))
}

// SetDistinct turns the query into SELECT DISTINCT.
func (b *Builder[D]) SetDistinct() {
	b.distinct = true
}

// AddFilterClause adds key = 'value'.
func (b *Builder[D]) AddFilterClause(key, value ToSQL) error {
	return b.AddCustomFilterClause(key, value, Equal)
}

// AddBoolFilterClause adds key = value with an unquoted value.
func (b *Builder[D]) AddBoolFilterClause(key, value ToSQL) error {
	return b.AddCustomFilterClause(key, value, EqualBool)
}

// AddNegativeFilterClause adds key != 'value'.
func (b *Builder[D]) AddNegativeFilterClause(key, value ToSQL) error {
	return b.AddCustomFilterClause(key, value, NotEqual)
}

// AddCustomFilterClause adds lhs <op> rhs to the filter tree.
func (b *Builder[D]) AddCustomFilterClause(lhs, rhs ToSQL, op FilterType) error {
	l, err := b.render("filter key", lhs)
	if err != nil {
		return err
	}
	r, err := b.render("filter value", rhs)
	if err != nil {
		return err
	}
	b.AddNestedFilterClause(&Predicate{LHS: l, Op: op, RHS: r})
	return nil
}

// AddNestedFilterClause adds a prebuilt filter, typically an OR group.
// A nil filter is ignored.
func (b *Builder[D]) AddNestedFilterClause(f Filter) {
	if isNilFilter(f) {
		return
	}
	b.filters = Append(b.filters, f)
}

// AddFilterInRangeClause adds key IN ('v1', 'v2', ...). Spaces are stripped
// from each value. An empty list is rejected rather than matching everything.
func (b *Builder[D]) AddFilterInRangeClause(key ToSQL, values []ToSQL) error {
	if len(values) == 0 {
		return &InvalidQueryError{Reason: "empty IN list"}
	}
	items := make([]string, 0, len(values))
	for _, v := range values {
		s, err := b.render("range filter value", v)
		if err != nil {
			return err
		}
		items = append(items, "'"+strings.ReplaceAll(s, " ", "")+"'")
	}
	return b.AddCustomFilterClause(key, Column(strings.Join(items, ", ")), In)
}

// AddGroupByClause appends a GROUP BY term.
func (b *Builder[D]) AddGroupByClause(column ToSQL) error {
	s, err := b.render("group by field", column)
	if err != nil {
		return err
	}
	b.groupBy = append(b.groupBy, s)
	return nil
}

// AddGranularityGroupBy groups the time column into g-sized buckets.
func (b *Builder[D]) AddGranularityGroupBy(g Granularity) error {
	terms, err := b.dialect.GranularityGroupBy(g, b.timeColumn)
	if err != nil {
		return serializeErr("granularity", err)
	}
	for _, term := range terms {
		if err := b.AddGroupByClause(Column(term)); err != nil {
			return err
		}
	}
	return nil
}

// AddOrderByClause appends "column order".
func (b *Builder[D]) AddOrderByClause(column ToSQL, order Order) error {
	c, err := b.render("order by column", column)
	if err != nil {
		return err
	}
	o, err := b.render("order direction", order)
	if err != nil {
		return err
	}
	b.orderBy = append(b.orderBy, c+" "+o)
	return nil
}

// AddHavingClause appends aggregate <op> value to the HAVING list.
func (b *Builder[D]) AddHavingClause(aggregate Aggregate, op FilterType, value ToSQL) error {
	entry, err := b.havingEntry(aggregate, op, value)
	if err != nil {
		return err
	}
	b.having = append(b.having, entry)
	return nil
}

func (b *Builder[D]) havingEntry(aggregate Aggregate, op FilterType, value ToSQL) (havingEntry, error) {
	a, err := b.render("having aggregate", aggregate)
	if err != nil {
		return havingEntry{}, err
	}
	v, err := b.render("having value", value)
	if err != nil {
		return havingEntry{}, err
	}
	return havingEntry{aggregate: a, op: op, value: v}, nil
}

// AddOuterSelectColumn adds a column to the wrapping SELECT. Any outer column
// turns the built query into a subquery.
func (b *Builder[D]) AddOuterSelectColumn(column ToSQL) error {
	s, err := b.render("outer select column", column)
	if err != nil {
		return err
	}
	b.outerSelect = append(b.outerSelect, s)
	return nil
}

// AddTopN keeps the first count rows of each group of columns ranked by
// orderColumn. The row number is added to the outer select as top_n and the
// query is wrapped once more to filter on it.
func (b *Builder[D]) AddTopN(columns []ToSQL, count uint64, orderColumn ToSQL, order Order) error {
	partitionBy, err := b.TransformToSQLValues(columns)
	if err != nil {
		return err
	}
	orderBy, err := b.render("top n order column", orderColumn)
	if err != nil {
		return err
	}
	if err := b.AddOuterSelectColumn(RowNumber{
		PartitionBy: partitionBy,
		OrderBy:     &WindowOrder{Column: orderBy, Order: order},
		Alias:       TopNAlias,
	}); err != nil {
		return err
	}
	b.topN = &TopN{
		Columns:     partitionBy,
		Count:       count,
		OrderColumn: orderBy,
		Order:       order,
	}
	return nil
}

// SetLimitBy caps rows per group using the backend's LIMIT n BY clause.
func SetLimitBy[D LimitByDialect](b *Builder[D], limit uint64, columns []ToSQL) error {
	rendered := make([]string, 0, len(columns))
	for _, c := range columns {
		s, err := b.render("limit by column", c)
		if err != nil {
			return err
		}
		rendered = append(rendered, s)
	}
	b.limitBy = b.dialect.RenderLimitBy(LimitBy{Limit: limit, Columns: rendered})
	return nil
}

// AddGranularityInMinutes selects the bucket start of the time column as
// time_bucket.
func AddGranularityInMinutes[D IntervalDialect](b *Builder[D], g Granularity) error {
	if !g.Valid() {
		return serializeErr("granularity", errUnknownGranularity(g))
	}
	return b.AddSelectColumn(Column(b.dialect.IntervalBucket(b.timeColumn, g.Minutes())))
}

// Build assembles the query. It fails when no select column was added or when
// a fragment cannot be rendered. Build does not modify the builder.
func (b *Builder[D]) Build() (string, error) {
	if len(b.columns) == 0 {
		return "", &InvalidQueryError{Reason: "no select fields provided"}
	}

	var q strings.Builder
	q.WriteString("SELECT ")
	if b.distinct {
		q.WriteString("DISTINCT ")
	}
	q.WriteString(strings.Join(b.columns, ", "))

	table, err := b.render("table", b.table)
	if err != nil {
		return "", err
	}
	q.WriteString(" FROM ")
	q.WriteString(table)

	where, err := b.render("filters", b.filters)
	if err != nil {
		return "", err
	}
	if where != "" {
		q.WriteString(" WHERE ")
		q.WriteString(where)
	}

	having := b.having
	if len(b.groupBy) > 0 {
		q.WriteString(" GROUP BY ")
		q.WriteString(strings.Join(b.groupBy, ", "))

		if b.engine.IsCollapsing() {
			sign, err := b.havingEntry(Count{Field: Column(b.engine.Sign)}, Gte, Int(1))
			if err != nil {
				return "", err
			}
			having = append(having[:len(having):len(having)], sign)
		}
	}

	if len(having) > 0 {
		conds := make([]string, len(having))
		for i, h := range having {
			conds[i] = h.op.Render(h.aggregate, h.value)
		}
		q.WriteString(" HAVING ")
		q.WriteString(strings.Join(conds, " AND "))
	}

	if len(b.orderBy) > 0 {
		q.WriteString(" ORDER BY ")
		q.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limitBy != "" {
		q.WriteString(" ")
		q.WriteString(b.limitBy)
	}

	query := q.String()

	if len(b.outerSelect) > 0 {
		query = "SELECT " + strings.Join(b.outerSelect, ", ") + " FROM (" + query + ") _"
	}

	if b.topN != nil {
		query = "SELECT * FROM (" + query + ") _ WHERE " + TopNAlias + " <= " + strconv.FormatUint(b.topN.Count, 10)
	}

	b.logger.Debug().
		Str("dialect", b.dialect.Name()).
		Str("table", string(b.table)).
		Str("query", query).
		Msg("Built analytics query")

	return query, nil
}
