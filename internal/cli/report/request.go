// Package report provides the commands that build analytics queries from
// flags, print them and run them against the configured backends.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/paylens/analytics/internal/cli/helpers"
	"github.com/paylens/analytics/internal/query"
)

// Request is the flag form of one analytics query.
type Request struct {
	Dialect    string
	Table      string
	TimeColumn string

	Select     []string
	Aggregates []string
	Filters    []string
	GroupBy    []string
	OrderBy    []string
	Distinct   bool

	Granularity string
	TimeBucket  bool

	TopN      uint64
	TopNBy    []string
	TopNOrder string

	LimitBy        uint64
	LimitByColumns []string

	Scope helpers.ScopeFlags
	Time  helpers.TimeFlags

	AllTime bool
}

// AddFlags registers the query flags on flags.
func (r *Request) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&r.Table, "table", "t", "", "Table to query (required)")
	flags.StringVar(&r.TimeColumn, "time-column", query.DefaultTimeColumn, "Timestamp column used by --since/--from/--to and --granularity")

	flags.StringSliceVarP(&r.Select, "select", "s", nil, "Plain columns to select")
	flags.StringArrayVarP(&r.Aggregates, "aggregate", "a", nil,
		"Aggregate fn[:field[:alias]]; fn is count, sum, min, max, count_distinct, median or pNN")
	flags.StringArrayVarP(&r.Filters, "filter", "f", nil,
		"Filter key<op>value; op is =, !=, >=, <=, >, <, ~ (like), !~ (not like), == (bool); key=a,b is IN; key? is IS NOT NULL")
	flags.StringSliceVarP(&r.GroupBy, "group-by", "g", nil, "Columns to group by")
	flags.StringSliceVar(&r.OrderBy, "order-by", nil, "Order terms column[:asc|desc]")
	flags.BoolVar(&r.Distinct, "distinct", false, "Select distinct rows")

	flags.StringVar(&r.Granularity, "granularity", "", "Bucket rows by time (1m, 5m, 15m, 30m, 1h, 1d)")
	flags.BoolVar(&r.TimeBucket, "time-bucket", false, "Project the bucket start as time_bucket (clickhouse only)")

	flags.Uint64Var(&r.TopN, "top-n", 0, "Keep the first N rows of every --top-n-by group")
	flags.StringSliceVar(&r.TopNBy, "top-n-by", nil, "Partition columns for --top-n")
	flags.StringVar(&r.TopNOrder, "top-n-order", "", "Ranking term column[:asc|desc] for --top-n (default: first aggregate, descending)")

	flags.Uint64Var(&r.LimitBy, "limit-by", 0, "Keep at most N rows per --limit-by-columns group (clickhouse only)")
	flags.StringSliceVar(&r.LimitByColumns, "limit-by-columns", nil, "Group columns for --limit-by")

	flags.BoolVar(&r.AllTime, "all-time", false, "Do not restrict the time column")

	r.Scope.AddFlags(flags, true)
	r.Time.AddFlags(flags)
}

// Build translates the request into a builder for dialect D. The tenant
// scope is applied first, then the time range and the remaining filters.
func Build[D query.Dialect](r *Request, engines query.EngineResolver, scope query.AuthInfo) (*query.Builder[D], error) {
	if r.Table == "" {
		return nil, fmt.Errorf("--table is required")
	}

	b := query.New[D](query.Table(r.Table), engines)
	if r.TimeColumn != "" {
		b.TimeColumn(r.TimeColumn)
	}

	if err := query.ApplyScope(b, scope); err != nil {
		return nil, err
	}

	var granularity *query.Granularity
	if r.Granularity != "" {
		g, err := query.ParseGranularity(r.Granularity)
		if err != nil {
			return nil, err
		}
		granularity = &g
	}

	if !r.AllTime {
		tr, err := r.Time.Parse()
		if err != nil {
			return nil, err
		}
		if granularity != nil {
			if tr, err = helpers.AlignRange(tr, *granularity); err != nil {
				return nil, err
			}
		}
		if err := query.ApplyTimeRange(b, tr); err != nil {
			return nil, err
		}
	}

	for _, f := range r.Filters {
		if err := addFilter(b, f); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", f, err)
		}
	}

	if granularity != nil {
		if err := addGranularity(b, *granularity, r.TimeBucket); err != nil {
			return nil, err
		}
	} else if r.TimeBucket {
		return nil, fmt.Errorf("--time-bucket requires --granularity")
	}

	for _, c := range r.Select {
		if err := b.AddSelectColumn(query.Column(c)); err != nil {
			return nil, err
		}
	}

	var firstAlias string
	for _, spec := range r.Aggregates {
		agg, alias, err := ParseAggregate(spec)
		if err != nil {
			return nil, err
		}
		if firstAlias == "" {
			firstAlias = alias
		}
		if err := b.AddSelectColumn(agg); err != nil {
			return nil, err
		}
	}

	for _, c := range r.GroupBy {
		if err := b.AddGroupByClause(query.Column(c)); err != nil {
			return nil, err
		}
	}

	for _, term := range r.OrderBy {
		column, order, err := parseOrderTerm(term)
		if err != nil {
			return nil, err
		}
		if err := b.AddOrderByClause(column, order); err != nil {
			return nil, err
		}
	}

	if r.Distinct {
		b.SetDistinct()
	}

	if r.TopN > 0 {
		if err := addTopN(b, r, firstAlias); err != nil {
			return nil, err
		}
	}

	if r.LimitBy > 0 {
		if err := setLimitBy(b, r.LimitBy, query.Columns(r.LimitByColumns...)); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// PreferredColumns is the display order of result columns.
func (r *Request) PreferredColumns() []string {
	columns := []string{"time_bucket"}
	columns = append(columns, r.GroupBy...)
	columns = append(columns, r.Select...)
	for _, spec := range r.Aggregates {
		if _, alias, err := ParseAggregate(spec); err == nil {
			columns = append(columns, alias)
		}
	}
	return append(columns, query.TopNAlias)
}

func addGranularity[D query.Dialect](b *query.Builder[D], g query.Granularity, timeBucket bool) error {
	if timeBucket {
		ch, ok := any(b).(*query.Builder[query.ClickHouse])
		if !ok {
			return fmt.Errorf("--time-bucket is not supported by the %s dialect", dialectName[D]())
		}
		if err := query.AddGranularityInMinutes(ch, g); err != nil {
			return err
		}
		return b.AddGroupByClause(query.Column("time_bucket"))
	}

	var d D
	terms, err := d.GranularityGroupBy(g, b.TimeColumnName())
	if err != nil {
		return err
	}
	for _, term := range terms {
		if err := b.AddSelectColumn(query.Column(term)); err != nil {
			return err
		}
	}
	return b.AddGranularityGroupBy(g)
}

func addTopN[D query.Dialect](b *query.Builder[D], r *Request, firstAlias string) error {
	if len(r.TopNBy) == 0 {
		return fmt.Errorf("--top-n requires --top-n-by")
	}

	orderTerm := r.TopNOrder
	if orderTerm == "" {
		if firstAlias == "" {
			return fmt.Errorf("--top-n requires --top-n-order or an aggregate")
		}
		orderTerm = firstAlias + ":desc"
	}
	column, order, err := parseOrderTerm(orderTerm)
	if err != nil {
		return err
	}

	if err := b.AddOuterSelectColumn(query.Column("*")); err != nil {
		return err
	}
	return b.AddTopN(query.Columns(r.TopNBy...), r.TopN, column, order)
}

func setLimitBy[D query.Dialect](b *query.Builder[D], limit uint64, columns []query.ToSQL) error {
	if len(columns) == 0 {
		return fmt.Errorf("--limit-by requires --limit-by-columns")
	}
	ch, ok := any(b).(*query.Builder[query.ClickHouse])
	if !ok {
		return fmt.Errorf("--limit-by is not supported by the %s dialect", dialectName[D]())
	}
	return query.SetLimitBy(ch, limit, columns)
}

func dialectName[D query.Dialect]() string {
	var d D
	return d.Name()
}

// ParseAggregate parses fn[:field[:alias]] and returns the aggregate with
// its result column name.
func ParseAggregate(spec string) (query.Aggregate, string, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return nil, "", fmt.Errorf("invalid aggregate %q: want fn[:field[:alias]]", spec)
	}
	fn := strings.ToLower(strings.TrimSpace(parts[0]))

	var field query.ToSQL
	var fieldName string
	if len(parts) > 1 && parts[1] != "" {
		fieldName = parts[1]
		field = query.Column(fieldName)
	}

	alias := fn
	if fieldName != "" {
		alias = fn + "_" + fieldName
	}
	if len(parts) == 3 && parts[2] != "" {
		alias = parts[2]
	}

	if fn != "count" && field == nil {
		return nil, "", fmt.Errorf("invalid aggregate %q: %s needs a field", spec, fn)
	}

	switch {
	case fn == "count":
		return query.Count{Field: field, Alias: alias}, alias, nil
	case fn == "sum":
		return query.Sum{Field: field, Alias: alias}, alias, nil
	case fn == "min":
		return query.Min{Field: field, Alias: alias}, alias, nil
	case fn == "max":
		return query.Max{Field: field, Alias: alias}, alias, nil
	case fn == "count_distinct":
		return query.DistinctCount{Field: field, Alias: alias}, alias, nil
	case fn == "median":
		return query.Percentile{Field: field, Alias: alias}, alias, nil
	case strings.HasPrefix(fn, "p"):
		p, err := strconv.ParseUint(fn[1:], 10, 8)
		if err != nil || p > 100 {
			return nil, "", fmt.Errorf("invalid aggregate %q: percentile must be p0..p100", spec)
		}
		pct := uint8(p)
		return query.Percentile{Field: field, Alias: alias, Percentile: &pct}, alias, nil
	default:
		return nil, "", fmt.Errorf("invalid aggregate %q: unknown function %q", spec, fn)
	}
}

func parseOrderTerm(term string) (query.Column, query.Order, error) {
	column, dir, found := strings.Cut(term, ":")
	if column == "" {
		return "", 0, fmt.Errorf("invalid order term %q", term)
	}
	if !found {
		return query.Column(column), query.Ascending, nil
	}
	order, err := query.ParseOrder(dir)
	if err != nil {
		return "", 0, err
	}
	return query.Column(column), order, nil
}

// filterOps lists the filter operators, two-character forms first so that
// ">=" is not read as ">".
var filterOps = []struct {
	token string
	op    query.FilterType
}{
	{"!~", query.NotLike},
	{"!=", query.NotEqual},
	{">=", query.Gte},
	{"<=", query.Lte},
	{"==", query.EqualBool},
	{"~", query.Like},
	{"=", query.Equal},
	{">", query.Gt},
	{"<", query.Lt},
}

func addFilter[D query.Dialect](b *query.Builder[D], spec string) error {
	if key, ok := strings.CutSuffix(spec, "?"); ok && !strings.ContainsAny(key, "=!<>~") {
		return b.AddCustomFilterClause(query.Column(key), query.Column(""), query.IsNotNull)
	}

	idx := strings.IndexAny(spec, "=!<>~")
	if idx <= 0 {
		return fmt.Errorf("missing operator")
	}
	key, rest := strings.TrimSpace(spec[:idx]), spec[idx:]

	for _, candidate := range filterOps {
		value, ok := strings.CutPrefix(rest, candidate.token)
		if !ok {
			continue
		}
		return addFilterOp(b, query.Column(key), candidate.op, value)
	}
	return fmt.Errorf("unknown operator in %q", rest)
}

func addFilterOp[D query.Dialect](b *query.Builder[D], key query.Column, op query.FilterType, value string) error {
	switch op {
	case query.Equal:
		if strings.Contains(value, ",") {
			return b.AddFilterInRangeClause(key, query.Texts(strings.Split(value, ",")...))
		}
		return b.AddFilterClause(key, query.Text(value))
	case query.EqualBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		return b.AddBoolFilterClause(key, query.Bool(v))
	case query.Gt, query.Lt:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return b.AddCustomFilterClause(key, query.Int(i), op)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s needs a number, got %q", op, value)
		}
		return b.AddCustomFilterClause(key, query.Float(f), op)
	default:
		return b.AddCustomFilterClause(key, query.Text(value), op)
	}
}
