package query

import (
	"fmt"
	"strings"
)

// FilterType is a comparison operator. Each maps to one fixed template; no
// operator coerces types, so operands must already be rendered and escaped.
type FilterType int

const (
	Equal FilterType = iota
	NotEqual
	EqualBool
	In
	Gte
	Lte
	Gt
	Lt
	Like
	NotLike
	IsNotNull
)

var filterTypeNames = [...]string{
	Equal:     "eq",
	NotEqual:  "ne",
	EqualBool: "eq_bool",
	In:        "in",
	Gte:       "gte",
	Lte:       "lte",
	Gt:        "gt",
	Lt:        "lt",
	Like:      "like",
	NotLike:   "not_like",
	IsNotNull: "is_not_null",
}

func (f FilterType) String() string {
	if int(f) >= 0 && int(f) < len(filterTypeNames) {
		return filterTypeNames[f]
	}
	return fmt.Sprintf("FilterType(%d)", int(f))
}

// Render applies the operator template to already-rendered operands.
func (f FilterType) Render(l, r string) string {
	switch f {
	case EqualBool:
		return l + " = " + r
	case Equal:
		return l + " = '" + r + "'"
	case NotEqual:
		return l + " != '" + r + "'"
	case In:
		return l + " IN (" + r + ")"
	case Gte:
		return l + " >= '" + r + "'"
	case Lte:
		return l + " <= '" + r + "'"
	case Gt:
		return l + " > " + r
	case Lt:
		return l + " < " + r
	case Like:
		return l + " LIKE '%" + r + "%'"
	case NotLike:
		return l + " NOT LIKE '%" + r + "%'"
	case IsNotNull:
		return l + " IS NOT NULL"
	default:
		return l + " " + f.String() + " " + r
	}
}

// FilterCombinator joins sibling filters.
type FilterCombinator int

const (
	And FilterCombinator = iota
	Or
)

func (c FilterCombinator) ToSQL(Dialect, TableEngine) (string, error) {
	switch c {
	case And:
		return " AND ", nil
	case Or:
		return " OR ", nil
	default:
		return "", fmt.Errorf("unknown combinator %d", int(c))
	}
}

// Filter is a boolean expression: a *Predicate or a *NestedFilter.
type Filter interface {
	ToSQL
	filter()
}

// Predicate is a single comparison between rendered operands.
type Predicate struct {
	LHS string
	Op  FilterType
	RHS string
}

func (*Predicate) filter() {}

func (p *Predicate) ToSQL(Dialect, TableEngine) (string, error) {
	return p.Op.Render(p.LHS, p.RHS), nil
}

// NestedFilter joins its children with a combinator inside one pair of
// parentheses. An empty node renders to the empty string.
type NestedFilter struct {
	Combinator FilterCombinator
	Filters    []Filter
}

func (*NestedFilter) filter() {}

// NewFilter returns the empty AND node every builder starts from.
func NewFilter() *NestedFilter {
	return &NestedFilter{Combinator: And}
}

func (n *NestedFilter) ToSQL(d Dialect, e TableEngine) (string, error) {
	sep, err := n.Combinator.ToSQL(d, e)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(n.Filters))
	for _, f := range n.Filters {
		if isNilFilter(f) {
			continue
		}
		s, err := f.ToSQL(d, e)
		if err != nil {
			return "", err
		}
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "( " + strings.Join(parts, sep) + " )", nil
}

// Len is the number of direct children.
func (n *NestedFilter) Len() int { return len(n.Filters) }

// isNilFilter reports a nil interface or a nil node pointer.
func isNilFilter(f Filter) bool {
	switch n := f.(type) {
	case nil:
		return true
	case *NestedFilter:
		return n == nil
	case *Predicate:
		return n == nil
	}
	return false
}

// Append adds f to root. A *NestedFilter root grows in place; a *Predicate
// root is promoted to an AND node holding both.
func Append(root, f Filter) Filter {
	switch r := root.(type) {
	case *NestedFilter:
		r.Filters = append(r.Filters, f)
		return r
	case nil:
		return &NestedFilter{Combinator: And, Filters: []Filter{f}}
	default:
		return &NestedFilter{Combinator: And, Filters: []Filter{root, f}}
	}
}
