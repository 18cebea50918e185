package query

import (
	"strings"

	"github.com/sohosai/hyperdashi-server/core/database"
)

// binder accumulates bind values and renders dialect placeholders in order.
type binder struct {
	dialect database.Dialect
	args    []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Predicate is one WHERE condition. The set of variants is closed: column
// names come from code, caller-supplied values only ever become bind values.
type Predicate interface {
	render(b *binder) string
}

type eqPredicate struct {
	col string
	val any
}

func (p eqPredicate) render(b *binder) string {
	return p.col + " = " + b.bind(p.val)
}

// Eq matches col = value.
func Eq(col string, value any) Predicate {
	return eqPredicate{col: col, val: value}
}

type boolPredicate struct {
	col string
	val bool
}

func (p boolPredicate) render(b *binder) string {
	return b.dialect.BoolExpr(p.col) + " = " + b.bind(b.dialect.BoolArg(p.val))
}

// Bool matches a boolean column regardless of how the dialect stores it.
// NULL compares as false.
func Bool(col string, value bool) Predicate {
	return boolPredicate{col: col, val: value}
}

type nullPredicate struct {
	col  string
	null bool
}

func (p nullPredicate) render(_ *binder) string {
	if p.null {
		return p.col + " IS NULL"
	}
	return p.col + " IS NOT NULL"
}

// IsNull matches col IS NULL.
func IsNull(col string) Predicate { return nullPredicate{col: col, null: true} }

// NotNull matches col IS NOT NULL.
func NotNull(col string) Predicate { return nullPredicate{col: col} }

type searchPredicate struct {
	term string
	cols []string
}

func (p searchPredicate) render(b *binder) string {
	pattern := "%" + p.term + "%"
	parts := make([]string, len(p.cols))
	for i, c := range p.cols {
		parts[i] = b.dialect.Fold(c) + " " + b.dialect.Like() + " " + b.dialect.Fold(b.bind(pattern))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// Search matches term case-insensitively as a substring of any of cols. An
// empty term matches everything and renders nothing.
func Search(term string, cols ...string) Predicate {
	return searchPredicate{term: strings.TrimSpace(term), cols: cols}
}

type inPredicate struct {
	col  string
	vals []any
}

func (p inPredicate) render(b *binder) string {
	if len(p.vals) == 0 {
		return "1 = 0"
	}
	ph := make([]string, len(p.vals))
	for i, v := range p.vals {
		ph[i] = b.bind(v)
	}
	return p.col + " IN (" + strings.Join(ph, ", ") + ")"
}

// In matches col against a list of values. An empty list matches nothing.
func In[T any](col string, values []T) Predicate {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return inPredicate{col: col, vals: vals}
}

type rawPredicate string

func (r rawPredicate) render(_ *binder) string { return string(r) }

// Raw embeds a constant SQL condition. It must never contain
// caller-supplied text.
func Raw(sql string) Predicate {
	return rawPredicate(sql)
}

// renderWhere renders the conjunction of preds, skipping empty searches.
func renderWhere(b *binder, preds []Predicate) string {
	var parts []string
	for _, p := range preds {
		if p == nil {
			continue
		}
		if s, ok := p.(searchPredicate); ok && (s.term == "" || len(s.cols) == 0) {
			continue
		}
		parts = append(parts, p.render(b))
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// Where renders a standalone WHERE clause and its arguments, numbering
// placeholders from 1.
func Where(d database.Dialect, preds ...Predicate) (string, []any) {
	b := &binder{dialect: d}
	return renderWhere(b, preds), b.args
}
