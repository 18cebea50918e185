package query

import "github.com/sohosai/hyperdashi-server/core/database"

// Select renders a filtered, sorted and paginated query plus its count.
// Base holds the constant "SELECT ... FROM ..." text including any joins.
type Select struct {
	Dialect  database.Dialect
	Base     string
	Where    []Predicate
	GroupBy  string
	Columns  SortColumns
	Sort     SortSpec
	Tiebreak string
	Page     Page
}

// filtered renders Base, WHERE and GROUP BY with placeholders numbered
// from 1.
func (s Select) filtered() (string, *binder) {
	b := &binder{dialect: s.Dialect}
	sql := s.Base + renderWhere(b, s.Where)
	if s.GroupBy != "" {
		sql += " GROUP BY " + s.GroupBy
	}
	return sql, b
}

// SQL returns the page query. LIMIT and OFFSET are bound after the filter
// arguments.
func (s Select) SQL() (string, []any) {
	sql, b := s.filtered()
	if s.Columns != nil {
		sql += orderBy(s.Columns.Resolve(s.Sort), s.Tiebreak, s.Sort.Desc())
	}
	p := s.Page.Normalize()
	sql += " LIMIT " + b.bind(int64(p.PerPage)) + " OFFSET " + b.bind(int64(p.Offset()))
	return sql, b.args
}

// CountSQL returns SELECT COUNT(*) over the same filtered query, without
// order or limit. Its WHERE text and arguments match SQL's.
func (s Select) CountSQL() (string, []any) {
	sql, b := s.filtered()
	return "SELECT COUNT(*) FROM (" + sql + ") AS counted", b.args
}
