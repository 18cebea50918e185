package query

import (
	"strings"
	"time"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
)

type assignment struct {
	col  string
	val  any
	null bool
}

// Update builds a partial UPDATE containing only the columns that were set.
type Update struct {
	dialect database.Dialect
	table   string
	sets    []assignment
	touch   string
	now     time.Time
}

// NewUpdate starts an update of table.
func NewUpdate(d database.Dialect, table string) *Update {
	return &Update{dialect: d, table: table}
}

// Set assigns value to col.
func (u *Update) Set(col string, value any) *Update {
	u.sets = append(u.sets, assignment{col: col, val: value})
	return u
}

// SetNull assigns NULL to col.
func (u *Update) SetNull(col string) *Update {
	u.sets = append(u.sets, assignment{col: col, null: true})
	return u
}

// Touch stamps col with now whenever at least one other column is set.
func (u *Update) Touch(col string, now time.Time) *Update {
	u.touch = col
	u.now = now
	return u
}

// Len returns the number of assignments, not counting Touch.
func (u *Update) Len() int { return len(u.sets) }

// Build renders UPDATE ... SET ... WHERE whereCol = ?. An update with no
// assignments is rejected.
func (u *Update) Build(whereCol string, whereVal any) (string, []any, error) {
	return u.BuildWhere(Eq(whereCol, whereVal))
}

// BuildWhere renders the update against an arbitrary condition. Condition
// placeholders are numbered after the SET values.
func (u *Update) BuildWhere(preds ...Predicate) (string, []any, error) {
	if len(u.sets) == 0 {
		return "", nil, apperror.BadRequest("No fields to update")
	}
	b := &binder{dialect: u.dialect}
	parts := make([]string, 0, len(u.sets)+1)
	for _, a := range u.sets {
		if a.null {
			parts = append(parts, a.col+" = NULL")
			continue
		}
		parts = append(parts, a.col+" = "+b.bind(a.val))
	}
	if u.touch != "" {
		parts = append(parts, u.touch+" = "+b.bind(u.dialect.TimeArg(u.now)))
	}
	sql := "UPDATE " + u.table + " SET " + strings.Join(parts, ", ") + renderWhere(b, preds)
	return sql, b.args, nil
}

// SetOpt assigns *value to col when value is non-nil.
func SetOpt[T any](u *Update, col string, value *T) {
	if value != nil {
		u.Set(col, *value)
	}
}

// Insert renders INSERT INTO table (cols) VALUES (...) for parallel cols and
// values.
func Insert(d database.Dialect, table string, cols []string, values []any) (string, []any) {
	b := &binder{dialect: d}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = b.bind(v)
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")", b.args
}
