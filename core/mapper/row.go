package mapper

import (
	"database/sql"
	"strings"
	"time"
)

// Row is one raw result row keyed by lower-cased column name. Values are the
// driver's native representation and are only interpreted through the typed
// accessors below.
type Row map[string]any

// ScanRows drains rows into a slice of Row and closes it.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		cols[i] = strings.ToLower(c)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanOne drains rows and returns the first row, or ok=false when empty.
func ScanOne(rows *sql.Rows) (Row, bool, error) {
	all, err := ScanRows(rows)
	if err != nil || len(all) == 0 {
		return nil, false, err
	}
	return all[0], true, nil
}

// Typed accessors. Each delegates to the package-level conversion of the same kind.
func (r Row) Int64(col string) int64 { return Int64(r[col]) }
func (r Row) Int(col string) int { return Int(r[col]) }
func (r Row) Float(col string) float64 { return Float(r[col]) }
func (r Row) Text(col string) string { return String(r[col]) }
func (r Row) Bool(col string) bool { return Bool(r[col]) }
func (r Row) Time(col string) time.Time { return Time(r[col]) }
func (r Row) OptString(col string) *string { return OptString(r[col]) }
func (r Row) OptInt(col string) *int { return OptInt(r[col]) }
func (r Row) OptFloat(col string) *float64 { return OptFloat(r[col]) }
func (r Row) OptBool(col string) *bool { return OptBool(r[col]) }
func (r Row) OptTime(col string) *time.Time { return OptTime(r[col]) }
func (r Row) StringList(col string) ([]string, error) { return StringList(r[col]) }
