package query

import "strings"

// DefaultSortKey is used when the requested key is not allow-listed.
const DefaultSortKey = "created_at"

// SortSpec is the caller's requested ordering, straight from the request.
type SortSpec struct {
	Key   string
	Order string
}

// Desc reports whether the order is descending. Only "asc" (any case) is
// ascending.
func (s SortSpec) Desc() bool {
	return !strings.EqualFold(strings.TrimSpace(s.Order), "asc")
}

// SortColumns maps public sort keys to SQL column expressions.
type SortColumns map[string]string

// Resolve maps the requested key through the allow-list. Unknown keys fall
// back to DefaultSortKey.
func (c SortColumns) Resolve(s SortSpec) string {
	if col, ok := c[s.Key]; ok {
		return col
	}
	return c[DefaultSortKey]
}

// orderBy renders ORDER BY with a tiebreak column in the same direction so
// pages never depend on engine-specific row order.
func orderBy(col, tiebreak string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	out := " ORDER BY " + col + " " + dir
	if tiebreak != "" && tiebreak != col {
		out += ", " + tiebreak + " " + dir
	}
	return out
}
