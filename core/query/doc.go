// Package query renders dialect-correct SQL for filtered, searched, sorted
// and paginated reads and for partial updates. Column names and fragments
// come from code; every caller-supplied value is bound as a parameter.
package query
