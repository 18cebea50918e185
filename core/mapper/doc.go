// Package mapper turns raw result rows into canonical Go values.
//
// The two SQL engines disagree on representation: one returns native booleans
// and timezone-aware timestamps, the other returns 0/1 or "true" text flags and
// naive timestamps. Every conversion here is total. A missing, NULL or
// unparseable value maps to the zero value (or nil for the Opt* helpers), so
// per-entity mapping functions can name a source column and a default for
// every field without branching on the dialect.
//
// The one exception is StringList: JSON list columns that fail to decode are
// reported as errors rather than read as empty.
package mapper
