// Package labels exposes the label allocator over HTTP together with the
// label inventory and the global id check.
package labels
