// Package containers manages labelled containers and the occupancy guard
// that keeps a container from being deleted or disposed while it still
// holds items.
package containers
