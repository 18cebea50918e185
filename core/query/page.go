package query

import "math"

const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

// Page selects one slice of a sorted result.
type Page struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Normalize substitutes defaults for non-positive values and clamps Page so
// the offset stays representable. A clamped page is past the last row on
// every engine and comes back empty.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if maxPage := math.MaxInt / p.PerPage; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// Offset returns (page-1)*per_page of the normalized page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// TotalPages returns how many pages of perPage rows hold total rows.
func TotalPages(total int64, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
