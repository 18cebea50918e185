package cablecolors

import (
	"time"

	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/validate"
)

// CableColor names a color used in item cable patterns.
type CableColor struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	HexCode     *string   `json:"hex_code"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest describes a new cable color.
type CreateRequest struct {
	Name        string  `json:"name"`
	HexCode     *string `json:"hex_code"`
	Description *string `json:"description"`
}

func (r *CreateRequest) Validate() error {
	return validate.Check(
		validate.Length("name", r.Name, 1, 100),
		validate.OptHexColor("hex_code", r.HexCode),
	)
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Name        *string `json:"name"`
	HexCode     *string `json:"hex_code"`
	Description *string `json:"description"`
}

func (r *UpdateRequest) Validate() error {
	return validate.Check(
		validate.OptLength("name", r.Name, 1, 100),
		validate.OptHexColor("hex_code", r.HexCode),
	)
}

// ListResult is one page of cable colors.
type ListResult struct {
	CableColors []CableColor `json:"cable_colors"`
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	PerPage     int          `json:"per_page"`
	TotalPages  int          `json:"total_pages"`
}

const columns = "id, name, hex_code, description, created_at, updated_at"

func fromRow(r mapper.Row) CableColor {
	return CableColor{
		ID:          r.Int64("id"),
		Name:        r.Text("name"),
		HexCode:     r.OptString("hex_code"),
		Description: r.OptString("description"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}
