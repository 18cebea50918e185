package containers

import (
	"time"

	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/query"
	"github.com/sohosai/hyperdashi-server/core/validate"
)

// Container holds items and carries a label from the shared pool as its id.
type Container struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Location    string    `json:"location"`
	ImageURL    *string   `json:"image_url"`
	IsDisposed  bool      `json:"is_disposed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithItemCount adds the number of non-disposed items stored inside.
type WithItemCount struct {
	Container
	ItemCount int64 `json:"item_count"`
}

// CreateRequest describes a new container. The id is always drawn.
type CreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Location    string  `json:"location"`
	ImageURL    *string `json:"image_url"`
}

// Validate checks field bounds.
func (r *CreateRequest) Validate() error {
	return validate.Check(
		validate.Length("name", r.Name, 1, 100),
		validate.Length("location", r.Location, 1, 100),
		validate.OptURL("image_url", r.ImageURL),
	)
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	ImageURL    *string `json:"image_url"`
	IsDisposed  *bool   `json:"is_disposed"`
}

// Validate checks the bounds of every set field.
func (r *UpdateRequest) Validate() error {
	return validate.Check(
		validate.OptLength("name", r.Name, 1, 100),
		validate.OptLength("location", r.Location, 1, 100),
		validate.OptURL("image_url", r.ImageURL),
	)
}

// Filter narrows List.
type Filter struct {
	IncludeDisposed bool
	Location        *string
	Search          string
}

// ListResult is one page of containers.
type ListResult struct {
	Containers []WithItemCount `json:"containers"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}

// BulkDeleteRequest names the containers to delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDisposedRequest sets is_disposed on every listed container.
type BulkDisposedRequest struct {
	IDs        []string `json:"ids"`
	IsDisposed bool     `json:"is_disposed"`
}

var sortColumns = query.SortColumns{
	"name":        "c.name",
	"location":    "c.location",
	"item_count":  "item_count",
	"created_at":  "c.created_at",
	"updated_at":  "c.updated_at",
	"is_disposed": "c.is_disposed",
}

const containerColumns = "c.id, c.name, c.description, c.location, c.image_url, c.is_disposed, c.created_at, c.updated_at"

func containerFromRow(r mapper.Row) Container {
	return Container{
		ID:          r.Text("id"),
		Name:        r.Text("name"),
		Description: r.OptString("description"),
		Location:    r.Text("location"),
		ImageURL:    r.OptString("image_url"),
		IsDisposed:  r.Bool("is_disposed"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}
