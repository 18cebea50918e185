package items

import (
	"time"

	"github.com/sohosai/hyperdashi-server/core/query"
	"github.com/sohosai/hyperdashi-server/core/validate"
)

// Storage types.
const (
	StorageLocation  = "location"
	StorageContainer = "container"
)

// QR code types.
const (
	QRCode  = "qr"
	Barcode = "barcode"
	QRNone  = "none"
)

// Item is one physical asset.
type Item struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	LabelID              string    `json:"label_id"`
	ModelNumber          *string   `json:"model_number"`
	Remarks              *string   `json:"remarks"`
	PurchaseYear         *int      `json:"purchase_year"`
	PurchaseAmount       *float64  `json:"purchase_amount"`
	DurabilityYears      *int      `json:"durability_years"`
	IsDepreciationTarget bool      `json:"is_depreciation_target"`
	ConnectionNames      []string  `json:"connection_names"`
	CableColorPattern    []string  `json:"cable_color_pattern"`
	StorageLocation      *string   `json:"storage_location"`
	ContainerID          *string   `json:"container_id"`
	StorageType          string    `json:"storage_type"`
	IsOnLoan             bool      `json:"is_on_loan"`
	QRCodeType           *string   `json:"qr_code_type"`
	IsDisposed           bool      `json:"is_disposed"`
	ImageURL             *string   `json:"image_url"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CreateRequest describes a new item. An empty LabelID draws one from the
// shared label counter.
type CreateRequest struct {
	Name                 string   `json:"name"`
	LabelID              string   `json:"label_id"`
	ModelNumber          *string  `json:"model_number"`
	Remarks              *string  `json:"remarks"`
	PurchaseYear         *int     `json:"purchase_year"`
	PurchaseAmount       *float64 `json:"purchase_amount"`
	DurabilityYears      *int     `json:"durability_years"`
	IsDepreciationTarget *bool    `json:"is_depreciation_target"`
	ConnectionNames      []string `json:"connection_names"`
	CableColorPattern    []string `json:"cable_color_pattern"`
	StorageLocation      *string  `json:"storage_location"`
	ContainerID          *string  `json:"container_id"`
	StorageType          *string  `json:"storage_type"`
	QRCodeType           *string  `json:"qr_code_type"`
	ImageURL             *string  `json:"image_url"`
}

// Validate checks field bounds and enums.
func (r *CreateRequest) Validate() error {
	rules := []error{
		validate.Length("name", r.Name, 1, 255),
		validate.OptLength("model_number", r.ModelNumber, 0, 255),
		validate.OptRange("purchase_year", r.PurchaseYear, 1900, 2100),
		validate.OptRange("durability_years", r.DurabilityYears, 1, 100),
		validate.OptOneOf("storage_type", r.StorageType, StorageLocation, StorageContainer),
		validate.OptOneOf("qr_code_type", r.QRCodeType, QRCode, Barcode, QRNone),
		validate.OptURL("image_url", r.ImageURL),
	}
	if r.LabelID != "" {
		rules = append(rules, validate.Length("label_id", r.LabelID, 1, 50))
	}
	return validate.Check(rules...)
}

// storageType returns the requested storage type, defaulting to location.
func (r *CreateRequest) storageType() string {
	if r.StorageType == nil {
		return StorageLocation
	}
	return *r.StorageType
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Name                 *string   `json:"name"`
	LabelID              *string   `json:"label_id"`
	ModelNumber          *string   `json:"model_number"`
	Remarks              *string   `json:"remarks"`
	PurchaseYear         *int      `json:"purchase_year"`
	PurchaseAmount       *float64  `json:"purchase_amount"`
	DurabilityYears      *int      `json:"durability_years"`
	IsDepreciationTarget *bool     `json:"is_depreciation_target"`
	ConnectionNames      *[]string `json:"connection_names"`
	CableColorPattern    *[]string `json:"cable_color_pattern"`
	StorageLocation      *string   `json:"storage_location"`
	ContainerID          *string   `json:"container_id"`
	StorageType          *string   `json:"storage_type"`
	QRCodeType           *string   `json:"qr_code_type"`
	IsDisposed           *bool     `json:"is_disposed"`
	ImageURL             *string   `json:"image_url"`
}

// Validate checks the bounds of every set field.
func (r *UpdateRequest) Validate() error {
	return validate.Check(
		validate.OptLength("name", r.Name, 1, 255),
		validate.OptLength("label_id", r.LabelID, 1, 50),
		validate.OptLength("model_number", r.ModelNumber, 0, 255),
		validate.OptRange("purchase_year", r.PurchaseYear, 1900, 2100),
		validate.OptRange("durability_years", r.DurabilityYears, 1, 100),
		validate.OptOneOf("storage_type", r.StorageType, StorageLocation, StorageContainer),
		validate.OptOneOf("qr_code_type", r.QRCodeType, QRCode, Barcode, QRNone),
		validate.OptURL("image_url", r.ImageURL),
	)
}

// Filter narrows List. Nil fields do not filter.
type Filter struct {
	Search      string
	IsOnLoan    *bool
	IsDisposed  *bool
	ContainerID *string
	StorageType *string
}

// ListResult is one page of items.
type ListResult struct {
	Items      []Item `json:"items"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages"`
}

var sortColumns = query.SortColumns{
	"name":        "name",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"is_disposed": "is_disposed",
}

// MaxInventoryRange bounds a single LabelInventory call.
const MaxInventoryRange = 10000

// LabelRange selects labels from From to To inclusive.
type LabelRange struct {
	From string
	To   string
}

// LabelInfo reports whether one label is taken and by what.
type LabelInfo struct {
	ID            string  `json:"id"`
	Used          bool    `json:"used"`
	ItemName      *string `json:"item_name"`
	ContainerName *string `json:"container_name"`
}

// IDCheck reports where an id is already in use.
type IDCheck struct {
	Exists     bool        `json:"exists"`
	FoundIn    []string    `json:"found_in"`
	Duplicates []Duplicate `json:"duplicates"`
}

// Duplicate names one holder of a checked id.
type Duplicate struct {
	Name     string `json:"name"`
	ItemType string `json:"item_type"`
}
