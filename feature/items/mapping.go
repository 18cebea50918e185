package items

import (
	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/mapper"
)

const itemColumns = "id, name, label_id, model_number, remarks, purchase_year, purchase_amount, " +
	"durability_years, is_depreciation_target, connection_names, cable_color_pattern, storage_location, " +
	"container_id, storage_type, is_on_loan, qr_code_type, is_disposed, image_url, created_at, updated_at"

// itemFromRow maps every column with a default. Malformed list JSON is the
// only failure.
func itemFromRow(r mapper.Row) (*Item, error) {
	item := &Item{
		ID:                   r.Int64("id"),
		Name:                 r.Text("name"),
		LabelID:              r.Text("label_id"),
		ModelNumber:          r.OptString("model_number"),
		Remarks:              r.OptString("remarks"),
		PurchaseYear:         r.OptInt("purchase_year"),
		PurchaseAmount:       r.OptFloat("purchase_amount"),
		DurabilityYears:      r.OptInt("durability_years"),
		IsDepreciationTarget: r.Bool("is_depreciation_target"),
		StorageLocation:      r.OptString("storage_location"),
		ContainerID:          r.OptString("container_id"),
		StorageType:          r.Text("storage_type"),
		IsOnLoan:             r.Bool("is_on_loan"),
		QRCodeType:           r.OptString("qr_code_type"),
		IsDisposed:           r.Bool("is_disposed"),
		ImageURL:             r.OptString("image_url"),
		CreatedAt:            r.Time("created_at"),
		UpdatedAt:            r.Time("updated_at"),
	}
	if item.StorageType == "" {
		item.StorageType = StorageLocation
	}

	var err error
	if item.ConnectionNames, err = r.StringList("connection_names"); err != nil {
		return nil, apperror.Internal(err, "Item %d has malformed connection_names", item.ID)
	}
	if item.CableColorPattern, err = r.StringList("cable_color_pattern"); err != nil {
		return nil, apperror.Internal(err, "Item %d has malformed cable_color_pattern", item.ID)
	}
	return item, nil
}

func itemsFromRows(rows []mapper.Row) ([]Item, error) {
	out := make([]Item, 0, len(rows))
	for _, r := range rows {
		item, err := itemFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}
