package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
)

// SchemaSource is a live connection whose catalog can be inspected.
type SchemaSource interface {
	Dialect() database.Dialect
	Gorm() *gorm.DB
}

// Schema compares the live columns of every migrated table against the
// columns the embedded migrations declare for the connected dialect. It only
// reports; drift is never repaired automatically.
type Schema struct {
	db SchemaSource
}

// NewSchema creates the schema parity check.
func NewSchema(db SchemaSource) *Schema {
	return &Schema{db: db}
}

func (c *Schema) Name() string { return "schema" }

func (c *Schema) Inspect(ctx context.Context) ([]reconcile.Finding, []reconcile.Action, error) {
	declared, err := database.DeclaredColumns(c.db.Dialect())
	if err != nil {
		return nil, nil, err
	}
	tables := make([]string, 0, len(declared))
	for t := range declared {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	live, err := database.LiveColumns(c.db.Gorm().WithContext(ctx), tables)
	if err != nil {
		return nil, nil, err
	}

	var findings []reconcile.Finding
	for _, d := range database.CompareSchemas(declared, live) {
		var parts []string
		if len(d.Missing) > 0 {
			parts = append(parts, "missing columns: "+strings.Join(d.Missing, ", "))
		}
		if len(d.Extra) > 0 {
			parts = append(parts, "extra columns: "+strings.Join(d.Extra, ", "))
		}
		findings = append(findings, reconcile.Finding{
			Check:   c.Name(),
			Key:     d.Table,
			Problem: fmt.Sprintf("table %s has %s", d.Table, strings.Join(parts, "; ")),
		})
	}
	return findings, nil, nil
}
