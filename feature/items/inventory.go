package items

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/mapper"
)

// LabelInventory lists every label in rng with the item or container that
// holds it. An empty From starts at 0000; an empty To covers
// MaxInventoryRange labels.
func (r *Repository) LabelInventory(ctx context.Context, rng LabelRange) (out []LabelInfo, err error) {
	defer r.observe("label_inventory", time.Now(), &err)

	from, to, err := rng.bounds()
	if err != nil {
		return nil, err
	}

	d := r.db.Dialect()
	within := func(col string) string {
		return " WHERE LENGTH(" + col + ") = 4 AND " + col + " >= " + d.Placeholder(1) +
			" AND " + col + " <= " + d.Placeholder(2)
	}
	lo, hi := labels.Encode(from), labels.Encode(to)

	var itemNames, containerNames map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		itemNames, err = r.namesByLabel(gctx, "SELECT label_id AS code, name FROM items"+within("label_id"), lo, hi)
		return err
	})
	g.Go(func() error {
		var err error
		containerNames, err = r.namesByLabel(gctx, "SELECT id AS code, name FROM containers"+within("id"), lo, hi)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out = make([]LabelInfo, 0, to-from+1)
	for n := from; n <= to; n++ {
		code := labels.Encode(n)
		info := LabelInfo{ID: code}
		if name, ok := itemNames[code]; ok {
			info.Used = true
			info.ItemName = &name
		}
		if name, ok := containerNames[code]; ok {
			info.Used = true
			info.ContainerName = &name
		}
		out = append(out, info)
	}
	return out, nil
}

func (rng LabelRange) bounds() (int64, int64, error) {
	var from int64
	if rng.From != "" {
		n, err := labels.Decode(rng.From)
		if err != nil {
			return 0, 0, err
		}
		from = n
	}

	to := min(from+MaxInventoryRange-1, labels.MaxValue)
	if rng.To != "" {
		n, err := labels.Decode(rng.To)
		if err != nil {
			return 0, 0, err
		}
		to = n
	}

	if to < from {
		return 0, 0, apperror.BadRequest("Label range end %s is before start %s", labels.Encode(to), labels.Encode(from))
	}
	if to-from+1 > MaxInventoryRange {
		return 0, 0, apperror.BadRequest("Label range must not exceed %d labels", MaxInventoryRange)
	}
	return from, to, nil
}

// namesByLabel reads code/name pairs. Codes outside the base-36 alphabet
// are skipped since collation may let them into the range.
func (r *Repository) namesByLabel(ctx context.Context, stmt string, args ...any) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read labels")
	}
	found, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read labels")
	}
	names := make(map[string]string, len(found))
	for _, row := range found {
		code := row.Text("code")
		if labels.Valid(code) {
			names[code] = row.Text("name")
		}
	}
	return names, nil
}

// CheckGlobalID reports whether id is held by an item, a container, or both.
func (r *Repository) CheckGlobalID(ctx context.Context, id string) (check *IDCheck, err error) {
	defer r.observe("check_id", time.Now(), &err)

	check = &IDCheck{FoundIn: []string{}, Duplicates: []Duplicate{}}
	ph := r.db.Dialect().Placeholder(1)
	sources := []struct {
		stmt, table, kind string
	}{
		{"SELECT name FROM items WHERE label_id = " + ph, "items", "item"},
		{"SELECT name FROM containers WHERE id = " + ph, "containers", "container"},
	}
	for _, src := range sources {
		rows, err := r.db.QueryContext(ctx, src.stmt, id)
		if err != nil {
			return nil, apperror.Database(err, "Failed to check id %s", id)
		}
		row, ok, err := mapper.ScanOne(rows)
		if err != nil {
			return nil, apperror.Database(err, "Failed to check id %s", id)
		}
		if !ok {
			continue
		}
		check.Exists = true
		check.FoundIn = append(check.FoundIn, src.table)
		check.Duplicates = append(check.Duplicates, Duplicate{Name: row.Text("name"), ItemType: src.kind})
	}
	return check, nil
}
