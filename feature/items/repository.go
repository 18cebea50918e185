package items

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/metrics"
	"github.com/sohosai/hyperdashi-server/core/query"
)

// Repository is the facade over the items table.
type Repository struct {
	db      database.Database
	labels  *labels.Allocator
	logger  *zap.Logger
	metrics *metrics.Metrics
	flight  singleflight.Group
}

// NewRepository creates an items repository. m may be nil.
func NewRepository(db database.Database, alloc *labels.Allocator, logger *zap.Logger, m *metrics.Metrics) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, labels: alloc, logger: logger, metrics: m}
}

func (r *Repository) observe(op string, start time.Time, err *error) {
	r.metrics.ObserveOperation("items", op, start, *err)
}

// Create inserts an item, drawing a label when none is given.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (item *Item, err error) {
	defer r.observe("create", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := r.db.Dialect()
	storageType := req.storageType()
	var location, containerID *string
	if storageType == StorageContainer {
		if req.ContainerID == nil || *req.ContainerID == "" {
			return nil, apperror.BadRequest("container_id is required when storage_type is container")
		}
		if err := r.requireContainer(ctx, *req.ContainerID); err != nil {
			return nil, err
		}
		containerID = req.ContainerID
	} else {
		location = req.StorageLocation
	}

	label := req.LabelID
	if label == "" {
		codes, err := r.labels.Allocate(ctx, 1)
		if err != nil {
			return nil, err
		}
		label = codes[0]
	} else if err := r.rejectContainerLabel(ctx, label); err != nil {
		return nil, err
	}

	connectionNames, err := mapper.EncodeStringList(req.ConnectionNames)
	if err != nil {
		return nil, apperror.BadRequest("Invalid connection_names")
	}
	cablePattern, err := mapper.EncodeStringList(req.CableColorPattern)
	if err != nil {
		return nil, apperror.BadRequest("Invalid cable_color_pattern")
	}

	depreciation := req.IsDepreciationTarget != nil && *req.IsDepreciationTarget
	now := d.TimeArg(time.Now())
	stmt, args := query.Insert(d, "items",
		[]string{
			"name", "label_id", "model_number", "remarks", "purchase_year", "purchase_amount",
			"durability_years", "is_depreciation_target", "connection_names", "cable_color_pattern",
			"storage_location", "container_id", "storage_type", "is_on_loan", "qr_code_type",
			"is_disposed", "image_url", "created_at", "updated_at",
		},
		[]any{
			req.Name, label, req.ModelNumber, req.Remarks, req.PurchaseYear, req.PurchaseAmount,
			req.DurabilityYears, d.BoolArg(depreciation), connectionNames, cablePattern,
			location, containerID, storageType, d.BoolArg(false), req.QRCodeType,
			d.BoolArg(false), req.ImageURL, now, now,
		},
	)

	id, err := d.InsertReturningID(ctx, r.db, stmt, args...)
	if err != nil {
		if d.IsUniqueViolation(err) {
			return nil, apperror.Conflict("Label ID %s is already in use", label)
		}
		return nil, apperror.Database(err, "Failed to create item")
	}

	r.logger.Info("Item created", zap.Int64("id", id), zap.String("label_id", label))
	return r.Get(ctx, id)
}

// Get returns the item with id.
func (r *Repository) Get(ctx context.Context, id int64) (*Item, error) {
	return r.getWith(ctx, r.db, id)
}

func (r *Repository) getWith(ctx context.Context, q database.Querier, id int64) (*Item, error) {
	found, err := r.fetch(ctx, q, " WHERE id = "+r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("Item with id %d not found", id)
	}
	return &found[0], nil
}

// GetByLabel returns the item carrying label.
func (r *Repository) GetByLabel(ctx context.Context, label string) (*Item, error) {
	found, err := r.fetch(ctx, r.db, " WHERE label_id = "+r.db.Dialect().Placeholder(1), label)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("Item with label_id %s not found", label)
	}
	return &found[0], nil
}

// List returns one filtered, sorted page. The page and the total are read
// concurrently.
func (r *Repository) List(ctx context.Context, f Filter, sortSpec query.SortSpec, page query.Page) (res *ListResult, err error) {
	defer r.observe("list", time.Now(), &err)

	page = page.Normalize()
	preds := []query.Predicate{query.Search(f.Search, "name", "label_id", "model_number", "remarks")}
	if f.IsOnLoan != nil {
		preds = append(preds, query.Bool("is_on_loan", *f.IsOnLoan))
	}
	if f.IsDisposed != nil {
		preds = append(preds, query.Bool("is_disposed", *f.IsDisposed))
	}
	if f.ContainerID != nil {
		preds = append(preds, query.Eq("container_id", *f.ContainerID))
	}
	if f.StorageType != nil {
		preds = append(preds, query.Eq("storage_type", *f.StorageType))
	}

	sel := query.Select{
		Dialect:  r.db.Dialect(),
		Base:     "SELECT " + itemColumns + " FROM items",
		Where:    preds,
		Columns:  sortColumns,
		Sort:     sortSpec,
		Tiebreak: "id",
		Page:     page,
	}

	var (
		items []Item
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stmt, args := sel.SQL()
		var err error
		items, err = r.query(gctx, r.db, stmt, args...)
		return err
	})
	g.Go(func() error {
		stmt, args := sel.CountSQL()
		if err := r.db.QueryRowContext(gctx, stmt, args...).Scan(&total); err != nil {
			return apperror.Database(err, "Failed to count items")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: query.TotalPages(total, page.PerPage),
	}, nil
}

// Update applies the fields set in req. Switching storage_type clears the
// inactive storage column.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (item *Item, err error) {
	defer r.observe("update", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := r.db.Dialect()
	u := query.NewUpdate(d, "items")
	query.SetOpt(u, "name", req.Name)
	if req.LabelID != nil {
		if err := r.rejectContainerLabel(ctx, *req.LabelID); err != nil {
			return nil, err
		}
		u.Set("label_id", *req.LabelID)
	}
	query.SetOpt(u, "model_number", req.ModelNumber)
	query.SetOpt(u, "remarks", req.Remarks)
	query.SetOpt(u, "purchase_year", req.PurchaseYear)
	query.SetOpt(u, "purchase_amount", req.PurchaseAmount)
	query.SetOpt(u, "durability_years", req.DurabilityYears)
	if req.IsDepreciationTarget != nil {
		u.Set("is_depreciation_target", d.BoolArg(*req.IsDepreciationTarget))
	}
	if req.ConnectionNames != nil {
		v, err := mapper.EncodeStringList(*req.ConnectionNames)
		if err != nil {
			return nil, apperror.BadRequest("Invalid connection_names")
		}
		u.Set("connection_names", v)
	}
	if req.CableColorPattern != nil {
		v, err := mapper.EncodeStringList(*req.CableColorPattern)
		if err != nil {
			return nil, apperror.BadRequest("Invalid cable_color_pattern")
		}
		u.Set("cable_color_pattern", v)
	}

	storageType := existing.StorageType
	if req.StorageType != nil {
		storageType = *req.StorageType
		u.Set("storage_type", storageType)
	}
	if storageType == StorageContainer {
		if req.StorageLocation != nil && *req.StorageLocation != "" {
			return nil, apperror.BadRequest("storage_location requires storage_type=location")
		}
		containerID := existing.ContainerID
		if req.ContainerID != nil {
			if err := r.requireContainer(ctx, *req.ContainerID); err != nil {
				return nil, err
			}
			containerID = req.ContainerID
			u.Set("container_id", *req.ContainerID)
		}
		if containerID == nil || *containerID == "" {
			return nil, apperror.BadRequest("container_id is required when storage_type is container")
		}
		if req.StorageType != nil || req.StorageLocation != nil {
			u.SetNull("storage_location")
		}
	} else {
		if req.ContainerID != nil && *req.ContainerID != "" {
			return nil, apperror.BadRequest("container_id requires storage_type=container")
		}
		query.SetOpt(u, "storage_location", req.StorageLocation)
		if req.StorageType != nil || req.ContainerID != nil {
			u.SetNull("container_id")
		}
	}

	query.SetOpt(u, "qr_code_type", req.QRCodeType)
	if req.IsDisposed != nil {
		u.Set("is_disposed", d.BoolArg(*req.IsDisposed))
	}
	query.SetOpt(u, "image_url", req.ImageURL)

	stmt, args, err := u.Touch("updated_at", time.Now()).Build("id", id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		if d.IsUniqueViolation(err) && req.LabelID != nil {
			return nil, apperror.Conflict("Label ID %s is already in use", *req.LabelID)
		}
		return nil, apperror.Database(err, "Failed to update item %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("Item with id %d not found", id)
	}
	return r.Get(ctx, id)
}

// Delete removes an item that is not on loan. Its loan history goes with it.
func (r *Repository) Delete(ctx context.Context, id int64) (err error) {
	defer r.observe("delete", time.Now(), &err)

	d := r.db.Dialect()
	err = r.db.InTx(ctx, func(q database.Querier) error {
		var onLoan any
		err := q.QueryRowContext(ctx,
			"SELECT is_on_loan FROM items WHERE id = "+d.Placeholder(1)+d.ForUpdate(), id).Scan(&onLoan)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("Item with id %d not found", id)
		}
		if err != nil {
			return apperror.Database(err, "Failed to read item %d", id)
		}

		var active int64
		err = q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM loans WHERE item_id = "+d.Placeholder(1)+" AND return_date IS NULL", id).Scan(&active)
		if err != nil {
			return apperror.Database(err, "Failed to count active loans")
		}
		if mapper.Bool(onLoan) || active > 0 {
			return apperror.Conflict("Cannot delete item that is currently on loan")
		}

		res, err := q.ExecContext(ctx, "DELETE FROM items WHERE id = "+d.Placeholder(1), id)
		if err != nil {
			return apperror.Database(err, "Failed to delete item %d", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("Item with id %d not found", id)
		}
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			r.logger.Warn("Item delete rejected", zap.Int64("id", id), zap.Error(err))
		}
		return err
	}
	r.logger.Info("Item deleted", zap.Int64("id", id))
	return nil
}

// Dispose marks an item disposed. Loan state is not consulted.
func (r *Repository) Dispose(ctx context.Context, id int64) (*Item, error) {
	return r.setDisposed(ctx, id, true)
}

// Undispose clears the disposed flag.
func (r *Repository) Undispose(ctx context.Context, id int64) (*Item, error) {
	return r.setDisposed(ctx, id, false)
}

func (r *Repository) setDisposed(ctx context.Context, id int64, disposed bool) (item *Item, err error) {
	defer r.observe("dispose", time.Now(), &err)

	d := r.db.Dialect()
	stmt, args, err := query.NewUpdate(d, "items").
		Set("is_disposed", d.BoolArg(disposed)).
		Touch("updated_at", time.Now()).
		Build("id", id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to update item %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("Item with id %d not found", id)
	}
	r.logger.Info("Item disposal changed", zap.Int64("id", id), zap.Bool("disposed", disposed))
	return r.Get(ctx, id)
}

// ConnectionNameSuggestions returns every distinct connection name in use,
// sorted. Concurrent callers share one query.
func (r *Repository) ConnectionNameSuggestions(ctx context.Context) ([]string, error) {
	v, err, _ := r.flight.Do("connection_names", func() (any, error) {
		rows, err := r.db.QueryContext(ctx,
			"SELECT DISTINCT connection_names FROM items WHERE connection_names IS NOT NULL AND connection_names != ''")
		if err != nil {
			return nil, apperror.Database(err, "Failed to read connection names")
		}
		found, err := mapper.ScanRows(rows)
		if err != nil {
			return nil, apperror.Database(err, "Failed to read connection names")
		}
		var names []string
		for _, row := range found {
			list, err := row.StringList("connection_names")
			if err != nil {
				return nil, apperror.Internal(err, "Malformed connection_names in items")
			}
			names = append(names, list...)
		}
		return sortedUnique(names), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// StorageLocationSuggestions returns every distinct storage location, sorted.
func (r *Repository) StorageLocationSuggestions(ctx context.Context) ([]string, error) {
	v, err, _ := r.flight.Do("storage_locations", func() (any, error) {
		rows, err := r.db.QueryContext(ctx,
			"SELECT DISTINCT storage_location FROM items WHERE storage_location IS NOT NULL AND storage_location != ''")
		if err != nil {
			return nil, apperror.Database(err, "Failed to read storage locations")
		}
		found, err := mapper.ScanRows(rows)
		if err != nil {
			return nil, apperror.Database(err, "Failed to read storage locations")
		}
		locations := make([]string, 0, len(found))
		for _, row := range found {
			locations = append(locations, row.Text("storage_location"))
		}
		return sortedUnique(locations), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func sortedUnique(list []string) []string {
	sort.Strings(list)
	out := slices.Compact(list)
	if out == nil {
		return []string{}
	}
	return out
}

func (r *Repository) fetch(ctx context.Context, q database.Querier, where string, args ...any) ([]Item, error) {
	return r.query(ctx, q, "SELECT "+itemColumns+" FROM items"+where, args...)
}

func (r *Repository) query(ctx context.Context, q database.Querier, stmt string, args ...any) ([]Item, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to query items")
	}
	found, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read items")
	}
	return itemsFromRows(found)
}

func (r *Repository) requireContainer(ctx context.Context, id string) error {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM containers WHERE id = "+r.db.Dialect().Placeholder(1), id).Scan(&n)
	if err != nil {
		return apperror.Database(err, "Failed to look up container %s", id)
	}
	if n == 0 {
		return apperror.BadRequest("Container %s does not exist", id)
	}
	return nil
}

// rejectContainerLabel enforces that items and containers never share an id.
func (r *Repository) rejectContainerLabel(ctx context.Context, label string) error {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM containers WHERE id = "+r.db.Dialect().Placeholder(1), label).Scan(&n)
	if err != nil {
		return apperror.Database(err, "Failed to check label %s", label)
	}
	if n > 0 {
		return apperror.Conflict("Label ID %s is already used by a container", label)
	}
	return nil
}
