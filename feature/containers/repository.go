package containers

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/metrics"
	"github.com/sohosai/hyperdashi-server/core/query"
)

// Repository is the facade over the containers table.
type Repository struct {
	db      database.Database
	labels  *labels.Allocator
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRepository creates a containers repository. m may be nil.
func NewRepository(db database.Database, alloc *labels.Allocator, logger *zap.Logger, m *metrics.Metrics) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, labels: alloc, logger: logger, metrics: m}
}

func (r *Repository) observe(op string, start time.Time, err *error) {
	r.metrics.ObserveOperation("containers", op, start, *err)
}

// occupiedBy is the join and guard condition for items stored in a
// container that still count as present.
func occupiedBy(d database.Dialect, item, container string) string {
	return item + ".container_id = " + container + " AND " + item + ".storage_type = 'container' AND " +
		d.BoolExpr(item+".is_disposed") + " = " + d.BoolLiteral(false)
}

// Create draws a label for the new container and inserts it.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (c *Container, err error) {
	defer r.observe("create", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	d := r.db.Dialect()
	id, err := r.freeLabel(ctx, d)
	if err != nil {
		return nil, err
	}

	now := d.TimeArg(time.Now())
	stmt, args := query.Insert(d, "containers",
		[]string{"id", "name", "description", "location", "image_url", "is_disposed", "created_at", "updated_at"},
		[]any{id, req.Name, req.Description, req.Location, req.ImageURL, d.BoolArg(false), now, now},
	)
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		if d.IsUniqueViolation(err) {
			return nil, apperror.Conflict("Container %s already exists", id)
		}
		return nil, apperror.Database(err, "Failed to create container")
	}

	r.logger.Info("Container created", zap.String("id", id))
	return r.Get(ctx, id)
}

// maxLabelAttempts bounds how many labels Create draws past ones that items
// were given by hand.
const maxLabelAttempts = 5

// freeLabel draws labels until one is not held by an item. Skipped labels
// stay consumed.
func (r *Repository) freeLabel(ctx context.Context, d database.Dialect) (string, error) {
	var id string
	for range maxLabelAttempts {
		codes, err := r.labels.Allocate(ctx, 1)
		if err != nil {
			return "", err
		}
		id = codes[0]

		var taken int64
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM items WHERE label_id = "+d.Placeholder(1), id).Scan(&taken); err != nil {
			return "", apperror.Database(err, "Failed to check label %s", id)
		}
		if taken == 0 {
			return id, nil
		}
		r.logger.Warn("Skipping label held by an item", zap.String("label_id", id))
	}
	return "", apperror.Conflict("Label ID %s is already used by an item", id)
}

// Get returns the container with id.
func (r *Repository) Get(ctx context.Context, id string) (*Container, error) {
	found, err := r.query(ctx, "SELECT "+containerColumns+" FROM containers c WHERE c.id = "+
		r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("Container with id %s not found", id)
	}
	return &found[0], nil
}

// List returns one page of containers with their item counts.
func (r *Repository) List(ctx context.Context, f Filter, sortSpec query.SortSpec, page query.Page) (res *ListResult, err error) {
	defer r.observe("list", time.Now(), &err)

	d := r.db.Dialect()
	page = page.Normalize()
	preds := []query.Predicate{query.Search(f.Search, "c.id", "c.name", "c.description")}
	if !f.IncludeDisposed {
		preds = append(preds, query.Bool("c.is_disposed", false))
	}
	if f.Location != nil {
		preds = append(preds, query.Eq("c.location", *f.Location))
	}

	sel := query.Select{
		Dialect: d,
		Base: "SELECT " + containerColumns + ", COUNT(i.id) AS item_count FROM containers c " +
			"LEFT JOIN items i ON " + occupiedBy(d, "i", "c.id"),
		Where:    preds,
		GroupBy:  containerColumns,
		Columns:  sortColumns,
		Sort:     sortSpec,
		Tiebreak: "c.id",
		Page:     page,
	}

	var (
		list  []WithItemCount
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stmt, args := sel.SQL()
		rows, err := r.db.QueryContext(gctx, stmt, args...)
		if err != nil {
			return apperror.Database(err, "Failed to query containers")
		}
		found, err := mapper.ScanRows(rows)
		if err != nil {
			return apperror.Database(err, "Failed to read containers")
		}
		list = make([]WithItemCount, 0, len(found))
		for _, row := range found {
			list = append(list, WithItemCount{Container: containerFromRow(row), ItemCount: row.Int64("item_count")})
		}
		return nil
	})
	g.Go(func() error {
		stmt, args := sel.CountSQL()
		if err := r.db.QueryRowContext(gctx, stmt, args...).Scan(&total); err != nil {
			return apperror.Database(err, "Failed to count containers")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ListResult{
		Containers: list,
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: query.TotalPages(total, page.PerPage),
	}, nil
}

// ByLocation returns the non-disposed containers at location, by name.
func (r *Repository) ByLocation(ctx context.Context, location string) ([]Container, error) {
	d := r.db.Dialect()
	where, args := query.Where(d, query.Eq("c.location", location), query.Bool("c.is_disposed", false))
	return r.query(ctx, "SELECT "+containerColumns+" FROM containers c"+where+" ORDER BY c.name ASC, c.id ASC", args...)
}

// Update applies the fields set in req. Disposing a container is guarded
// the same way as BulkSetDisposed.
func (r *Repository) Update(ctx context.Context, id string, req UpdateRequest) (c *Container, err error) {
	defer r.observe("update", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := r.db.Dialect()
	u := query.NewUpdate(d, "containers")
	query.SetOpt(u, "name", req.Name)
	query.SetOpt(u, "description", req.Description)
	query.SetOpt(u, "location", req.Location)
	query.SetOpt(u, "image_url", req.ImageURL)
	if req.IsDisposed != nil {
		u.Set("is_disposed", d.BoolArg(*req.IsDisposed))
	}
	stmt, args, err := u.Touch("updated_at", time.Now()).Build("id", id)
	if err != nil {
		return nil, err
	}

	err = r.db.InTx(ctx, func(q database.Querier) error {
		if req.IsDisposed != nil && *req.IsDisposed {
			if err := r.guardOccupied(ctx, q, []string{id}); err != nil {
				return err
			}
		}
		res, err := q.ExecContext(ctx, stmt, args...)
		if err != nil {
			return apperror.Database(err, "Failed to update container %s", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("Container with id %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes an empty container.
func (r *Repository) Delete(ctx context.Context, id string) (err error) {
	defer r.observe("delete", time.Now(), &err)

	err = r.db.InTx(ctx, func(q database.Querier) error {
		if err := r.guardOccupied(ctx, q, []string{id}); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, "DELETE FROM containers WHERE id = "+r.db.Dialect().Placeholder(1), id)
		if err != nil {
			return apperror.Database(err, "Failed to delete container %s", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("Container with id %s not found", id)
		}
		return nil
	})
	if err != nil {
		r.logRejected("Container delete rejected", err, id)
		return err
	}
	r.logger.Info("Container deleted", zap.String("id", id))
	return nil
}

// BulkDelete deletes every listed container or none of them.
func (r *Repository) BulkDelete(ctx context.Context, ids []string) (err error) {
	defer r.observe("bulk_delete", time.Now(), &err)

	ids, err = normalizeIDs(ids)
	if err != nil {
		return err
	}
	d := r.db.Dialect()
	err = r.db.InTx(ctx, func(q database.Querier) error {
		if err := r.requireAll(ctx, q, ids); err != nil {
			return err
		}
		if err := r.guardOccupied(ctx, q, ids); err != nil {
			return err
		}
		where, args := query.Where(d, query.In("id", ids))
		if _, err := q.ExecContext(ctx, "DELETE FROM containers"+where, args...); err != nil {
			return apperror.Database(err, "Failed to delete containers")
		}
		return nil
	})
	if err != nil {
		r.logRejected("Bulk container delete rejected", err, ids...)
		return err
	}
	r.logger.Info("Containers bulk-deleted", zap.Strings("ids", ids))
	return nil
}

// BulkSetDisposed sets is_disposed on every listed container or none of
// them. Only disposing is guarded by occupancy.
func (r *Repository) BulkSetDisposed(ctx context.Context, ids []string, disposed bool) (err error) {
	defer r.observe("bulk_dispose", time.Now(), &err)

	ids, err = normalizeIDs(ids)
	if err != nil {
		return err
	}
	d := r.db.Dialect()
	stmt, args, err := query.NewUpdate(d, "containers").
		Set("is_disposed", d.BoolArg(disposed)).
		Touch("updated_at", time.Now()).
		BuildWhere(query.In("id", ids))
	if err != nil {
		return err
	}

	err = r.db.InTx(ctx, func(q database.Querier) error {
		if err := r.requireAll(ctx, q, ids); err != nil {
			return err
		}
		if disposed {
			if err := r.guardOccupied(ctx, q, ids); err != nil {
				return err
			}
		}
		if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
			return apperror.Database(err, "Failed to update containers")
		}
		return nil
	})
	if err != nil {
		r.logRejected("Bulk container disposal rejected", err, ids...)
		return err
	}
	r.logger.Info("Containers disposal changed", zap.Strings("ids", ids), zap.Bool("disposed", disposed))
	return nil
}

func (r *Repository) query(ctx context.Context, stmt string, args ...any) ([]Container, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to query containers")
	}
	found, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read containers")
	}
	out := make([]Container, 0, len(found))
	for _, row := range found {
		out = append(out, containerFromRow(row))
	}
	return out, nil
}

// requireAll fails with NotFound naming every id that does not exist.
func (r *Repository) requireAll(ctx context.Context, q database.Querier, ids []string) error {
	where, args := query.Where(r.db.Dialect(), query.In("id", ids))
	existing, err := r.column(ctx, q, "SELECT id FROM containers"+where, args...)
	if err != nil {
		return err
	}
	var missing []string
	for _, id := range ids {
		if !slices.Contains(existing, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperror.NotFound("Containers not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

// guardOccupied fails with Conflict when any listed container still holds
// a non-disposed item.
func (r *Repository) guardOccupied(ctx context.Context, q database.Querier, ids []string) error {
	d := r.db.Dialect()
	where, args := query.Where(d, query.In("i.container_id", ids),
		query.Raw("i.storage_type = 'container'"),
		query.Raw(d.BoolExpr("i.is_disposed")+" = "+d.BoolLiteral(false)))
	occupied, err := r.column(ctx, q, "SELECT DISTINCT i.container_id AS id FROM items i"+where, args...)
	if err != nil {
		return err
	}
	if len(occupied) > 0 {
		slices.Sort(occupied)
		return apperror.Conflict("Cannot delete or dispose containers that contain items: %s", strings.Join(occupied, ", "))
	}
	return nil
}

func (r *Repository) column(ctx context.Context, q database.Querier, stmt string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to query containers")
	}
	found, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read containers")
	}
	out := make([]string, 0, len(found))
	for _, row := range found {
		out = append(out, row.Text("id"))
	}
	return out, nil
}

func (r *Repository) logRejected(msg string, err error, ids ...string) {
	switch apperror.KindOf(err) {
	case apperror.KindConflict, apperror.KindNotFound, apperror.KindBadRequest:
		r.logger.Warn(msg, zap.Strings("ids", ids), zap.Error(err))
	}
}

func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperror.BadRequest("ids must not be empty")
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out), nil
}
