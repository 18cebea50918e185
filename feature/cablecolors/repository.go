package cablecolors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/metrics"
	"github.com/sohosai/hyperdashi-server/core/query"
)

var sortColumns = query.SortColumns{"created_at": "created_at"}

// Repository is the facade over the cable_colors table.
type Repository struct {
	db      database.Database
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRepository creates a cable colors repository. m may be nil.
func NewRepository(db database.Database, logger *zap.Logger, m *metrics.Metrics) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger, metrics: m}
}

func (r *Repository) observe(op string, start time.Time, err *error) {
	r.metrics.ObserveOperation("cable_colors", op, start, *err)
}

func (r *Repository) Create(ctx context.Context, req CreateRequest) (cc *CableColor, err error) {
	defer r.observe("create", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	d := r.db.Dialect()
	now := d.TimeArg(time.Now())
	stmt, args := query.Insert(d, "cable_colors",
		[]string{"name", "hex_code", "description", "created_at", "updated_at"},
		[]any{req.Name, req.HexCode, req.Description, now, now},
	)
	id, err := d.InsertReturningID(ctx, r.db, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to create cable color")
	}
	return r.Get(ctx, id)
}

func (r *Repository) Get(ctx context.Context, id int64) (*CableColor, error) {
	found, err := r.query(ctx, "SELECT "+columns+" FROM cable_colors WHERE id = "+r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("Cable color with id %d not found", id)
	}
	return &found[0], nil
}

// List returns one page, newest first.
func (r *Repository) List(ctx context.Context, page query.Page) (res *ListResult, err error) {
	defer r.observe("list", time.Now(), &err)

	page = page.Normalize()
	sel := query.Select{
		Dialect:  r.db.Dialect(),
		Base:     "SELECT " + columns + " FROM cable_colors",
		Columns:  sortColumns,
		Sort:     query.SortSpec{Key: "created_at", Order: "desc"},
		Tiebreak: "id",
		Page:     page,
	}

	var (
		list  []CableColor
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stmt, args := sel.SQL()
		var err error
		list, err = r.query(gctx, stmt, args...)
		return err
	})
	g.Go(func() error {
		stmt, args := sel.CountSQL()
		if err := r.db.QueryRowContext(gctx, stmt, args...).Scan(&total); err != nil {
			return apperror.Database(err, "Failed to count cable colors")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ListResult{
		CableColors: list,
		Total:       total,
		Page:        page.Page,
		PerPage:     page.PerPage,
		TotalPages:  query.TotalPages(total, page.PerPage),
	}, nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (cc *CableColor, err error) {
	defer r.observe("update", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	u := query.NewUpdate(r.db.Dialect(), "cable_colors")
	query.SetOpt(u, "name", req.Name)
	query.SetOpt(u, "hex_code", req.HexCode)
	query.SetOpt(u, "description", req.Description)
	stmt, args, err := u.Touch("updated_at", time.Now()).Build("id", id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to update cable color %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("Cable color with id %d not found", id)
	}
	return r.Get(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id int64) (err error) {
	defer r.observe("delete", time.Now(), &err)

	res, err := r.db.ExecContext(ctx, "DELETE FROM cable_colors WHERE id = "+r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return apperror.Database(err, "Failed to delete cable color %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("Cable color with id %d not found", id)
	}
	r.logger.Info("Cable color deleted", zap.Int64("id", id))
	return nil
}

func (r *Repository) query(ctx context.Context, stmt string, args ...any) ([]CableColor, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to query cable colors")
	}
	found, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read cable colors")
	}
	out := make([]CableColor, 0, len(found))
	for _, row := range found {
		out = append(out, fromRow(row))
	}
	return out, nil
}
