package loans

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/metrics"
	"github.com/sohosai/hyperdashi-server/core/query"
)

var sortColumns = query.SortColumns{"created_at": "l.created_at"}

// Repository is the facade over the loans table. Every write that touches
// a loan also keeps items.is_on_loan in step within the same transaction.
type Repository struct {
	db      database.Database
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRepository creates a loans repository. m may be nil.
func NewRepository(db database.Database, logger *zap.Logger, m *metrics.Metrics) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger, metrics: m}
}

func (r *Repository) observe(op string, start time.Time, err *error) {
	r.metrics.ObserveOperation("loans", op, start, *err)
}

// Create lends an item that is neither on loan nor disposed.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (loan *WithItem, err error) {
	defer r.observe("create", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := r.db.Dialect()
	var id int64
	err = r.db.InTx(ctx, func(q database.Querier) error {
		var onLoan, disposed any
		err := q.QueryRowContext(ctx,
			"SELECT is_on_loan, is_disposed FROM items WHERE id = "+d.Placeholder(1)+d.ForUpdate(),
			req.ItemID).Scan(&onLoan, &disposed)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("Item with id %d not found", req.ItemID)
		}
		if err != nil {
			return apperror.Database(err, "Failed to read item %d", req.ItemID)
		}
		if mapper.Bool(onLoan) {
			return apperror.Conflict("Item is already on loan")
		}
		if mapper.Bool(disposed) {
			return apperror.Conflict("Cannot loan a disposed item")
		}

		now := d.TimeArg(time.Now())
		stmt, args := query.Insert(d, "loans",
			[]string{"item_id", "student_number", "student_name", "organization", "loan_date", "remarks", "created_at", "updated_at"},
			[]any{req.ItemID, req.StudentNumber, req.StudentName, req.Organization, now, req.Remarks, now, now},
		)
		id, err = d.InsertReturningID(ctx, q, stmt, args...)
		if err != nil {
			if d.IsUniqueViolation(err) {
				return apperror.Conflict("Item is already on loan")
			}
			return apperror.Database(err, "Failed to create loan")
		}

		return setOnLoan(ctx, q, d, req.ItemID, true)
	})
	if err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			r.logger.Warn("Loan rejected", zap.Int64("item_id", req.ItemID), zap.Error(err))
		}
		return nil, err
	}

	r.logger.Info("Loan created",
		zap.Int64("id", id),
		zap.Int64("item_id", req.ItemID),
		zap.String("student_number", req.StudentNumber))
	return r.Get(ctx, id)
}

// Return closes an active loan and releases its item.
func (r *Repository) Return(ctx context.Context, id int64, req ReturnRequest) (loan *WithItem, err error) {
	defer r.observe("return", time.Now(), &err)

	d := r.db.Dialect()
	returnDate := time.Now()
	if req.ReturnDate != nil {
		returnDate = *req.ReturnDate
	}

	var itemID int64
	err = r.db.InTx(ctx, func(q database.Querier) error {
		var returned any
		err := q.QueryRowContext(ctx,
			"SELECT item_id, return_date FROM loans WHERE id = "+d.Placeholder(1)+d.ForUpdate(), id).
			Scan(&itemID, &returned)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("Loan with id %d not found", id)
		}
		if err != nil {
			return apperror.Database(err, "Failed to read loan %d", id)
		}
		if returned != nil {
			return apperror.Conflict("Loan has already been returned")
		}

		u := query.NewUpdate(d, "loans").Set("return_date", d.TimeArg(returnDate))
		query.SetOpt(u, "remarks", req.Remarks)
		stmt, args, err := u.Touch("updated_at", time.Now()).Build("id", id)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
			return apperror.Database(err, "Failed to return loan %d", id)
		}

		return setOnLoan(ctx, q, d, itemID, false)
	})
	if err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			r.logger.Warn("Loan return rejected", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}

	r.logger.Info("Loan returned", zap.Int64("id", id), zap.Int64("item_id", itemID))
	return r.Get(ctx, id)
}

func setOnLoan(ctx context.Context, q database.Querier, d database.Dialect, itemID int64, onLoan bool) error {
	stmt, args, err := query.NewUpdate(d, "items").
		Set("is_on_loan", d.BoolArg(onLoan)).
		Touch("updated_at", time.Now()).
		Build("id", itemID)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
		return apperror.Database(err, "Failed to update loan state of item %d", itemID)
	}
	return nil
}

// Get returns a loan with its item's name and label.
func (r *Repository) Get(ctx context.Context, id int64) (*WithItem, error) {
	found, err := r.query(ctx, "SELECT "+loanColumns+loanFrom+" WHERE l.id = "+r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("Loan with id %d not found", id)
	}
	return &found[0], nil
}

// List returns one page of loans, newest first.
func (r *Repository) List(ctx context.Context, f Filter, page query.Page) (res *ListResult, err error) {
	defer r.observe("list", time.Now(), &err)

	page = page.Normalize()
	var preds []query.Predicate
	if f.ItemID != nil {
		preds = append(preds, query.Eq("l.item_id", *f.ItemID))
	}
	if f.StudentNumber != nil {
		preds = append(preds, query.Eq("l.student_number", *f.StudentNumber))
	}
	if f.ActiveOnly != nil {
		if *f.ActiveOnly {
			preds = append(preds, query.IsNull("l.return_date"))
		} else {
			preds = append(preds, query.NotNull("l.return_date"))
		}
	}

	sel := query.Select{
		Dialect:  r.db.Dialect(),
		Base:     "SELECT " + loanColumns + loanFrom,
		Where:    preds,
		Columns:  sortColumns,
		Sort:     query.SortSpec{Key: "created_at", Order: "desc"},
		Tiebreak: "l.id",
		Page:     page,
	}

	var (
		list  []WithItem
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
			return apperror.Database(err, "Failed to count loans")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ListResult{
		Loans:      list,
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: query.TotalPages(total, page.PerPage),
	}, nil
}

func (r *Repository) query(ctx context.Context, stmt string, args ...any) ([]WithItem, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperror.Database(err, "Failed to query loans")
	}
	found, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, apperror.Database(err, "Failed to read loans")
	}
	out := make([]WithItem, 0, len(found))
	for _, row := range found {
		out = append(out, loanFromRow(row))
	}
	return out, nil
}
