package integrity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/query"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
	"github.com/sohosai/hyperdashi-server/feature/integrity/checks"
)

// Repairer applies the actions planned by the checks package.
type Repairer struct {
	db database.Database
}

var _ reconcile.BatchMutator = (*Repairer)(nil)

// NewRepairer creates a repairer writing through db.
func NewRepairer(db database.Database) *Repairer {
	return &Repairer{db: db}
}

// Apply executes a single action.
func (r *Repairer) Apply(ctx context.Context, action reconcile.Action) error {
	return r.ApplyBatch(ctx, action.Type, []string{action.Key})
}

// ApplyBatch executes every key of one action type in one transaction.
func (r *Repairer) ApplyBatch(ctx context.Context, t reconcile.ActionType, keys []string) error {
	switch t {
	case checks.ActionSetOnLoan:
		return r.setOnLoan(ctx, keys, true)
	case checks.ActionClearOnLoan:
		return r.setOnLoan(ctx, keys, false)
	case checks.ActionRaiseCounter:
		return r.raiseCounter(ctx, keys)
	default:
		return fmt.Errorf("unknown repair action %q", t)
	}
}

func (r *Repairer) setOnLoan(ctx context.Context, keys []string, onLoan bool) error {
	ids, err := parseIDs(keys)
	if err != nil {
		return err
	}
	d := r.db.Dialect()
	stmt, args, err := query.NewUpdate(d, "items").
		Set("is_on_loan", d.BoolArg(onLoan)).
		Touch("updated_at", time.Now()).
		BuildWhere(query.In("id", ids))
	if err != nil {
		return err
	}
	return r.db.InTx(ctx, func(q database.Querier) error {
		if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
			return apperror.Database(err, "Failed to repair loan flags")
		}
		return nil
	})
}

// raiseCounter moves the counter forward to the largest key. It never moves
// the counter backwards, even if labels were issued since the plan was built.
func (r *Repairer) raiseCounter(ctx context.Context, keys []string) error {
	var target int64
	for _, k := range keys {
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return apperror.BadRequest("Invalid counter value %q", k)
		}
		target = max(target, n)
	}
	d := r.db.Dialect()
	_, err := r.db.ExecContext(ctx,
		"UPDATE label_counter SET current_value = "+d.Placeholder(1)+
			" WHERE id = 1 AND current_value < "+d.Placeholder(2), target, target)
	if err != nil {
		return apperror.Database(err, "Failed to raise label counter")
	}
	return nil
}

func parseIDs(keys []string) ([]int64, error) {
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, apperror.BadRequest("Invalid item id %q", k)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
