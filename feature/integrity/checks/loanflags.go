package checks

import (
	"context"
	"strconv"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
)

// Repairs proposed by the checks in this package.
const (
	ActionSetOnLoan    reconcile.ActionType = "set_on_loan"
	ActionClearOnLoan  reconcile.ActionType = "clear_on_loan"
	ActionRaiseCounter reconcile.ActionType = "raise_counter"
)

// LoanFlags verifies that items.is_on_loan is true exactly when the item has
// an unreturned loan.
type LoanFlags struct {
	db database.Querier
}

// NewLoanFlags creates the loan flag check.
func NewLoanFlags(db database.Querier) *LoanFlags {
	return &LoanFlags{db: db}
}

func (c *LoanFlags) Name() string { return "loan_flags" }

func (c *LoanFlags) Inspect(ctx context.Context) ([]reconcile.Finding, []reconcile.Action, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT i.id, i.is_on_loan, COUNT(l.id) AS active FROM items i "+
			"LEFT JOIN loans l ON l.item_id = i.id AND l.return_date IS NULL "+
			"GROUP BY i.id, i.is_on_loan ORDER BY i.id")
	if err != nil {
		return nil, nil, apperror.Database(err, "Failed to read loan flags")
	}
	list, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, nil, apperror.Database(err, "Failed to read loan flags")
	}

	var findings []reconcile.Finding
	var actions []reconcile.Action
	for _, row := range list {
		flagged := row.Bool("is_on_loan")
		active := row.Int64("active") > 0
		if flagged == active {
			continue
		}
		key := strconv.FormatInt(row.Int64("id"), 10)
		if active {
			findings = append(findings, reconcile.Finding{Check: c.Name(), Key: key, Problem: "item has an active loan but is not flagged on loan"})
			actions = append(actions, reconcile.Action{Type: ActionSetOnLoan, Key: key, Reason: "active loan exists"})
		} else {
			findings = append(findings, reconcile.Finding{Check: c.Name(), Key: key, Problem: "item is flagged on loan without an active loan"})
			actions = append(actions, reconcile.Action{Type: ActionClearOnLoan, Key: key, Reason: "no active loan"})
		}
	}
	return findings, actions, nil
}
