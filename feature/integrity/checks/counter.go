package checks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
)

// CounterReader reads the last issued label value.
type CounterReader interface {
	Current(ctx context.Context) (int64, error)
}

// LabelCounter verifies the counter is at or beyond every label already in
// use, so the allocator never hands out a taken label.
type LabelCounter struct {
	db      database.Querier
	counter CounterReader
}

// NewLabelCounter creates the label counter check.
func NewLabelCounter(db database.Querier, counter CounterReader) *LabelCounter {
	return &LabelCounter{db: db, counter: counter}
}

func (c *LabelCounter) Name() string { return "label_counter" }

func (c *LabelCounter) Inspect(ctx context.Context) ([]reconcile.Finding, []reconcile.Action, error) {
	current, err := c.counter.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT label_id AS code FROM items WHERE LENGTH(label_id) = 4 "+
			"UNION SELECT id AS code FROM containers WHERE LENGTH(id) = 4")
	if err != nil {
		return nil, nil, apperror.Database(err, "Failed to read labels in use")
	}
	list, err := mapper.ScanRows(rows)
	if err != nil {
		return nil, nil, apperror.Database(err, "Failed to read labels in use")
	}

	var highest int64
	for _, row := range list {
		n, err := labels.Decode(row.Text("code"))
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	if highest <= current {
		return nil, nil, nil
	}

	code := labels.Encode(highest)
	finding := reconcile.Finding{
		Check:   c.Name(),
		Key:     code,
		Problem: fmt.Sprintf("label counter %d is behind label %s in use", current, code),
	}
	action := reconcile.Action{
		Type:   ActionRaiseCounter,
		Key:    strconv.FormatInt(highest, 10),
		Reason: "counter would reissue a label in use",
	}
	return []reconcile.Finding{finding}, []reconcile.Action{action}, nil
}
