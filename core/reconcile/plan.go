package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type checkResult struct {
	findings []Finding
	actions  []Action
}

// BuildPlan runs checks concurrently and merges their output in the order
// the checks were given. It does NOT execute actions; use ApplyPlan for that.
func BuildPlan(ctx context.Context, checks ...Check) (*Plan, error) {
	results := make([]checkResult, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			findings, actions, err := c.Inspect(gctx)
			if err != nil {
				return fmt.Errorf("check %s: %w", c.Name(), err)
			}
			results[i] = checkResult{findings: findings, actions: actions}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &Plan{
		Findings: []Finding{},
		Actions:  []Action{},
		Summary:  Summary{Checks: len(checks), ByCheck: make(map[string]int, len(checks))},
	}
	for i, c := range checks {
		plan.Findings = append(plan.Findings, results[i].findings...)
		plan.Actions = append(plan.Actions, results[i].actions...)
		plan.Summary.ByCheck[c.Name()] += len(results[i].findings)
	}
	plan.Summary.Findings = len(plan.Findings)
	plan.Summary.Actions = len(plan.Actions)
	return plan, nil
}

// ApplyPlan executes the actions in plan and returns how many ran.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, m Mutator, plan *Plan, opts Options) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun || plan == nil {
		return 0, nil
	}

	var order []ActionType
	groups := make(map[ActionType][]Action)
	for _, a := range plan.Actions {
		if _, seen := groups[a.Type]; !seen {
			order = append(order, a.Type)
		}
		groups[a.Type] = append(groups[a.Type], a)
	}

	batcher, canBatch := m.(BatchMutator)
	for _, t := range order {
		actions := groups[t]
		if canBatch {
			keys := make([]string, len(actions))
			for i, a := range actions {
				keys[i] = a.Key
			}
			if err := batcher.ApplyBatch(ctx, t, keys); err != nil {
				return executed, fmt.Errorf("failed to apply %s batch: %w", t, err)
			}
			executed += len(actions)
			continue
		}
		for _, a := range actions {
			if err := m.Apply(ctx, a); err != nil {
				return executed, fmt.Errorf("failed to apply %s for key %s: %w", t, a.Key, err)
			}
			executed++
		}
	}
	return executed, nil
}

// BuildAndApply plans and, when opts allow, applies in one call.
func BuildAndApply(ctx context.Context, m Mutator, opts Options, checks ...Check) (*Plan, int, error) {
	plan, err := BuildPlan(ctx, checks...)
	if err != nil {
		return nil, 0, err
	}
	executed, err := ApplyPlan(ctx, m, plan, opts)
	return plan, executed, err
}
