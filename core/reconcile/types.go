package reconcile

import "context"

// ActionType names a repair a Mutator knows how to perform.
type ActionType string

// Action is one planned mutation.
type Action struct {
	// Type selects the repair.
	Type ActionType `json:"type"`

	// Key identifies the row the repair applies to.
	Key string `json:"key"`

	// Reason explains why the action is needed.
	Reason string `json:"reason"`
}

// Finding is one violation reported by a Check.
type Finding struct {
	Check   string `json:"check"`
	Key     string `json:"key"`
	Problem string `json:"problem"`
}

// Check inspects one invariant.
type Check interface {
	// Name identifies the check in findings and summaries.
	Name() string

	// Inspect returns the violations found and the actions that would fix
	// them. Either slice may be empty.
	Inspect(ctx context.Context) ([]Finding, []Action, error)
}

// Mutator applies single actions.
type Mutator interface {
	Apply(ctx context.Context, action Action) error
}

// BatchMutator applies every key of one action type in a single call.
type BatchMutator interface {
	Mutator
	ApplyBatch(ctx context.Context, t ActionType, keys []string) error
}

// Plan is the merged output of a set of checks.
type Plan struct {
	Findings []Finding `json:"findings"`
	Actions  []Action  `json:"actions"`
	Summary  Summary   `json:"summary"`
}

// Summary provides aggregate counts for a plan.
type Summary struct {
	// Checks is the number of checks that ran.
	Checks int `json:"checks"`

	// Findings counts violations across all checks.
	Findings int `json:"findings"`

	// ByCheck counts violations per check name. Checks that found nothing
	// are present with 0.
	ByCheck map[string]int `json:"by_check"`

	// Actions counts planned repairs.
	Actions int `json:"actions"`
}

// Clean reports whether no check found anything.
func (s Summary) Clean() bool {
	return s.Findings == 0
}

// Options controls whether ApplyPlan mutates anything.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Confirmed indicates the caller accepted the plan. If false, nothing
	// executes regardless of DryRun.
	Confirmed bool
}
