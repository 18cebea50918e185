// Package reconcile plans and applies repairs for data that drifted away
// from its invariants.
//
// A run has two phases. BuildPlan runs every Check concurrently and merges
// their findings and proposed actions into one Plan. ApplyPlan executes the
// actions through a Mutator, but only when the caller confirmed the plan and
// did not ask for a dry run.
//
// # Checks
//
// A Check inspects one invariant and returns what it found plus the actions
// that would repair it. A check that can only report (schema drift, for
// instance) returns findings without actions.
//
// # Mutators
//
// ApplyPlan groups actions by type in first-seen order. When the mutator
// also implements BatchMutator each group is applied with one call;
// otherwise actions are applied one at a time.
package reconcile
