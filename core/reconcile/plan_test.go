package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	name     string
	findings []Finding
	actions  []Action
	err      error
}

func (c stubCheck) Name() string { return c.name }

func (c stubCheck) Inspect(context.Context) ([]Finding, []Action, error) {
	return c.findings, c.actions, c.err
}

type mockMutator struct {
	applied []Action
	failOn  string
}

func (m *mockMutator) Apply(_ context.Context, a Action) error {
	if a.Key == m.failOn {
		return errors.New("boom")
	}
	m.applied = append(m.applied, a)
	return nil
}

type mockBatchMutator struct {
	mockMutator
	batches map[ActionType][]string
	calls   int
}

func (m *mockBatchMutator) ApplyBatch(_ context.Context, t ActionType, keys []string) error {
	m.calls++
	m.batches[t] = append(m.batches[t], keys...)
	return nil
}

func samplePlan(t *testing.T) *Plan {
	t.Helper()
	plan, err := BuildPlan(context.Background(),
		stubCheck{
			name:     "flags",
			findings: []Finding{{Check: "flags", Key: "1", Problem: "p"}, {Check: "flags", Key: "2", Problem: "p"}},
			actions:  []Action{{Type: "set", Key: "1"}, {Type: "clear", Key: "2"}, {Type: "set", Key: "3"}},
		},
		stubCheck{name: "schema"},
		stubCheck{
			name:     "counter",
			findings: []Finding{{Check: "counter", Key: "0042", Problem: "p"}},
			actions:  []Action{{Type: "raise", Key: "42"}},
		},
	)
	require.NoError(t, err)
	return plan
}

func TestBuildPlan(t *testing.T) {
	plan := samplePlan(t)

	assert.Equal(t, 3, plan.Summary.Checks)
	assert.Equal(t, 3, plan.Summary.Findings)
	assert.Equal(t, 4, plan.Summary.Actions)
	assert.Equal(t, map[string]int{"flags": 2, "schema": 0, "counter": 1}, plan.Summary.ByCheck)
	assert.False(t, plan.Summary.Clean())
	// Output follows check order, not completion order.
	assert.Equal(t, "flags", plan.Findings[0].Check)
	assert.Equal(t, "counter", plan.Findings[2].Check)
}

func TestBuildPlan_Empty(t *testing.T) {
	plan, err := BuildPlan(context.Background(), stubCheck{name: "a"})
	require.NoError(t, err)
	assert.True(t, plan.Summary.Clean())
	assert.NotNil(t, plan.Findings)
	assert.NotNil(t, plan.Actions)
}

func TestBuildPlan_CheckError(t *testing.T) {
	_, err := BuildPlan(context.Background(), stubCheck{name: "ok"}, stubCheck{name: "bad", err: errors.New("db down")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check bad")
}

func TestApplyPlan_RequiresConfirmation(t *testing.T) {
	plan := samplePlan(t)
	m := &mockMutator{}

	for _, opts := range []Options{{}, {DryRun: true}, {DryRun: true, Confirmed: true}} {
		n, err := ApplyPlan(context.Background(), m, plan, opts)
		assert.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Empty(t, m.applied)
}

func TestApplyPlan_OneAtATime(t *testing.T) {
	plan := samplePlan(t)
	m := &mockMutator{}

	n, err := ApplyPlan(context.Background(), m, plan, Options{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	// Grouped by type in first-seen order.
	keys := make([]string, len(m.applied))
	for i, a := range m.applied {
		keys[i] = string(a.Type) + ":" + a.Key
	}
	assert.Equal(t, []string{"set:1", "set:3", "clear:2", "raise:42"}, keys)
}

func TestApplyPlan_UsesBatches(t *testing.T) {
	plan := samplePlan(t)
	m := &mockBatchMutator{batches: map[ActionType][]string{}}

	n, err := ApplyPlan(context.Background(), m, plan, Options{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 3, m.calls)
	assert.Equal(t, []string{"1", "3"}, m.batches["set"])
	assert.Empty(t, m.applied, "should not fall back to single applies")
}

func TestApplyPlan_StopsOnError(t *testing.T) {
	plan := samplePlan(t)
	m := &mockMutator{failOn: "3"}

	n, err := ApplyPlan(context.Background(), m, plan, Options{Confirmed: true})
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "key 3")
}
