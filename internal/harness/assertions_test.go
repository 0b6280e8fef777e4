package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/ir"
	"github.com/roach88/tripleq/internal/testutil"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Step: -1, Type: "dataset_replaced", Count: 3, Final: true},
		{Seq: 2, Step: 0, Type: "count_updated", Count: 1},
		{Seq: 3, Step: 0, Type: "pattern_changed", Count: 1},
		{Seq: 4, Step: 1, Type: "count_updated", Count: 2, Final: true},
		{Seq: 5, Step: 1, Type: "count_finalized", Count: 2, Final: true},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Event: "pattern_changed"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Event: "count_updated", Count: u64(2)}))

	err := assertTraceContains(trace, Assertion{Event: "count_updated", Count: u64(5)})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Equal(t, "count_updated with count 5", ae.Expected)

	assert.Error(t, assertTraceContains(trace, Assertion{Event: TraceRow}))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name    string
		events  []string
		wantErr bool
	}{
		{"full order", []string{"dataset_replaced", "count_updated", "pattern_changed", "count_updated", "count_finalized"}, false},
		{"gaps allowed", []string{"dataset_replaced", "count_finalized"}, false},
		{"repeat needs a second occurrence", []string{"count_updated", "count_updated"}, false},
		{"wrong order", []string{"count_finalized", "pattern_changed"}, true},
		{"missing event", []string{"dataset_replaced", TraceSelected}, true},
		{"too many repeats", []string{"pattern_changed", "pattern_changed"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Events: tt.events})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Event: "count_updated", Count: u64(2)}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Event: TraceRow, Count: u64(0)}))

	err := assertTraceCount(trace, Assertion{Event: "count_updated", Count: u64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 1 occurrences of count_updated")
	assert.Contains(t, err.Error(), "Actual: 2 occurrences")
	assert.Contains(t, err.Error(), "Full trace:")
}

func newAssertionSession(t *testing.T) *engine.Session {
	t.Helper()

	m := testutil.NewMemoryStore().
		AddTerm(ir.RoleSubject, 1, "a").
		AddTerm(ir.RolePredicate, 1, "p").
		AddTerm(ir.RolePredicate, 2, "q").
		AddTerm(ir.RoleObject, 1, "b").
		AddTriple(1, 1, 1).
		AddTriple(1, 2, 1)

	s := engine.NewSession(engine.WithSessionIDGenerator(testutil.NewFixedIDGenerator("assert")))
	require.NoError(t, s.Replace(context.Background(), m))
	return s
}

func TestAssertFinalState(t *testing.T) {
	s := newAssertionSession(t)
	s.SetPredicateActive(2, false)
	s.SetSelected(ir.Triple{Subject: 1, Predicate: 1, Object: 1})

	err := assertFinalState(s, Assertion{State: &StateExpect{
		Count:            u64(2),
		Final:            boolp(true),
		Unsatisfiable:    boolp(false),
		HasDataset:       boolp(true),
		ActivePredicates: []uint64{1},
		CurrentPredicate: u64(0),
		Selected:         []uint64{1, 1, 1},
	}})
	assert.NoError(t, err)
}

func TestAssertFinalState_Mismatches(t *testing.T) {
	s := newAssertionSession(t)

	err := assertFinalState(s, Assertion{State: &StateExpect{
		Count:            u64(5),
		HasDataset:       boolp(false),
		ActivePredicates: []uint64{2},
		Selected:         []uint64{1, 1, 1},
	}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertFinalState, ae.Type)
	assert.Equal(t,
		"count = 2, want 5; has_dataset = true, want false; active_predicates = [1 2], want [2]; selected = [], want [1 1 1]",
		ae.Actual)
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Event: "count_updated", Count: u64(2)},
		{Type: AssertTraceContains, Event: TraceError},
		{Type: AssertFinalState, State: &StateExpect{Count: u64(1)}},
		{Type: "vibes"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "trace_contains")
	assert.Equal(t, "assertion[2]: final_state requires a session", errs[1])
	assert.Equal(t, `assertion[3]: unknown assertion type "vibes"`, errs[2])
}
