package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step=%d %s count=%d final=%t\n",
				event.Seq, event.Step, event.Type, event.Count, event.Final)
		}
	}

	return buf.String()
}

// assertTraceContains checks that an event of the given type is in the
// trace, carrying the given count when one is specified.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type != assertion.Event {
			continue
		}
		if assertion.Count == nil || event.Count == *assertion.Count {
			return nil
		}
	}

	expected := assertion.Event
	if assertion.Count != nil {
		expected = fmt.Sprintf("%s with count %d", assertion.Event, *assertion.Count)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the event types appear as a subsequence of
// the trace. Intervening events are allowed and a type may repeat.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Events) && event.Type == assertion.Events[next] {
			next++
		}
	}

	if next < len(assertion.Events) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("events in order: %v", assertion.Events),
			Actual:   fmt.Sprintf("matched %v, missing %s", assertion.Events[:next], assertion.Events[next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that the event type appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == assertion.Event {
			count++
		}
	}

	if uint64(count) != *assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState compares the session state with the expectation.
// Every mismatch is listed in Actual.
func assertFinalState(s *engine.Session, assertion Assertion) error {
	want := assertion.State
	state := s.State()

	var diffs []string
	mismatch := func(field string, got, want any) {
		diffs = append(diffs, fmt.Sprintf("%s = %v, want %v", field, got, want))
	}

	if want.Count != nil && state.Count != *want.Count {
		mismatch("count", state.Count, *want.Count)
	}
	if want.Final != nil && state.Final != *want.Final {
		mismatch("final", state.Final, *want.Final)
	}
	if want.Unsatisfiable != nil && state.Unsatisfiable != *want.Unsatisfiable {
		mismatch("unsatisfiable", state.Unsatisfiable, *want.Unsatisfiable)
	}
	if want.HasDataset != nil && s.HasDataset() != *want.HasDataset {
		mismatch("has_dataset", s.HasDataset(), *want.HasDataset)
	}
	if want.ActivePredicates != nil {
		got := idsToUint64(s.ActivePredicates())
		if !slices.Equal(got, want.ActivePredicates) {
			mismatch("active_predicates", got, want.ActivePredicates)
		}
	}
	if want.CurrentPredicate != nil && uint64(s.CurrentPredicate()) != *want.CurrentPredicate {
		mismatch("current_predicate", s.CurrentPredicate(), *want.CurrentPredicate)
	}
	if want.Selected != nil {
		var got []uint64
		if t, ok := s.Selected(); ok {
			got = []uint64{uint64(t.Subject), uint64(t.Predicate), uint64(t.Object)}
		}
		if !slices.Equal(got, want.Selected) {
			mismatch("selected", got, want.Selected)
		}
	}

	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: "state to match",
		Actual:   strings.Join(diffs, "; "),
	}
}

func idsToUint64(ids []ir.ID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The session answers final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, s *engine.Session) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if s == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a session", i)
			} else {
				err = assertFinalState(s, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
