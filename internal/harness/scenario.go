package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tripleq/internal/queryir"
)

// Scenario defines a session test scenario.
// A scenario imports a dataset, drives a Session through a list of steps
// and asserts on the resulting event trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID is the fixed session id. Defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Dataset is imported into a fresh in-memory store.
	Dataset Dataset `yaml:"dataset"`

	// Budget bounds drain slices. Unbounded when nil.
	Budget *Budget `yaml:"budget,omitempty"`

	// BufferLimit caps the nearest-match buffer. Session default when nil.
	BufferLimit *int `yaml:"buffer_limit,omitempty"`

	// Steps run in order after the dataset is opened.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Dataset is the scenario data, given as term triples or N-Triples text.
type Dataset struct {
	// Triples lists [subject, predicate, object] term triples.
	Triples [][]string `yaml:"triples,omitempty"`

	// NTriples is an N-Triples document.
	NTriples string `yaml:"ntriples,omitempty"`

	// NoSubstringIndex imports without substring search support.
	NoSubstringIndex bool `yaml:"no_substring_index,omitempty"`
}

// Budget mirrors engine.DrainBudget. Durations are left out: traces must
// not depend on timing.
type Budget struct {
	MaxIterations int `yaml:"max_iterations"`
}

// Step is one scenario action.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Pattern is the set_pattern argument.
	Pattern *PatternArgs `yaml:"pattern,omitempty"`

	// X and Y are the select_nearest hint.
	X uint64 `yaml:"x,omitempty"`
	Y uint64 `yaml:"y,omitempty"`

	// Predicate and Active are the set_active arguments; predicate 0 sets all.
	Predicate uint64 `yaml:"predicate,omitempty"`
	Active    *bool  `yaml:"active,omitempty"`

	// Join is the join argument.
	Join *JoinArgs `yaml:"join,omitempty"`

	// Expect is checked after the step runs.
	Expect *Expect `yaml:"expect,omitempty"`
}

// PatternArgs is a textual pattern; empty terms are wildcards.
type PatternArgs struct {
	Subject   string `yaml:"subject,omitempty"`
	Predicate string `yaml:"predicate,omitempty"`
	Object    string `yaml:"object,omitempty"`
}

// JoinArgs describes a join in CLI terms.
type JoinArgs struct {
	Filter          string `yaml:"filter"` // "predicate;literal"
	Hops            int    `yaml:"hops"`
	CaseInsensitive bool   `yaml:"case_insensitive,omitempty"`
	Offset          int    `yaml:"offset,omitempty"`
	Limit           int    `yaml:"limit,omitempty"`
	Distinct        bool   `yaml:"distinct,omitempty"`
}

// Expect lists the values checked after a step. Nil fields are not checked.
type Expect struct {
	Count   *uint64 `yaml:"count,omitempty"`
	Final   *bool   `yaml:"final,omitempty"`
	Pending *int    `yaml:"pending,omitempty"`

	// Selected is the expected [subject, predicate, object] id triple.
	Selected []uint64 `yaml:"selected,omitempty"`

	// Rows are the expected join rows, as their printed fields.
	Rows [][]string `yaml:"rows,omitempty"`

	// Error is the expected query error code; the step must fail with it.
	Error string `yaml:"error,omitempty"`
}

// DefaultSessionID is the session id of scenarios that do not set one.
const DefaultSessionID = "test-session-default"

// Step actions.
const (
	ActionSetPattern    = "set_pattern"
	ActionRunPending    = "run_pending" // one queued drain slice
	ActionAdvanceAll    = "advance_all" // every queued drain slice
	ActionSelectNearest = "select_nearest"
	ActionSetActive     = "set_active"
	ActionJoin          = "join"
	ActionClose         = "close"
	ActionReopen        = "reopen"
)

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is the event type name (used by trace_contains and trace_count).
	Event string `yaml:"event,omitempty"`

	// Count is the expected occurrences (trace_count) or the expected
	// event count value (trace_contains).
	Count *uint64 `yaml:"count,omitempty"`

	// Events is the expected order of event types (trace_order).
	Events []string `yaml:"events,omitempty"`

	// State is the expected final session state (final_state).
	State *StateExpect `yaml:"state,omitempty"`
}

// StateExpect is the final_state expectation. Nil fields are not checked.
type StateExpect struct {
	Count            *uint64  `yaml:"count,omitempty"`
	Final            *bool    `yaml:"final,omitempty"`
	Unsatisfiable    *bool    `yaml:"unsatisfiable,omitempty"`
	HasDataset       *bool    `yaml:"has_dataset,omitempty"`
	ActivePredicates []uint64 `yaml:"active_predicates,omitempty"`
	CurrentPredicate *uint64  `yaml:"current_predicate,omitempty"`
	Selected         []uint64 `yaml:"selected,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.SessionID == "" {
		scenario.SessionID = DefaultSessionID
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Dataset.Triples) > 0 && s.Dataset.NTriples != "" {
		return fmt.Errorf("dataset: use triples or ntriples, not both")
	}
	for i, t := range s.Dataset.Triples {
		if len(t) != 3 {
			return fmt.Errorf("dataset.triples[%d]: want 3 terms, got %d", i, len(t))
		}
	}

	if s.Budget != nil && s.Budget.MaxIterations < 0 {
		return fmt.Errorf("budget.max_iterations must be non-negative")
	}
	if s.BufferLimit != nil && *s.BufferLimit < 0 {
		return fmt.Errorf("buffer_limit must be non-negative")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Action {
	case ActionSetPattern:
		if step.Pattern == nil {
			return fmt.Errorf("steps[%d]: pattern is required for set_pattern", index)
		}
	case ActionSetActive:
		if step.Active == nil {
			return fmt.Errorf("steps[%d]: active is required for set_active", index)
		}
	case ActionJoin:
		if step.Join == nil {
			return fmt.Errorf("steps[%d]: join is required for join", index)
		}
		if _, err := step.Join.query(); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case ActionRunPending, ActionAdvanceAll, ActionSelectNearest, ActionClose, ActionReopen:
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, step.Action)
	}

	if step.Expect != nil && step.Expect.Selected != nil && len(step.Expect.Selected) != 3 {
		return fmt.Errorf("steps[%d].expect: selected must be [subject, predicate, object]", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for trace_count", index)
		}
	case AssertFinalState:
		if a.State == nil {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// query converts the join arguments to a validated Join.
func (j *JoinArgs) query() (queryir.Join, error) {
	q, err := queryir.ParseFilter(j.Filter, j.Hops)
	if err != nil {
		return queryir.Join{}, err
	}
	q.CaseInsensitive = j.CaseInsensitive
	q.Offset = j.Offset
	q.Limit = j.Limit
	q.Distinct = j.Distinct
	return q, nil
}
