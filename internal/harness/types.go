package harness

import "github.com/roach88/tripleq/internal/ir"

// Trace event types beyond the session event names.
const (
	TraceRow      = "row"      // one join row
	TraceSelected = "selected" // select_nearest result
	TraceError    = "error"    // a step failed with a query error
)

// TraceEvent is one entry of a scenario trace: a session event, a join
// row, a selection or a step error.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Step int    `json:"step"` // producing step index; -1 for the initial open
	Type string `json:"type"`

	// Session event fields.
	Generation int64            `json:"generation,omitempty"`
	Count      uint64           `json:"count,omitempty"`
	Final      bool             `json:"final,omitempty"`
	Pattern    *ir.TripleString `json:"pattern,omitempty"`

	Row    *ir.Row    `json:"row,omitempty"`
	Triple *ir.Triple `json:"triple,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion holds.
	Pass bool `json:"pass"`

	// SessionID is the id every session event carried.
	SessionID string `json:"session_id"`

	// Trace contains every traced event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns the number of trace events of the given type.
func (r *Result) Count(eventType string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
