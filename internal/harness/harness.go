package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/tripleq/internal/config"
	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/ir"
	"github.com/roach88/tripleq/internal/store"
	"github.com/roach88/tripleq/internal/testutil"
)

// Harness is the scenario execution engine.
// It drives one Session over one in-memory store with a fixed session id
// and a frozen wall clock, so a scenario always produces the same trace.
type Harness struct {
	store   *store.Store
	session *engine.Session
	seq     *engine.Clock
	logger  *slog.Logger
	result  *Result
	step    int
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create a fresh in-memory store and import the dataset
//  2. Open the dataset in a new Session
//  3. Execute steps, checking each expect clause
//  4. Evaluate assertions
//
// An error is returned only when the scenario cannot run at all; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	st, err := store.Open(":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := importDataset(ctx, st, scenario.Dataset); err != nil {
		return nil, fmt.Errorf("failed to import dataset: %w", err)
	}

	sessionID := scenario.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	cfg := config.Default()
	opts := cfg.SessionOptions()
	if scenario.Budget != nil {
		opts = append(opts, engine.WithDrainBudget(engine.DrainBudget{MaxIterations: scenario.Budget.MaxIterations}))
	}
	if scenario.BufferLimit != nil {
		opts = append(opts, engine.WithBufferLimit(*scenario.BufferLimit))
	}
	opts = append(opts,
		engine.WithLogger(logger),
		engine.WithSessionIDGenerator(testutil.NewFixedIDGenerator(sessionID)),
		engine.WithWallClock(testutil.NewFakeClock()),
	)

	h := &Harness{
		store:   st,
		session: engine.NewSession(opts...),
		seq:     engine.NewClock(),
		logger:  logger,
		result:  NewResult(),
		step:    -1,
	}
	h.result.SessionID = h.session.ID()
	defer h.session.Close()
	unsubscribe := h.session.Subscribe(h.record)
	defer unsubscribe() // teardown events stay out of the trace

	if err := h.session.Replace(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	for i, step := range scenario.Steps {
		h.step = i
		if err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, h.session) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func importDataset(ctx context.Context, st *store.Store, ds Dataset) error {
	var opts []store.ImportOption
	if ds.NoSubstringIndex {
		opts = append(opts, store.WithoutSubstringIndex())
	}

	if ds.NTriples != "" {
		_, err := st.ImportNTriples(ctx, strings.NewReader(ds.NTriples), opts...)
		return err
	}

	triples := make([]ir.TripleString, len(ds.Triples))
	for i, t := range ds.Triples {
		triples[i] = ir.TripleString{Subject: t[0], Predicate: t[1], Object: t[2]}
	}
	_, err := st.Import(ctx, triples, opts...)
	return err
}

// record is the session listener.
func (h *Harness) record(e engine.Event) {
	ev := h.traceEvent(e.Type.String())
	ev.Generation = e.Generation
	ev.Count = e.Count
	ev.Final = e.Final
	if e.Type == engine.EventPatternChanged {
		p := e.Pattern
		ev.Pattern = &p
	}
	h.result.Trace = append(h.result.Trace, ev)
}

func (h *Harness) traceEvent(eventType string) TraceEvent {
	return TraceEvent{Seq: h.seq.Next(), Step: h.step, Type: eventType}
}

// execute runs one step. Query errors are traced and checked against the
// expect clause; anything else aborts the scenario.
func (h *Harness) execute(ctx context.Context, step Step) error {
	var stepErr error

	switch step.Action {
	case ActionSetPattern:
		p := step.Pattern
		stepErr = h.session.SetSearchPattern(ctx, ir.TripleString{Subject: p.Subject, Predicate: p.Predicate, Object: p.Object})

	case ActionRunPending:
		h.session.Step(ctx)

	case ActionAdvanceAll:
		if _, err := h.session.RunPending(ctx); err != nil {
			return err
		}

	case ActionSelectNearest:
		if t, ok := h.session.SelectNearest(step.X, step.Y); ok {
			ev := h.traceEvent(TraceSelected)
			ev.Triple = &t
			h.result.Trace = append(h.result.Trace, ev)
		}

	case ActionSetActive:
		if step.Predicate == 0 {
			h.session.SetAllPredicates(*step.Active)
		} else {
			h.session.SetPredicateActive(ir.ID(step.Predicate), *step.Active)
		}

	case ActionJoin:
		stepErr = h.join(ctx, step.Join)

	case ActionClose:
		h.session.Close()

	case ActionReopen:
		stepErr = h.session.Replace(ctx, h.store)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}

	if stepErr != nil {
		var qe *ir.QueryError
		if !errors.As(stepErr, &qe) {
			return stepErr
		}
		ev := h.traceEvent(TraceError)
		ev.Error = string(qe.Code)
		h.result.Trace = append(h.result.Trace, ev)
	}

	h.logger.Info("step completed", "step", h.step, "action", step.Action, "error", stepErr)
	h.check(step, stepErr)
	return nil
}

func (h *Harness) join(ctx context.Context, args *JoinArgs) error {
	q, err := args.query()
	if err != nil {
		return err
	}
	exec := engine.NewJoinExecutor(h.store, h.store, engine.WithJoinLogger(h.logger))
	_, err = exec.Execute(ctx, q, engine.RowSinkFunc(func(_ context.Context, row ir.Row) error {
		ev := h.traceEvent(TraceRow)
		ev.Row = &row
		h.result.Trace = append(h.result.Trace, ev)
		return nil
	}))
	return err
}

// check compares the session state after a step with its expect clause.
func (h *Harness) check(step Step, stepErr error) {
	fail := func(format string, args ...any) {
		h.result.AddError(fmt.Sprintf("step %d (%s): %s", h.step, step.Action, fmt.Sprintf(format, args...)))
	}

	x := step.Expect
	if x == nil {
		if stepErr != nil {
			fail("unexpected error: %v", stepErr)
		}
		return
	}

	switch {
	case x.Error == "" && stepErr != nil:
		fail("unexpected error: %v", stepErr)
	case x.Error != "" && stepErr == nil:
		fail("expected error %s, got none", x.Error)
	case x.Error != "" && ErrorCode(stepErr) != x.Error:
		fail("expected error %s, got %v", x.Error, stepErr)
	}

	state := h.session.State()
	if x.Count != nil && state.Count != *x.Count {
		fail("count = %d, want %d", state.Count, *x.Count)
	}
	if x.Final != nil && state.Final != *x.Final {
		fail("final = %t, want %t", state.Final, *x.Final)
	}
	if x.Pending != nil && h.session.Pending() != *x.Pending {
		fail("pending = %d, want %d", h.session.Pending(), *x.Pending)
	}
	if x.Selected != nil {
		want := ir.Triple{Subject: ir.ID(x.Selected[0]), Predicate: ir.ID(x.Selected[1]), Object: ir.ID(x.Selected[2])}
		got, ok := h.session.Selected()
		if !ok || got != want {
			fail("selected = %s (ok=%t), want %s", got, ok, want)
		}
	}
	if x.Rows != nil {
		got := h.stepRows()
		if !slices.EqualFunc(got, x.Rows, slices.Equal[[]string]) {
			fail("rows = %v, want %v", got, x.Rows)
		}
	}
}

// stepRows returns the fields of the rows traced by the current step.
func (h *Harness) stepRows() [][]string {
	rows := [][]string{}
	for _, e := range h.result.Trace {
		if e.Step == h.step && e.Type == TraceRow {
			rows = append(rows, e.Row.Fields())
		}
	}
	return rows
}

// ErrorCode returns the query error code of err, or "" when err is not a
// query error.
func ErrorCode(err error) string {
	var qe *ir.QueryError
	if errors.As(err, &qe) {
		return string(qe.Code)
	}
	return ""
}
