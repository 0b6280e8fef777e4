package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/ir"
)

// CountOptions holds flags for the count command.
type CountOptions struct {
	*RootOptions
	patternFlags
	BudgetIterations int
}

// CountResult is the count command output.
type CountResult struct {
	Subject       string `json:"subject"`
	Predicate     string `json:"predicate"`
	Object        string `json:"object"`
	Count         uint64 `json:"count"`
	Final         bool   `json:"final"`
	Unsatisfiable bool   `json:"unsatisfiable"`
	ElapsedMS     int64  `json:"elapsed_ms"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count <db>",
		Short: "Count the triples matching a pattern",
		Long: `Count the triples matching a pattern incrementally.

Empty pattern terms match anything. The count is drained in slices bounded
by the configured drain budget; with --verbose every intermediate count is
printed to stderr. A term missing from the dictionary counts 0.

Examples:
  tripleq count ./data.db --predicate http://xmlns.com/foaf/0.1/knows
  tripleq count ./data.db --subject alice --budget-iterations 1000 -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(opts, args[0], cmd)
		},
	}

	opts.patternFlags.register(cmd)
	cmd.Flags().IntVar(&opts.BudgetIterations, "budget-iterations", 0, "triples per drain slice (overrides config; 0 = unbounded)")

	return cmd
}

func runCount(opts *CountOptions, dbPath string, cmd *cobra.Command) error {
	if opts.BudgetIterations < 0 {
		return NewExitError(ExitCommandError, "--budget-iterations must be >= 0")
	}
	q, err := opts.query()
	if err != nil {
		return err
	}

	env, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	st, err := env.openDataset(dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st, env.logger)

	sessionOpts := append(env.cfg.SessionOptions(), engine.WithLogger(env.logger))
	if cmd.Flags().Changed("budget-iterations") {
		budget := env.cfg.DrainBudget()
		budget.MaxIterations = opts.BudgetIterations
		sessionOpts = append(sessionOpts, engine.WithDrainBudget(budget))
	}
	session := engine.NewSession(sessionOpts...)
	defer session.Close()

	finalized := make(chan struct{}, 1)
	session.Subscribe(func(e engine.Event) {
		switch e.Type {
		case engine.EventCountUpdated:
			env.out.VerboseLog("count %d", e.Count)
		case engine.EventCountFinalized:
			select {
			case finalized <- struct{}{}:
			default:
			}
		}
	})

	if err := session.Replace(env.ctx, st); err != nil {
		return queryFailure("load dataset", err)
	}
	if err := session.SetSearchPattern(env.ctx, q.Pattern); err != nil {
		return queryFailure("count", err)
	}

	if !session.State().Final {
		if err := drainToEnd(env, session, finalized); err != nil {
			return err
		}
	}

	state := session.State()
	result := CountResult{
		Subject:       opts.Subject,
		Predicate:     opts.Predicate,
		Object:        opts.Object,
		Count:         state.Count,
		Final:         state.Final,
		Unsatisfiable: state.Unsatisfiable,
		ElapsedMS:     session.Elapsed().Milliseconds(),
	}
	env.logger.Debug("count finished", "pattern", q.Pattern, "count", result.Count, "elapsed_ms", result.ElapsedMS)

	if opts.Format == "json" {
		return env.out.Success(result)
	}
	return env.out.Success(fmt.Sprint(result.Count))
}

// drainToEnd runs the session scheduler until the count is final or the
// command context ends.
func drainToEnd(env *commandEnv, session *engine.Session, finalized <-chan struct{}) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- session.Run(env.ctx)
	}()

	select {
	case <-finalized:
	case <-env.ctx.Done():
	}
	session.Stop()

	if err := <-errCh; err != nil {
		return WrapExitError(ExitFailure, "count interrupted", err)
	}
	return nil
}

// patternString renders a textual pattern for messages, "?" for wildcards.
func patternString(ts ir.TripleString) string {
	term := func(s string) string {
		if s == "" {
			return "?"
		}
		return s
	}
	return fmt.Sprintf("(%s %s %s)", term(ts.Subject), term(ts.Predicate), term(ts.Object))
}
