package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/ir"
)

// NearestOptions holds flags for the nearest command.
type NearestOptions struct {
	*RootOptions
	patternFlags
	X        uint64
	Y        uint64
	Inactive []string
}

// NearestResult is the nearest command output.
type NearestResult struct {
	SubjectID   ir.ID  `json:"subject_id"`
	PredicateID ir.ID  `json:"predicate_id"`
	ObjectID    ir.ID  `json:"object_id"`
	Subject     string `json:"subject"`
	Predicate   string `json:"predicate"`
	Object      string `json:"object"`
}

// NewNearestCommand creates the nearest command.
func NewNearestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NearestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "nearest <db>",
		Short: "Select the triple nearest to a point",
		Long: `Select the buffered triple whose (subject id, object id) is nearest to (x, y).

Only triples matching the pattern and carrying an active predicate are
eligible; when none is, the first buffered triple is selected.

Examples:
  tripleq nearest ./data.db --x 10 --y 200
  tripleq nearest ./data.db --x 10 --y 200 --predicate knows --inactive 2,3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNearest(opts, args[0], cmd)
		},
	}

	opts.patternFlags.register(cmd)
	cmd.Flags().Uint64Var(&opts.X, "x", 0, "subject id coordinate")
	cmd.Flags().Uint64Var(&opts.Y, "y", 0, "object id coordinate")
	cmd.Flags().StringSliceVar(&opts.Inactive, "inactive", nil, "predicate ids to deactivate")

	return cmd
}

func parseIDs(values []string) ([]ir.ID, error) {
	ids := make([]ir.ID, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid predicate id %q", v)
		}
		ids = append(ids, ir.ID(n))
	}
	return ids, nil
}

func runNearest(opts *NearestOptions, dbPath string, cmd *cobra.Command) error {
	inactive, err := parseIDs(opts.Inactive)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --inactive", err)
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

	session := engine.NewSession(append(env.cfg.SessionOptions(), engine.WithLogger(env.logger))...)
	defer session.Close()

	if err := session.Replace(env.ctx, st); err != nil {
		return queryFailure("load dataset", err)
	}
	if err := session.SetSearchPattern(env.ctx, q.Pattern); err != nil {
		return queryFailure("nearest", err)
	}
	for _, id := range inactive {
		session.SetPredicateActive(id, false)
	}

	t, ok := session.SelectNearest(opts.X, opts.Y)
	if !ok {
		return NewExitError(ExitFailure,
			fmt.Sprintf("no triple near (%d, %d) for %s: the buffer is empty", opts.X, opts.Y, patternString(q.Pattern)))
	}

	result := NearestResult{SubjectID: t.Subject, PredicateID: t.Predicate, ObjectID: t.Object}
	terms := []struct {
		id   ir.ID
		role ir.Role
		dst  *string
	}{
		{t.Subject, ir.RoleSubject, &result.Subject},
		{t.Predicate, ir.RolePredicate, &result.Predicate},
		{t.Object, ir.RoleObject, &result.Object},
	}
	for _, term := range terms {
		if *term.dst, err = st.IDToString(env.ctx, term.id, term.role); err != nil {
			return queryFailure("decode triple", err)
		}
	}

	if opts.Format == "json" {
		return env.out.Success(result)
	}
	return env.out.Success(fmt.Sprintf("%s %s %s %s", t.String(), result.Subject, result.Predicate, result.Object))
}
