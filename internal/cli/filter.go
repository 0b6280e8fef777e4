package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/ir"
	"github.com/roach88/tripleq/internal/queryir"
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	OneHop          string // -f "predicate;literal"
	TwoHop          string // -F "predicate;literal"
	CaseInsensitive bool
	Offset          int
	Limit           int
	Output          string
	Distinct        bool
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <db>",
		Short: "Run a substring-driven join",
		Long: `Find objects whose text contains a literal and join them through a predicate.

A filter is "predicate;literal". With -f every subject s of (s, predicate, o)
for a matching object o is printed as "s o". With -F each such subject is
expanded and every triple of s is printed as "s p o". Rows reachable through
several matching objects are printed each time unless --distinct is set.

With --format json each row is one canonical JSON object per line.

Exit codes:
  0 - Join completed
  1 - Store does not support substring search, or the predicate is unknown
  2 - Argument error

Examples:
  tripleq filter ./data.db -f "http://xmlns.com/foaf/0.1/knows;alice"
  tripleq filter ./data.db -F "name;Alice" -i -l 10
  tripleq filter ./data.db -f "name;bob" -o rows.txt --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OneHop, "filter", "f", "", `one-hop filter "predicate;literal"`)
	cmd.Flags().StringVarP(&opts.TwoHop, "filter2", "F", "", `two-hop filter "predicate;literal"`)
	cmd.Flags().BoolVarP(&opts.CaseInsensitive, "ignore-case", "i", false, "case-insensitive substring match")
	cmd.Flags().IntVarP(&opts.Offset, "offset", "s", 0, "matching objects to skip")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "maximum matching objects to use (0 = all)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write rows to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Distinct, "distinct", false, "suppress repeated rows")

	return cmd
}

// join builds the join described by the flags.
func (o *FilterOptions) join() (queryir.Join, error) {
	var filter string
	var hops int
	switch {
	case o.OneHop != "" && o.TwoHop != "":
		return queryir.Join{}, NewExitError(ExitCommandError, "use either -f or -F, not both")
	case o.OneHop != "":
		filter, hops = o.OneHop, queryir.OneHop
	case o.TwoHop != "":
		filter, hops = o.TwoHop, queryir.TwoHop
	default:
		return queryir.Join{}, NewExitError(ExitCommandError, "a filter is required: -f or -F \"predicate;literal\"")
	}

	j, err := queryir.ParseFilter(filter, hops)
	if err != nil {
		return queryir.Join{}, WrapExitError(ExitCommandError, "invalid filter", err)
	}
	j.CaseInsensitive = o.CaseInsensitive
	j.Offset = o.Offset
	j.Limit = o.Limit
	j.Distinct = o.Distinct

	if res := queryir.Validate(j); !res.Valid {
		return queryir.Join{}, NewExitError(ExitCommandError, "invalid filter: "+strings.Join(res.Problems, "; "))
	}
	return j, nil
}

func runFilter(opts *FilterOptions, dbPath string, cmd *cobra.Command) (err error) {
	q, err := opts.join()
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

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = WrapExitError(ExitFailure, "failed to close output file", closeErr)
			}
		}()
		w = f
	}

	bw := bufio.NewWriter(w)
	sink := newRowWriter(bw, opts.Format)

	exec := engine.NewJoinExecutor(st, st, engine.WithJoinLogger(env.logger))
	stats, err := exec.Execute(env.ctx, q, sink)
	if flushErr := bw.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil {
		return queryFailure("filter", err)
	}

	env.out.VerboseLog("%d candidates, %d rows, %d duplicates suppressed", stats.Candidates, stats.Rows, stats.Duplicates)
	return nil
}

// rowWriter prints join rows, one per line.
type rowWriter struct {
	w    io.Writer
	json bool
}

func newRowWriter(w io.Writer, format string) *rowWriter {
	return &rowWriter{w: w, json: format == "json"}
}

func (rw *rowWriter) Emit(_ context.Context, row ir.Row) error {
	var line []byte
	if rw.json {
		data, err := ir.MarshalCanonical(row)
		if err != nil {
			return err
		}
		line = data
	} else {
		line = []byte(strings.Join(row.Fields(), " "))
	}
	line = append(line, '\n')
	_, err := rw.w.Write(line)
	return err
}
