package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/tripleq/internal/ir"
	"github.com/roach88/tripleq/internal/queryir"
)

// RowSink receives join rows in emission order.
// An error from Emit stops the join and is returned by Execute.
type RowSink interface {
	Emit(ctx context.Context, row ir.Row) error
}

// RowSinkFunc adapts a function to RowSink.
type RowSinkFunc func(ctx context.Context, row ir.Row) error

// Emit calls f.
func (f RowSinkFunc) Emit(ctx context.Context, row ir.Row) error {
	return f(ctx, row)
}

// JoinStats summarizes one join execution.
type JoinStats struct {
	// Candidates is the number of object ids the substring search returned.
	Candidates int `json:"candidates"`

	// Rows is the number of rows emitted.
	Rows int `json:"rows"`

	// Duplicates is the number of rows suppressed by Distinct.
	Duplicates int `json:"duplicates,omitempty"`
}

// JoinExecutor runs substring-driven index-nested-loop joins.
//
// Execution is synchronous and single-goroutine. Every cursor it opens is
// closed before Execute returns, on every path.
type JoinExecutor struct {
	dict    Dictionary
	triples Triples
	logger  *slog.Logger
}

// JoinOption configures a JoinExecutor.
type JoinOption func(*JoinExecutor)

// WithJoinLogger sets the executor logger. Defaults to slog.Default().
func WithJoinLogger(l *slog.Logger) JoinOption {
	return func(j *JoinExecutor) {
		if l != nil {
			j.logger = l
		}
	}
}

// NewJoinExecutor creates an executor over one dataset.
func NewJoinExecutor(dict Dictionary, triples Triples, opts ...JoinOption) *JoinExecutor {
	j := &JoinExecutor{
		dict:    dict,
		triples: triples,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Execute runs q and emits its rows to sink.
//
// Hop 1: for each candidate object o, in id order, every (s, p, o) emits
// Row{Subject: s, Object: o}. Hop 2: for each such s, every (s, p2, o2)
// emits Row{Subject: s, Predicate: p2, Object: o2}. Rows repeat when
// reachable through several candidates unless q.Distinct is set.
//
// Errors:
//   - invalid q: a plain error listing the problems
//   - predicate not in the dictionary: UNRESOLVED_TERM
//   - dictionary without substring search: UNSUPPORTED_CAPABILITY
//   - store failures: IO
//   - ctx cancellation is checked between rows
func (j *JoinExecutor) Execute(ctx context.Context, q queryir.Join, sink RowSink) (JoinStats, error) {
	var stats JoinStats

	if v := queryir.Validate(q); !v.Valid {
		return stats, fmt.Errorf("invalid join: %s", strings.Join(v.Problems, "; "))
	}

	predicate, err := j.dict.StringToID(ctx, q.Predicate, ir.RolePredicate)
	if err != nil {
		return stats, err
	}
	if predicate == ir.Wildcard {
		return stats, ir.NewUnresolvedTermError(ir.RolePredicate, q.Predicate)
	}

	searcher, ok := j.dict.(SubstringSearcher)
	if !ok {
		return stats, ir.NewUnsupportedCapabilityError("substring search")
	}
	candidates, err := searcher.SubstringSearch(ctx, q.Literal, q.CaseInsensitive, q.Offset, q.Limit)
	if err != nil {
		return stats, err
	}
	stats.Candidates = len(candidates)

	run := &joinRun{
		exec:  j,
		query: q,
		sink:  sink,
		stats: &stats,
	}
	if q.Distinct {
		run.seen = make(map[ir.Row]struct{})
	}

	for _, o := range candidates {
		if err := run.candidate(ctx, predicate, o); err != nil {
			return stats, err
		}
	}

	j.logger.Info("join finished",
		"predicate", q.Predicate,
		"literal", q.Literal,
		"hops", q.Hops,
		"candidates", stats.Candidates,
		"rows", stats.Rows,
		"duplicates", stats.Duplicates,
	)
	return stats, nil
}

// joinRun is the per-execution state of Execute.
type joinRun struct {
	exec  *JoinExecutor
	query queryir.Join
	sink  RowSink
	stats *JoinStats
	seen  map[ir.Row]struct{} // nil unless Distinct
}

func (r *joinRun) candidate(ctx context.Context, predicate, o ir.ID) error {
	objStr, err := r.exec.dict.IDToString(ctx, o, ir.RoleObject)
	if err != nil {
		return err
	}

	return r.each(ctx, ir.NewPattern(ir.Wildcard, predicate, o), func(t ir.Triple) error {
		subjStr, err := r.exec.dict.IDToString(ctx, t.Subject, ir.RoleSubject)
		if err != nil {
			return err
		}

		if r.query.Hops == queryir.OneHop {
			return r.emit(ctx, ir.Row{Subject: subjStr, Object: objStr})
		}
		return r.expand(ctx, t.Subject, subjStr, o, objStr)
	})
}

// expand emits every triple of subject s. o and objStr are the candidate,
// reused when the expanded object is the candidate itself.
func (r *joinRun) expand(ctx context.Context, s ir.ID, subjStr string, o ir.ID, objStr string) error {
	return r.each(ctx, ir.NewPattern(s, ir.Wildcard, ir.Wildcard), func(t ir.Triple) error {
		predStr, err := r.exec.dict.IDToString(ctx, t.Predicate, ir.RolePredicate)
		if err != nil {
			return err
		}

		value := objStr
		if t.Object != o {
			if value, err = r.exec.dict.IDToString(ctx, t.Object, ir.RoleObject); err != nil {
				return err
			}
		}
		return r.emit(ctx, ir.Row{Subject: subjStr, Predicate: predStr, Object: value})
	})
}

// each calls fn for every triple matching p and closes the cursor on return.
func (r *joinRun) each(ctx context.Context, p ir.Pattern, fn func(ir.Triple) error) error {
	c, err := r.exec.triples.Search(ctx, p)
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := c.Next(ctx)
		if errors.Is(err, ir.ErrCursorDone) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
}

func (r *joinRun) emit(ctx context.Context, row ir.Row) error {
	if r.seen != nil {
		if _, dup := r.seen[row]; dup {
			r.stats.Duplicates++
			return nil
		}
		r.seen[row] = struct{}{}
	}

	if err := r.sink.Emit(ctx, row); err != nil {
		return err
	}
	r.stats.Rows++
	return nil
}
