package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tripleq/internal/ir"
)

// ExportNTriples writes every triple of the store to w as N-Triples, in
// canonical order, and returns the number written.
//
// Output parsed with ParseNTriples yields the stored terms again.
func (s *Store) ExportNTriples(ctx context.Context, w io.Writer) (uint64, error) {
	c, err := s.Search(ctx, ir.Pattern{})
	if err != nil {
		return 0, err
	}
	defer c.Close()

	bw := bufio.NewWriter(w)
	var n uint64
	var subject ir.ID
	var subjStr string
	for {
		t, err := c.Next(ctx)
		if errors.Is(err, ir.ErrCursorDone) {
			break
		}
		if err != nil {
			return n, err
		}

		// subject-major order: consecutive triples usually share the subject
		if t.Subject != subject {
			if subjStr, err = s.IDToString(ctx, t.Subject, ir.RoleSubject); err != nil {
				return n, err
			}
			subject = t.Subject
		}
		ts := ir.TripleString{Subject: subjStr}
		if ts.Predicate, err = s.IDToString(ctx, t.Predicate, ir.RolePredicate); err != nil {
			return n, err
		}
		if ts.Object, err = s.IDToString(ctx, t.Object, ir.RoleObject); err != nil {
			return n, err
		}

		if _, err := bw.WriteString(FormatNTriple(ts) + "\n"); err != nil {
			return n, ir.NewIOError("write n-triples", err)
		}
		n++
	}

	if err := bw.Flush(); err != nil {
		return n, ir.NewIOError("write n-triples", err)
	}
	s.logger.Info("store exported", "triples", n)
	return n, nil
}

// FormatNTriple renders a stored triple as one N-Triples statement,
// without the line break.
func FormatNTriple(ts ir.TripleString) string {
	return fmt.Sprintf("%s %s %s .", formatTerm(ts.Subject), formatTerm(ts.Predicate), formatTerm(ts.Object))
}

func formatTerm(v string) string {
	switch {
	case strings.HasPrefix(v, "_:"):
		return v
	case strings.HasPrefix(v, `"`):
		end := strings.LastIndexByte(v, '"')
		if end == 0 {
			return `"` + escapeLiteral(v[1:]) + `"`
		}
		return `"` + escapeLiteral(v[1:end]) + `"` + v[end+1:]
	default:
		return "<" + escapeIRI(v) + ">"
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

func escapeIRI(s string) string {
	if !strings.ContainsFunc(s, iriNeedsEscape) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if iriNeedsEscape(r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func iriNeedsEscape(r rune) bool {
	return r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r)
}
