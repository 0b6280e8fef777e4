package ir

import (
	"context"
	"errors"
)

// ErrCursorDone is returned by Cursor.Next once the sequence is exhausted.
var ErrCursorDone = errors.New("cursor done")

// Cursor is an ordered, single-use, forward-only sequence of triples that
// satisfy one Pattern.
//
// Next returns ErrCursorDone after the last triple. Every Cursor must be
// closed by its owner; Close is idempotent and releases the underlying
// resources. Next after Close returns ErrCursorDone.
type Cursor interface {
	Next(ctx context.Context) (Triple, error)
	Close() error
}

// Drain reads every remaining triple from c and closes it, on every path.
func Drain(ctx context.Context, c Cursor) ([]Triple, error) {
	defer c.Close()

	var out []Triple
	for {
		t, err := c.Next(ctx)
		if errors.Is(err, ErrCursorDone) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}
