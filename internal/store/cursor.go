package store

import (
	"context"

	"github.com/roach88/tripleq/internal/ir"
)

// Cursor pages through the triples matching one pattern.
//
// Each page is read fully and its rows closed before Next returns, so no
// statement stays open between calls. Pages continue strictly after the
// last triple returned, which keeps the order stable while other queries
// share the connection.
type Cursor struct {
	store   *Store
	pattern ir.Pattern

	page []ir.Triple
	pos  int
	last *ir.Triple

	exhausted bool
	closed    bool
}

// Next returns the next matching triple, or ir.ErrCursorDone.
func (c *Cursor) Next(ctx context.Context) (ir.Triple, error) {
	if c.closed {
		return ir.Triple{}, ir.ErrCursorDone
	}
	if err := ctx.Err(); err != nil {
		return ir.Triple{}, err
	}

	if c.pos >= len(c.page) {
		if c.exhausted {
			return ir.Triple{}, ir.ErrCursorDone
		}
		if err := c.fetch(ctx); err != nil {
			return ir.Triple{}, err
		}
		if len(c.page) == 0 {
			return ir.Triple{}, ir.ErrCursorDone
		}
	}

	t := c.page[c.pos]
	c.pos++
	return t, nil
}

// Close releases the buffered page. It is idempotent.
func (c *Cursor) Close() error {
	c.closed = true
	c.page = nil
	return nil
}

func (c *Cursor) fetch(ctx context.Context) error {
	limit := c.store.batchSize
	query, params, err := c.store.compiler.CompileSearch(c.pattern, c.last, limit)
	if err != nil {
		return err
	}

	rows, err := c.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return ir.NewIOError("search triples", err)
	}
	defer rows.Close()

	page := make([]ir.Triple, 0, limit)
	for rows.Next() {
		var s, p, o int64
		if err := rows.Scan(&s, &p, &o); err != nil {
			return ir.NewIOError("scan triple", err)
		}
		page = append(page, ir.Triple{Subject: ir.ID(s), Predicate: ir.ID(p), Object: ir.ID(o)})
	}
	if err := rows.Err(); err != nil {
		return ir.NewIOError("iterate triples", err)
	}

	c.page = page
	c.pos = 0
	c.exhausted = len(page) < limit
	if len(page) > 0 {
		last := page[len(page)-1]
		c.last = &last
	}
	return nil
}
