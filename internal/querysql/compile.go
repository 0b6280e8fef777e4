// Package querysql compiles triple store lookups to parameterized SQL for SQLite.
//
// CRITICAL: every multi-row query includes ORDER BY so cursor order is
// deterministic for a fixed store.
// CRITICAL: values are always parameterized, never interpolated.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/tripleq/internal/ir"
)

// Table and column names of the store schema.
const (
	TriplesTable = "triples"
	TermsTable   = "terms"
)

// tripleOrder is the canonical subject-major cursor order.
const tripleOrder = "subject ASC, predicate ASC, object ASC"

// SQLCompiler compiles pattern searches and dictionary lookups.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// CompileSearch compiles one page of a pattern search.
//
// after is the last triple of the previous page (nil for the first page);
// the page continues strictly after it in canonical order, which is what
// lets a cursor page without holding a result set open. limit must be > 0.
//
// Example (pattern (1, 0, 0), second page of 256):
//
//	SELECT subject, predicate, object FROM triples
//	WHERE subject = ? AND (subject, predicate, object) > (?, ?, ?)
//	ORDER BY subject ASC, predicate ASC, object ASC LIMIT ?
func (c *SQLCompiler) CompileSearch(p ir.Pattern, after *ir.Triple, limit int) (string, []any, error) {
	if limit <= 0 {
		return "", nil, fmt.Errorf("page limit must be > 0, got %d", limit)
	}

	conds, params := c.patternConditions(p)
	if after != nil {
		conds = append(conds, "(subject, predicate, object) > (?, ?, ?)")
		params = append(params, int64(after.Subject), int64(after.Predicate), int64(after.Object))
	}

	var sb strings.Builder
	sb.WriteString("SELECT subject, predicate, object FROM ")
	sb.WriteString(TriplesTable)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(tripleOrder)
	sb.WriteString(" LIMIT ?")
	params = append(params, limit)

	return sb.String(), params, nil
}

// CompileCount compiles a count of the triples matching p.
func (c *SQLCompiler) CompileCount(p ir.Pattern) (string, []any) {
	conds, params := c.patternConditions(p)
	sql := "SELECT COUNT(*) FROM " + TriplesTable
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	return sql, params
}

// CompileSubstring compiles an ordered substring search over literal object terms.
//
// With caseInsensitive the needle must already be case folded; the search
// then runs against the folded column. limit 0 means no limit.
func (c *SQLCompiler) CompileSubstring(needle string, caseInsensitive bool, offset, limit int) (string, []any, error) {
	if offset < 0 || limit < 0 {
		return "", nil, fmt.Errorf("offset and limit must be >= 0, got %d and %d", offset, limit)
	}

	column := "value"
	if caseInsensitive {
		column = "folded"
	}
	if limit == 0 {
		// SQLite requires a LIMIT before OFFSET; negative means unbounded
		limit = -1
	}

	sql := fmt.Sprintf("SELECT id FROM %s WHERE role = ? AND literal = 1 AND instr(%s, ?) > 0 ORDER BY id ASC LIMIT ? OFFSET ?",
		TermsTable, column)
	return sql, []any{int(ir.RoleObject), needle, limit, offset}, nil
}

// CompileTermValue compiles an id → string lookup.
func (c *SQLCompiler) CompileTermValue(id ir.ID, role ir.Role) (string, []any) {
	return "SELECT value FROM " + TermsTable + " WHERE role = ? AND id = ?", []any{int(role), int64(id)}
}

// CompileTermID compiles a string → id lookup.
func (c *SQLCompiler) CompileTermID(value string, role ir.Role) (string, []any) {
	return "SELECT id FROM " + TermsTable + " WHERE role = ? AND value = ? COLLATE BINARY", []any{int(role), value}
}

// CompileTermCount compiles a count of the terms in one role.
func (c *SQLCompiler) CompileTermCount(role ir.Role) (string, []any) {
	return "SELECT COUNT(*) FROM " + TermsTable + " WHERE role = ?", []any{int(role)}
}

// patternConditions returns one "column = ?" condition per bound slot, in
// subject, predicate, object order.
func (c *SQLCompiler) patternConditions(p ir.Pattern) ([]string, []any) {
	var conds []string
	var params []any
	for _, role := range ir.Roles {
		id := p.Slot(role)
		if id == ir.Wildcard {
			continue
		}
		conds = append(conds, role.String()+" = ?")
		params = append(params, int64(id))
	}
	return conds, params
}
