package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tripleq/internal/ir"
)

// IDToString returns the term with the given id in role.
// A missing id means the caller holds an id from another store.
func (s *Store) IDToString(ctx context.Context, id ir.ID, role ir.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("id to string: invalid role %d", int(role))
	}
	query, params := s.compiler.CompileTermValue(id, role)

	var value string
	err := s.db.QueryRowContext(ctx, query, params...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ir.NewIOError("id to string", fmt.Errorf("%s id %d not in dictionary", role, id))
	}
	if err != nil {
		return "", ir.NewIOError("id to string", err)
	}
	return value, nil
}

// StringToID returns the id of term in role, or 0 if the term is unknown.
func (s *Store) StringToID(ctx context.Context, term string, role ir.Role) (ir.ID, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("string to id: invalid role %d", int(role))
	}
	if term == "" {
		return 0, nil
	}
	query, params := s.compiler.CompileTermID(norm.NFC.String(term), role)

	var id int64
	err := s.db.QueryRowContext(ctx, query, params...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, ir.NewIOError("string to id", err)
	}
	return ir.ID(id), nil
}

// NumTerms returns the number of distinct terms in role.
func (s *Store) NumTerms(ctx context.Context, role ir.Role) (uint64, error) {
	query, params := s.compiler.CompileTermCount(role)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, ir.NewIOError("count terms", err)
	}
	return uint64(n), nil
}

// SubstringSearch returns the ids of literal objects containing needle,
// ordered by id, windowed by offset and limit (0 = no limit).
//
// With caseInsensitive both sides are compared after Unicode case folding.
// Stores imported WithoutSubstringIndex return UNSUPPORTED_CAPABILITY.
func (s *Store) SubstringSearch(ctx context.Context, needle string, caseInsensitive bool, offset, limit int) ([]ir.ID, error) {
	if !s.substringIndex {
		return nil, ir.NewUnsupportedCapabilityError("substring search")
	}

	needle = norm.NFC.String(needle)
	if caseInsensitive {
		needle = cases.Fold().String(needle)
	}

	query, params, err := s.compiler.CompileSubstring(needle, caseInsensitive, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, ir.NewIOError("substring search", err)
	}
	defer rows.Close()

	ids := []ir.ID{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, ir.NewIOError("scan substring candidate", err)
		}
		ids = append(ids, ir.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, ir.NewIOError("iterate substring candidates", err)
	}
	return ids, nil
}

// Search returns a Cursor over the triples matching p in canonical order.
// The first page is fetched eagerly, so a broken store fails here rather
// than on the first Next.
func (s *Store) Search(ctx context.Context, p ir.Pattern) (ir.Cursor, error) {
	c := &Cursor{store: s, pattern: p}
	if err := c.fetch(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Count returns the number of triples matching p without a cursor.
func (s *Store) Count(ctx context.Context, p ir.Pattern) (uint64, error) {
	query, params := s.compiler.CompileCount(p)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, ir.NewIOError("count triples", err)
	}
	return uint64(n), nil
}

// TotalCount returns the number of stored triples.
// Imported stores answer from meta; others count the table.
func (s *Store) TotalCount(ctx context.Context) (uint64, error) {
	if s.hasTripleCount {
		return s.tripleCount, nil
	}
	return s.Count(ctx, ir.Pattern{})
}

// Stats describes a store.
type Stats struct {
	FormatVersion  string `json:"format_version"`
	Triples        uint64 `json:"triples"`
	Subjects       uint64 `json:"subjects"`
	Predicates     uint64 `json:"predicates"`
	Objects        uint64 `json:"objects"`
	SubstringIndex bool   `json:"substring_index"`
}

// Stats returns the store statistics.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		FormatVersion:  meta[metaFormatVersion],
		SubstringIndex: s.substringIndex,
	}
	if st.Triples, err = s.TotalCount(ctx); err != nil {
		return Stats{}, err
	}

	counts := map[ir.Role]*uint64{
		ir.RoleSubject:   &st.Subjects,
		ir.RolePredicate: &st.Predicates,
		ir.RoleObject:    &st.Objects,
	}
	for _, role := range ir.Roles {
		n, err := s.NumTerms(ctx, role)
		if err != nil {
			return Stats{}, err
		}
		*counts[role] = n
	}
	return st, nil
}
