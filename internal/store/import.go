package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tripleq/internal/ir"
)

// ErrStoreNotEmpty is returned by Import when the store already holds a dataset.
var ErrStoreNotEmpty = errors.New("store already contains a dataset")

// ImportOption configures an Import.
type ImportOption func(*importConfig)

type importConfig struct {
	substringIndex bool
}

// WithoutSubstringIndex skips the case folded column and records that the
// store cannot answer substring searches.
func WithoutSubstringIndex() ImportOption {
	return func(c *importConfig) {
		c.substringIndex = false
	}
}

// ImportStats summarizes one Import.
type ImportStats struct {
	Triples    uint64 `json:"triples"`
	Duplicates uint64 `json:"duplicates"`
	Subjects   uint64 `json:"subjects"`
	Predicates uint64 `json:"predicates"`
	Objects    uint64 `json:"objects"`
}

// Import loads a dataset into an empty store in one transaction.
//
// Terms are NFC normalized. Ids are assigned per role in binary string
// order starting at 1. Duplicate triples are stored once.
func (s *Store) Import(ctx context.Context, triples []ir.TripleString, opts ...ImportOption) (ImportStats, error) {
	if s.readOnly {
		return ImportStats{}, ErrReadOnly
	}

	cfg := importConfig{substringIndex: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	empty, err := s.isEmpty(ctx)
	if err != nil {
		return ImportStats{}, err
	}
	if !empty {
		return ImportStats{}, ErrStoreNotEmpty
	}

	normalized := make([]ir.TripleString, len(triples))
	for i, ts := range triples {
		for _, role := range ir.Roles {
			if ts.Term(role) == "" {
				return ImportStats{}, fmt.Errorf("import: triple %d has an empty %s", i, role)
			}
		}
		normalized[i] = ir.TripleString{
			Subject:   norm.NFC.String(ts.Subject),
			Predicate: norm.NFC.String(ts.Predicate),
			Object:    norm.NFC.String(ts.Object),
		}
	}

	dicts := make(map[ir.Role]map[string]ir.ID, len(ir.Roles))
	sorted := make(map[ir.Role][]string, len(ir.Roles))
	for _, role := range ir.Roles {
		values := make([]string, 0, len(normalized))
		for _, ts := range normalized {
			values = append(values, ts.Term(role))
		}
		slices.Sort(values)
		values = slices.Compact(values)

		ids := make(map[string]ir.ID, len(values))
		for i, v := range values {
			ids[v] = ir.ID(i + 1)
		}
		dicts[role] = ids
		sorted[role] = values
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, ir.NewIOError("begin import", err)
	}
	defer tx.Rollback()

	if err := insertTerms(ctx, tx, sorted, cfg.substringIndex); err != nil {
		return ImportStats{}, err
	}

	stats := ImportStats{
		Subjects:   uint64(len(sorted[ir.RoleSubject])),
		Predicates: uint64(len(sorted[ir.RolePredicate])),
		Objects:    uint64(len(sorted[ir.RoleObject])),
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO triples (subject, predicate, object)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return ImportStats{}, ir.NewIOError("prepare triples", err)
	}
	defer stmt.Close()

	for _, ts := range normalized {
		res, err := stmt.ExecContext(ctx,
			int64(dicts[ir.RoleSubject][ts.Subject]),
			int64(dicts[ir.RolePredicate][ts.Predicate]),
			int64(dicts[ir.RoleObject][ts.Object]),
		)
		if err != nil {
			return ImportStats{}, ir.NewIOError("insert triple", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return ImportStats{}, ir.NewIOError("insert triple", err)
		}
		if n == 0 {
			stats.Duplicates++
			continue
		}
		stats.Triples++
	}

	substring := "1"
	if !cfg.substringIndex {
		substring = "0"
	}
	meta := [][2]string{
		{metaFormatVersion, ir.StoreFormatVersion},
		{metaSubstringIndex, substring},
		{metaTripleCount, strconv.FormatUint(stats.Triples, 10)},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return ImportStats{}, ir.NewIOError("write meta", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, ir.NewIOError("commit import", err)
	}

	if err := s.loadMeta(ctx); err != nil {
		return stats, err
	}

	s.logger.Info("dataset imported",
		"triples", stats.Triples,
		"duplicates", stats.Duplicates,
		"subjects", stats.Subjects,
		"predicates", stats.Predicates,
		"objects", stats.Objects,
		"substring_index", cfg.substringIndex,
	)
	return stats, nil
}

// ImportNTriples parses an N-Triples document and imports it.
func (s *Store) ImportNTriples(ctx context.Context, r io.Reader, opts ...ImportOption) (ImportStats, error) {
	triples, err := ParseNTriples(r)
	if err != nil {
		return ImportStats{}, err
	}
	return s.Import(ctx, triples, opts...)
}

func insertTerms(ctx context.Context, tx *sql.Tx, sorted map[ir.Role][]string, substringIndex bool) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO terms (role, id, value, literal, folded)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ir.NewIOError("prepare terms", err)
	}
	defer stmt.Close()

	fold := cases.Fold()
	for _, role := range ir.Roles {
		for i, v := range sorted[role] {
			literal := 0
			folded := ""
			if role == ir.RoleObject && strings.HasPrefix(v, `"`) {
				literal = 1
				if substringIndex {
					folded = fold.String(v)
				}
			}
			if _, err := stmt.ExecContext(ctx, int(role), int64(i+1), v, literal, folded); err != nil {
				return ir.NewIOError("insert term", err)
			}
		}
	}
	return nil
}

func (s *Store) isEmpty(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM meta) + (SELECT COUNT(*) FROM terms)
	`).Scan(&n)
	if err != nil {
		return false, ir.NewIOError("check empty store", err)
	}
	return n == 0, nil
}
