package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tripleq/internal/ir"
	"github.com/roach88/tripleq/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added idx_terms_literal for substring candidate scans
const currentSchemaVersion = 1

// DefaultBatchSize is the number of triples a Cursor fetches per page.
const DefaultBatchSize = 256

// Meta keys written by Import.
const (
	metaFormatVersion  = "format_version"
	metaSubstringIndex = "substring_index"
	metaTripleCount    = "triple_count"
)

// ErrReadOnly is returned by Import on a store opened with OpenReadOnly.
var ErrReadOnly = errors.New("store is read-only")

// Store is a SQLite-backed triple store.
// It serves the Dictionary, SubstringSearcher and Triples capabilities.
type Store struct {
	db        *sql.DB
	compiler  *querysql.SQLCompiler
	batchSize int
	readOnly  bool
	logger    *slog.Logger

	// cached from meta; refreshed by Import
	substringIndex bool
	tripleCount    uint64
	hasTripleCount bool
}

// Option configures a Store.
type Option func(*Store)

// WithBatchSize sets the Cursor page size. Values <= 0 are ignored.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, ir.NewIOError("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ir.NewIOError("connect to database", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, readWritePragmas); err != nil {
		db.Close()
		return nil, ir.NewIOError("apply pragmas", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, ir.NewIOError("apply schema", err)
	}

	return newStore(db, false, opts)
}

// OpenReadOnly opens an existing database for querying.
// The file must exist and carry a current schema; nothing is created or migrated.
func OpenReadOnly(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, ir.NewIOError("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ir.NewIOError("connect to database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, readOnlyPragmas); err != nil {
		db.Close()
		return nil, ir.NewIOError("apply pragmas", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, ir.NewIOError("get user_version", err)
	}
	if version < currentSchemaVersion {
		db.Close()
		return nil, ir.NewIOError("open database",
			fmt.Errorf("schema version %d is older than %d; open it read-write once to migrate", version, currentSchemaVersion))
	}

	return newStore(db, true, opts)
}

func newStore(db *sql.DB, readOnly bool, opts []Option) (*Store, error) {
	s := &Store{
		db:        db,
		compiler:  querysql.NewSQLCompiler(),
		batchSize: DefaultBatchSize,
		readOnly:  readOnly,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.loadMeta(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("store opened",
		"read_only", readOnly,
		"batch_size", s.batchSize,
		"substring_index", s.substringIndex,
	)
	return s, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReadOnly reports whether the store was opened with OpenReadOnly.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// SubstringIndex reports whether the store was imported with substring support.
func (s *Store) SubstringIndex() bool {
	return s.substringIndex
}

var readWritePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

var readOnlyPragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA query_only = ON",
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the index that substring searches scan. Literal object
// terms are a small share of the terms table on real datasets.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_terms_literal
		ON terms(role, literal, id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// loadMeta refreshes the cached meta values.
// A store that has never been imported has no meta rows; substring search
// defaults to enabled so an empty store answers with no candidates.
func (s *Store) loadMeta(ctx context.Context) error {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return err
	}

	s.substringIndex = meta[metaSubstringIndex] != "0"

	s.hasTripleCount = false
	if v, ok := meta[metaTripleCount]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return ir.NewIOError("read meta", fmt.Errorf("invalid %s %q: %w", metaTripleCount, v, err))
		}
		s.tripleCount = n
		s.hasTripleCount = true
	}
	return nil
}

func (s *Store) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta ORDER BY key ASC`)
	if err != nil {
		return nil, ir.NewIOError("query meta", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, ir.NewIOError("scan meta", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, ir.NewIOError("iterate meta", err)
	}
	return meta, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
