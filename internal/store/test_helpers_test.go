package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tripleq/internal/ir"
)

// createTestStore creates a new empty store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createImportedStore creates a store holding the given triples.
func createImportedStore(t *testing.T, triples []ir.TripleString, opts ...Option) *Store {
	t.Helper()
	s := createTestStore(t, opts...)
	if _, err := s.Import(context.Background(), triples); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	return s
}

func ts(s, p, o string) ir.TripleString {
	return ir.TripleString{Subject: s, Predicate: p, Object: o}
}

// sampleTriples is a small dataset with two literal objects.
//
// Id assignment (binary order per role):
//
//	subjects:   alice=1 bob=2
//	predicates: knows=1 name=2
//	objects:    "Alice"=1 "bobby"=2 alice=3 bob=4
func sampleTriples() []ir.TripleString {
	return []ir.TripleString{
		ts("alice", "name", `"Alice"`),
		ts("alice", "knows", "bob"),
		ts("bob", "name", `"bobby"`),
		ts("bob", "knows", "alice"),
	}
}
