package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleq/internal/ir"
)

func TestIDToString(t *testing.T) {
	ctx := context.Background()
	s := createImportedStore(t, sampleTriples())

	v, err := s.IDToString(ctx, 2, ir.RolePredicate)
	require.NoError(t, err)
	assert.Equal(t, "name", v)

	v, err = s.IDToString(ctx, 1, ir.RoleObject)
	require.NoError(t, err)
	assert.Equal(t, `"Alice"`, v)
}

func TestIDToString_Missing(t *testing.T) {
	s := createImportedStore(t, sampleTriples())

	_, err := s.IDToString(context.Background(), 99, ir.RoleSubject)
	require.Error(t, err)
	assert.True(t, ir.IsIOError(err))
}

func TestStringToID_Unknown(t *testing.T) {
	ctx := context.Background()
	s := createImportedStore(t, sampleTriples())

	id, err := s.StringToID(ctx, "carol", ir.RoleSubject)
	require.NoError(t, err)
	assert.Equal(t, ir.Wildcard, id)

	// ids are role scoped: "name" is a predicate, not a subject
	id, err = s.StringToID(ctx, "name", ir.RoleSubject)
	require.NoError(t, err)
	assert.Equal(t, ir.Wildcard, id)

	// case matters for exact lookup
	id, err = s.StringToID(ctx, "Alice", ir.RoleSubject)
	require.NoError(t, err)
	assert.Equal(t, ir.Wildcard, id)
}

func TestNumTerms(t *testing.T) {
	ctx := context.Background()
	s := createImportedStore(t, sampleTriples())

	want := map[ir.Role]uint64{
		ir.RoleSubject:   2,
		ir.RolePredicate: 2,
		ir.RoleObject:    4,
	}
	for role, n := range want {
		got, err := s.NumTerms(ctx, role)
		require.NoError(t, err)
		assert.Equal(t, n, got, role.String())
	}
}

func TestSubstringSearch(t *testing.T) {
	ctx := context.Background()
	s := createImportedStore(t, []ir.TripleString{
		ts("s1", "p", `"foobar"`),
		ts("s2", "p", `"food"`),
		ts("s3", "p", `"FOOTBALL"`),
		ts("s4", "p", `"bar"`),
		ts("s5", "p", "foo-iri"),
	})
	// objects: "FOOTBALL"=1 "bar"=2 "foobar"=3 "food"=4 foo-iri=5

	tests := []struct {
		name            string
		needle          string
		caseInsensitive bool
		offset, limit   int
		want            []ir.ID
	}{
		{"case sensitive", "foo", false, 0, 0, []ir.ID{3, 4}},
		{"case insensitive", "foo", true, 0, 0, []ir.ID{1, 3, 4}},
		{"folded needle", "FOO", true, 0, 0, []ir.ID{1, 3, 4}},
		{"offset", "foo", true, 1, 0, []ir.ID{3, 4}},
		{"limit", "foo", true, 0, 2, []ir.ID{1, 3}},
		{"offset and limit", "foo", true, 1, 1, []ir.ID{3}},
		{"offset past end", "foo", true, 5, 0, []ir.ID{}},
		{"no match", "zzz", false, 0, 0, []ir.ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SubstringSearch(ctx, tt.needle, tt.caseInsensitive, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstringSearch_NegativeWindow(t *testing.T) {
	s := createImportedStore(t, sampleTriples())

	_, err := s.SubstringSearch(context.Background(), "a", false, -1, 0)
	require.Error(t, err)
}

func TestTotalCount(t *testing.T) {
	ctx := context.Background()

	s := createTestStore(t)
	n, err := s.TotalCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "never imported store")

	s = createImportedStore(t, sampleTriples())
	n, err = s.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	s := createImportedStore(t, sampleTriples())

	n, err := s.Count(ctx, ir.NewPattern(0, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	n, err = s.Count(ctx, ir.NewPattern(1, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestStats(t *testing.T) {
	s := createImportedStore(t, sampleTriples())

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		FormatVersion:  ir.StoreFormatVersion,
		Triples:        4,
		Subjects:       2,
		Predicates:     2,
		Objects:        4,
		SubstringIndex: true,
	}, st)
}

func TestClosedStore_ReturnsIOError(t *testing.T) {
	s := createImportedStore(t, sampleTriples())
	require.NoError(t, s.Close())

	_, err := s.Search(context.Background(), ir.NewPattern(1, 0, 0))
	assert.True(t, ir.IsIOError(err), "got %v", err)

	_, err = s.StringToID(context.Background(), "alice", ir.RoleSubject)
	assert.True(t, ir.IsIOError(err), "got %v", err)
}
