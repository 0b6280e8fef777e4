package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/roach88/tripleq/internal/ir"
)

// MemoryStore is an in-memory dataset for engine tests.
//
// Terms are registered with explicit ids (AddTerm) or assigned in binary
// order (NewMemoryStoreFromStrings). Search yields subject-major order.
// Unlike the SQLite store, substring search covers every object term.
//
// The store counts Search calls and live cursors so tests can assert that
// no cursor was opened or that at most one was live at a time. Failures can
// be injected per operation.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryStore struct {
	mu      sync.Mutex
	terms   map[ir.Role]map[ir.ID]string
	ids     map[ir.Role]map[string]ir.ID
	triples []ir.Triple

	substringUnavailable bool

	searches int
	live     int
	maxLive  int

	failSearch      error
	failTotal       error
	failCursorAfter int
	failCursorErr   error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		terms: make(map[ir.Role]map[ir.ID]string),
		ids:   make(map[ir.Role]map[string]ir.ID),
	}
	for _, role := range ir.Roles {
		m.terms[role] = make(map[ir.ID]string)
		m.ids[role] = make(map[string]ir.ID)
	}
	return m
}

// NewMemoryStoreFromStrings builds a store from textual triples, assigning
// ids per role in binary string order from 1, like the SQLite import.
func NewMemoryStoreFromStrings(triples []ir.TripleString) *MemoryStore {
	m := NewMemoryStore()
	for _, role := range ir.Roles {
		values := make([]string, 0, len(triples))
		for _, ts := range triples {
			values = append(values, ts.Term(role))
		}
		slices.Sort(values)
		for i, v := range slices.Compact(values) {
			m.AddTerm(role, ir.ID(i+1), v)
		}
	}
	for _, ts := range triples {
		m.AddTriple(
			m.ids[ir.RoleSubject][ts.Subject],
			m.ids[ir.RolePredicate][ts.Predicate],
			m.ids[ir.RoleObject][ts.Object],
		)
	}
	return m
}

// AddTerm registers value under id in role. Panics on id 0.
func (m *MemoryStore) AddTerm(role ir.Role, id ir.ID, value string) *MemoryStore {
	if id == ir.Wildcard {
		panic("MemoryStore: term id 0 is reserved")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms[role][id] = value
	m.ids[role][value] = id
	return m
}

// AddTriple stores (s, p, o), keeping canonical order and ignoring duplicates.
func (m *MemoryStore) AddTriple(s, p, o ir.ID) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := ir.Triple{Subject: s, Predicate: p, Object: o}
	i, found := slices.BinarySearchFunc(m.triples, t, compareTriples)
	if !found {
		m.triples = slices.Insert(m.triples, i, t)
	}
	return m
}

// SetSubstringUnavailable makes SubstringSearch report UNSUPPORTED_CAPABILITY.
func (m *MemoryStore) SetSubstringUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.substringUnavailable = unavailable
}

// FailSearch makes every Search return err (nil restores normal behaviour).
func (m *MemoryStore) FailSearch(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSearch = err
}

// FailTotalCount makes TotalCount return err (nil restores normal behaviour).
func (m *MemoryStore) FailTotalCount(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTotal = err
}

// FailCursorAfter makes cursors opened from now on return err after
// yielding n triples (nil err restores normal behaviour).
func (m *MemoryStore) FailCursorAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCursorAfter = n
	m.failCursorErr = err
}

// Searches returns the number of Search calls, failed ones included.
func (m *MemoryStore) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

// LiveCursors returns the number of cursors opened and not yet closed.
func (m *MemoryStore) LiveCursors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// MaxLiveCursors returns the highest number of simultaneously live cursors.
func (m *MemoryStore) MaxLiveCursors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxLive
}

// Triples returns a copy of the stored triples in canonical order.
func (m *MemoryStore) Triples() []ir.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.triples)
}

// IDToString implements engine.Dictionary.
func (m *MemoryStore) IDToString(ctx context.Context, id ir.ID, role ir.Role) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.terms[role][id]
	if !ok {
		return "", ir.NewIOError("id to string", fmt.Errorf("%s id %d not in dictionary", role, id))
	}
	return v, nil
}

// StringToID implements engine.Dictionary.
func (m *MemoryStore) StringToID(ctx context.Context, term string, role ir.Role) (ir.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[role][term], nil
}

// NumTerms implements engine.Dictionary.
// Reports the highest registered id, which equals the term count when ids
// are dense.
func (m *MemoryStore) NumTerms(ctx context.Context, role ir.Role) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var highest ir.ID
	for id := range m.terms[role] {
		highest = max(highest, id)
	}
	return uint64(highest), nil
}

// SubstringSearch implements engine.SubstringSearcher.
func (m *MemoryStore) SubstringSearch(ctx context.Context, needle string, caseInsensitive bool, offset, limit int) ([]ir.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.substringUnavailable {
		return nil, ir.NewUnsupportedCapabilityError("substring search")
	}
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("offset and limit must be >= 0, got %d and %d", offset, limit)
	}

	fold := cases.Fold()
	if caseInsensitive {
		needle = fold.String(needle)
	}

	ids := make([]ir.ID, 0)
	for id, v := range m.terms[ir.RoleObject] {
		if caseInsensitive {
			v = fold.String(v)
		}
		if strings.Contains(v, needle) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	if offset >= len(ids) {
		return []ir.ID{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

// Search implements engine.Triples.
func (m *MemoryStore) Search(ctx context.Context, p ir.Pattern) (ir.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searches++
	if m.failSearch != nil {
		return nil, m.failSearch
	}

	var matches []ir.Triple
	for _, t := range m.triples {
		if p.Match(t) {
			matches = append(matches, t)
		}
	}

	c := &memCursor{
		store:     m,
		triples:   matches,
		failAfter: m.failCursorAfter,
		failErr:   m.failCursorErr,
	}
	m.live++
	m.maxLive = max(m.maxLive, m.live)
	return c, nil
}

// TotalCount implements engine.Triples.
func (m *MemoryStore) TotalCount(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failTotal != nil {
		return 0, m.failTotal
	}
	return uint64(len(m.triples)), nil
}

// WithoutSubstring returns a view of m that does not implement
// SubstringSearch at all.
func (m *MemoryStore) WithoutSubstring() *PlainStore {
	return &PlainStore{m: m}
}

func (m *MemoryStore) cursorClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live--
}

type memCursor struct {
	store     *MemoryStore
	triples   []ir.Triple
	pos       int
	closed    bool
	failAfter int
	failErr   error
}

func (c *memCursor) Next(ctx context.Context) (ir.Triple, error) {
	if c.closed {
		return ir.Triple{}, ir.ErrCursorDone
	}
	if err := ctx.Err(); err != nil {
		return ir.Triple{}, err
	}
	if c.failErr != nil && c.pos >= c.failAfter {
		return ir.Triple{}, c.failErr
	}
	if c.pos >= len(c.triples) {
		return ir.Triple{}, ir.ErrCursorDone
	}
	t := c.triples[c.pos]
	c.pos++
	return t, nil
}

func (c *memCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.cursorClosed()
	return nil
}

// PlainStore is a MemoryStore view without the substring capability.
type PlainStore struct {
	m *MemoryStore
}

// IDToString implements engine.Dictionary.
func (p *PlainStore) IDToString(ctx context.Context, id ir.ID, role ir.Role) (string, error) {
	return p.m.IDToString(ctx, id, role)
}

// StringToID implements engine.Dictionary.
func (p *PlainStore) StringToID(ctx context.Context, term string, role ir.Role) (ir.ID, error) {
	return p.m.StringToID(ctx, term, role)
}

// NumTerms implements engine.Dictionary.
func (p *PlainStore) NumTerms(ctx context.Context, role ir.Role) (uint64, error) {
	return p.m.NumTerms(ctx, role)
}

// Search implements engine.Triples.
func (p *PlainStore) Search(ctx context.Context, pat ir.Pattern) (ir.Cursor, error) {
	return p.m.Search(ctx, pat)
}

// TotalCount implements engine.Triples.
func (p *PlainStore) TotalCount(ctx context.Context) (uint64, error) {
	return p.m.TotalCount(ctx)
}

func compareTriples(a, b ir.Triple) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
