package queryir

import "github.com/roach88/tripleq/internal/ir"

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Select is a single triple pattern query.
//
// Empty components of Pattern are wildcards. An all-empty pattern counts
// the whole store without opening a cursor.
type Select struct {
	Pattern ir.TripleString
}

func (Select) queryNode() {}

// Hop counts supported by Join.
const (
	OneHop = 1
	TwoHop = 2
)

// Join is a substring-driven index-nested-loop join.
//
// Semantics (one hop):
//
//	for each object o whose string contains Literal (window Offset/Limit):
//	    for each (s, Predicate, o):
//	        emit (s, o)
//
// Two hops additionally expand every hop-1 subject s:
//
//	for each (s, p2, o2):
//	    emit (s, p2, o2)
//
// Rows are emitted candidate-major and store-canonical-minor. Duplicate
// rows reachable through different candidates are emitted every time
// unless Distinct is set.
type Join struct {
	Predicate       string // predicate term, without angle brackets
	Literal         string // substring searched in object strings
	CaseInsensitive bool
	Offset          int // candidates skipped before the first one used
	Limit           int // maximum candidates used; 0 = no limit
	Hops            int // OneHop or TwoHop
	Distinct        bool
}

func (Join) queryNode() {}
