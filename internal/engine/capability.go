package engine

import (
	"context"

	"github.com/roach88/tripleq/internal/ir"
)

// Dictionary resolves terms to ids and back, scoped per role.
type Dictionary interface {
	// IDToString returns the term with id in role.
	IDToString(ctx context.Context, id ir.ID, role ir.Role) (string, error)

	// StringToID returns the id of term in role, or 0 if the term is unknown.
	StringToID(ctx context.Context, term string, role ir.Role) (ir.ID, error)

	// NumTerms returns the number of distinct terms in role.
	NumTerms(ctx context.Context, role ir.Role) (uint64, error)
}

// SubstringSearcher is the optional Dictionary capability joins depend on.
// It is discovered by type assertion; implementations may still report
// UNSUPPORTED_CAPABILITY at call time.
type SubstringSearcher interface {
	// SubstringSearch returns object ids whose string contains needle, in
	// ascending id order, windowed by offset and limit (0 = no limit).
	SubstringSearch(ctx context.Context, needle string, caseInsensitive bool, offset, limit int) ([]ir.ID, error)
}

// Triples answers pattern searches over the stored triples.
type Triples interface {
	// Search returns a cursor over the triples matching p in subject-major order.
	Search(ctx context.Context, p ir.Pattern) (ir.Cursor, error)

	// TotalCount returns the number of stored triples.
	TotalCount(ctx context.Context) (uint64, error)
}

// Store is a dataset handle: both capabilities over the same triples.
type Store interface {
	Dictionary
	Triples
}

// Resolve maps a textual pattern to ids.
//
// Empty components become wildcards. A non-empty component the dictionary
// does not know yields an UNRESOLVED_TERM error naming the role and term;
// it never degrades to a wildcard.
func Resolve(ctx context.Context, ts ir.TripleString, dict Dictionary) (ir.Pattern, error) {
	var slots [3]ir.ID
	for i, role := range ir.Roles {
		term := ts.Term(role)
		if term == "" {
			continue
		}
		id, err := dict.StringToID(ctx, term, role)
		if err != nil {
			return ir.Pattern{}, err
		}
		if id == ir.Wildcard {
			return ir.Pattern{}, ir.NewUnresolvedTermError(role, term)
		}
		slots[i] = id
	}
	return ir.NewPattern(slots[0], slots[1], slots[2]), nil
}
