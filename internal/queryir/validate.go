package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/tripleq/internal/ir"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violated rule.
	Problems []string
}

// Validate checks a query against the rules both evaluators rely on:
//  1. Join hops are OneHop or TwoHop (joins beyond two hops are not supported)
//  2. Join predicate and literal are non-empty
//  3. Join offset and limit are non-negative
//  4. Select terms have no surrounding whitespace and IRIs are given
//     without angle brackets, the form the store records terms in
//
// Unresolvable Select terms are a runtime condition, not a validation error.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil select")
			return
		}
		v.validateSelect(*query)
	case Join:
		v.validateJoin(query)
	case *Join:
		if query == nil {
			v.addProblem("nil join")
			return
		}
		v.validateJoin(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(s Select) {
	for _, role := range ir.Roles {
		term := s.Pattern.Term(role)
		if term != strings.TrimSpace(term) {
			v.addProblem("%s %q has surrounding whitespace", role, term)
		}
		if len(term) > 1 && term[0] == '<' && term[len(term)-1] == '>' {
			v.addProblem("%s %q must be given without angle brackets", role, term)
		}
	}
}

func (v *validator) validateJoin(j Join) {
	if j.Hops != OneHop && j.Hops != TwoHop {
		v.addProblem("hops must be %d or %d, got %d", OneHop, TwoHop, j.Hops)
	}
	if j.Predicate == "" {
		v.addProblem("predicate is required")
	}
	if j.Literal == "" {
		v.addProblem("literal is required")
	}
	if j.Offset < 0 {
		v.addProblem("offset must be >= 0, got %d", j.Offset)
	}
	if j.Limit < 0 {
		v.addProblem("limit must be >= 0, got %d", j.Limit)
	}
}
