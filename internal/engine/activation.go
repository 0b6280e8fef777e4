package engine

import "github.com/roach88/tripleq/internal/ir"

// PredicateActivation tracks which predicates are visible and which one is
// current.
//
// Predicate ids are 1-based. Ids outside 1..Len are inactive and ignored by
// SetActive. The current predicate is independent of activation; 0 means
// none.
//
// Not safe for concurrent use; the Session guards its instance.
type PredicateActivation struct {
	active  []bool
	current ir.ID
}

// NewPredicateActivation returns an activation for n predicates, all active.
func NewPredicateActivation(n uint64) *PredicateActivation {
	a := &PredicateActivation{}
	a.RefreshAll(n)
	return a
}

// Len returns the number of predicates tracked.
func (a *PredicateActivation) Len() int {
	return len(a.active)
}

// IsActive reports whether predicate id is active.
func (a *PredicateActivation) IsActive(id ir.ID) bool {
	if !a.inRange(id) {
		return false
	}
	return a.active[id-1]
}

// SetActive sets the state of predicate id. Out of range ids are ignored.
func (a *PredicateActivation) SetActive(id ir.ID, active bool) {
	if !a.inRange(id) {
		return
	}
	a.active[id-1] = active
}

// SetAll sets every predicate to active, or every one to inactive.
func (a *PredicateActivation) SetAll(active bool) {
	for i := range a.active {
		a.active[i] = active
	}
}

// SelectCurrent sets the current predicate. 0 clears it.
func (a *PredicateActivation) SelectCurrent(id ir.ID) {
	a.current = id
}

// Current returns the current predicate, or 0.
func (a *PredicateActivation) Current() ir.ID {
	return a.current
}

// RefreshAll resizes to n predicates, activates all of them and clears the
// current predicate.
func (a *PredicateActivation) RefreshAll(n uint64) {
	a.active = make([]bool, n)
	for i := range a.active {
		a.active[i] = true
	}
	a.current = ir.Wildcard
}

// ActiveIDs returns the active predicate ids in ascending order.
func (a *PredicateActivation) ActiveIDs() []ir.ID {
	ids := make([]ir.ID, 0, len(a.active))
	for i, on := range a.active {
		if on {
			ids = append(ids, ir.ID(i+1))
		}
	}
	return ids
}

func (a *PredicateActivation) inRange(id ir.ID) bool {
	return id >= 1 && uint64(id) <= uint64(len(a.active))
}
