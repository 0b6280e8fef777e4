package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tripleq/internal/ir"
)

func TestPredicateActivation_AllActiveInitially(t *testing.T) {
	a := NewPredicateActivation(3)

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, []ir.ID{1, 2, 3}, a.ActiveIDs())
	assert.Equal(t, ir.ID(0), a.Current())
}

func TestPredicateActivation_OutOfRange(t *testing.T) {
	a := NewPredicateActivation(2)

	a.SetActive(0, false)
	a.SetActive(3, false)
	assert.Equal(t, []ir.ID{1, 2}, a.ActiveIDs())
	assert.False(t, a.IsActive(0))
	assert.False(t, a.IsActive(3))
}

func TestPredicateActivation_SetAll(t *testing.T) {
	a := NewPredicateActivation(4)

	a.SetAll(false)
	assert.Empty(t, a.ActiveIDs())

	a.SetActive(3, true)
	assert.Equal(t, []ir.ID{3}, a.ActiveIDs())

	a.SetAll(true)
	assert.Equal(t, []ir.ID{1, 2, 3, 4}, a.ActiveIDs())
}

func TestPredicateActivation_CurrentIsIndependent(t *testing.T) {
	a := NewPredicateActivation(2)
	a.SetActive(2, false)
	a.SelectCurrent(2)

	assert.Equal(t, ir.ID(2), a.Current())
	assert.False(t, a.IsActive(2))

	a.SelectCurrent(ir.Wildcard)
	assert.Equal(t, ir.ID(0), a.Current())
}

func TestPredicateActivation_RefreshAll(t *testing.T) {
	a := NewPredicateActivation(2)
	a.SetAll(false)
	a.SelectCurrent(1)

	a.RefreshAll(3)
	assert.Equal(t, []ir.ID{1, 2, 3}, a.ActiveIDs())
	assert.Equal(t, ir.ID(0), a.Current())

	a.RefreshAll(0)
	assert.Equal(t, 0, a.Len())
	assert.Empty(t, a.ActiveIDs())
}
