package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError_Error(t *testing.T) {
	err := NewUnresolvedTermError(RolePredicate, "http://ex.org/p")
	assert.Equal(t, `UNRESOLVED_TERM: term not found in dictionary (predicate="http://ex.org/p")`, err.Error())

	ioErr := NewIOError("search triples", errors.New("disk gone"))
	assert.Equal(t, "IO: search triples: disk gone", ioErr.Error())
}

func TestQueryError_Helpers(t *testing.T) {
	unresolved := fmt.Errorf("resolve: %w", NewUnresolvedTermError(RoleObject, "x"))
	unsupported := fmt.Errorf("join: %w", NewUnsupportedCapabilityError("substring search"))
	cause := errors.New("boom")
	ioErr := fmt.Errorf("open: %w", NewIOError("open store", cause))

	assert.True(t, IsUnresolvedTerm(unresolved))
	assert.False(t, IsUnresolvedTerm(unsupported))

	assert.True(t, IsUnsupportedCapability(unsupported))
	assert.False(t, IsUnsupportedCapability(ioErr))

	assert.True(t, IsIOError(ioErr))
	assert.ErrorIs(t, ioErr, cause)

	assert.False(t, IsIOError(errors.New("plain")))
	assert.False(t, IsIOError(nil))
}
