package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPattern_IsEmpty(t *testing.T) {
	assert.True(t, Pattern{}.IsEmpty())
	assert.False(t, NewPattern(0, 1, 0).IsEmpty())
}

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		triple  Triple
		want    bool
	}{
		{"wildcard matches all", Pattern{}, Triple{1, 2, 3}, true},
		{"subject bound", NewPattern(1, 0, 0), Triple{1, 2, 3}, true},
		{"subject mismatch", NewPattern(2, 0, 0), Triple{1, 2, 3}, false},
		{"subject and predicate", NewPattern(1, 1, 0), Triple{1, 1, 2}, true},
		{"object mismatch", NewPattern(1, 1, 1), Triple{1, 1, 2}, false},
		{"fully bound", NewPattern(1, 2, 3), Triple{1, 2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Match(tt.triple))
		})
	}
}

func TestPattern_String(t *testing.T) {
	assert.Equal(t, "(?, 4, ?)", NewPattern(0, 4, 0).String())
	assert.Equal(t, "(1, 2, 3)", NewPattern(1, 2, 3).String())
}

func TestTriple_Less(t *testing.T) {
	assert.True(t, Triple{1, 9, 9}.Less(Triple{2, 1, 1}))
	assert.True(t, Triple{1, 1, 9}.Less(Triple{1, 2, 1}))
	assert.True(t, Triple{1, 1, 1}.Less(Triple{1, 1, 2}))
	assert.False(t, Triple{1, 1, 1}.Less(Triple{1, 1, 1}))
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "subject", RoleSubject.String())
	assert.Equal(t, "predicate", RolePredicate.String())
	assert.Equal(t, "object", RoleObject.String())
	assert.Equal(t, "role(9)", Role(9).String())
	assert.False(t, Role(0).Valid())
}

func TestTripleString_Term(t *testing.T) {
	ts := TripleString{Subject: "s", Predicate: "p", Object: "o"}
	assert.Equal(t, "s", ts.Term(RoleSubject))
	assert.Equal(t, "p", ts.Term(RolePredicate))
	assert.Equal(t, "o", ts.Term(RoleObject))
	assert.False(t, ts.IsEmpty())
	assert.True(t, TripleString{}.IsEmpty())
}

func TestRow_Fields(t *testing.T) {
	assert.Equal(t, []string{"s", "o"}, Row{Subject: "s", Object: "o"}.Fields())
	assert.Equal(t, []string{"s", "p", "o"}, Row{Subject: "s", Predicate: "p", Object: "o"}.Fields())
}
