package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleq/internal/ir"
)

func TestValidate_Select(t *testing.T) {
	res := Validate(Select{Pattern: ir.TripleString{Predicate: "p"}})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Problems)

	res = Validate(Select{})
	assert.True(t, res.Valid)

	res = Validate(&Select{Pattern: ir.TripleString{Object: `"<b>bold</b>"`}})
	assert.True(t, res.Valid, "literals may contain brackets")
}

func TestValidate_SelectTerms(t *testing.T) {
	tests := []struct {
		name     string
		pattern  ir.TripleString
		problems int
	}{
		{"bracketed iri", ir.TripleString{Subject: "<http://ex/a>"}, 1},
		{"padded term", ir.TripleString{Predicate: " p"}, 1},
		{"both", ir.TripleString{Subject: "<s>", Object: "o\n"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(Select{Pattern: tt.pattern})
			assert.False(t, res.Valid)
			assert.Len(t, res.Problems, tt.problems, "problems: %v", res.Problems)
		})
	}
}

func TestValidate_Join(t *testing.T) {
	tests := []struct {
		name     string
		join     Join
		problems int
	}{
		{"one hop", Join{Predicate: "p", Literal: "foo", Hops: OneHop}, 0},
		{"two hop", Join{Predicate: "p", Literal: "foo", Hops: TwoHop, Limit: 10}, 0},
		{"three hop", Join{Predicate: "p", Literal: "foo", Hops: 3}, 1},
		{"zero hop", Join{Predicate: "p", Literal: "foo"}, 1},
		{"missing predicate", Join{Literal: "foo", Hops: OneHop}, 1},
		{"missing literal", Join{Predicate: "p", Hops: OneHop}, 1},
		{"negative window", Join{Predicate: "p", Literal: "foo", Hops: OneHop, Offset: -1, Limit: -1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.join)
			assert.Len(t, res.Problems, tt.problems, "problems: %v", res.Problems)
			assert.Equal(t, tt.problems == 0, res.Valid)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.False(t, Validate(nil).Valid)
	var j *Join
	assert.False(t, Validate(j).Valid)
}

func TestParseFilter(t *testing.T) {
	j, err := ParseFilter("http://ex.org/name;foo", OneHop)
	require.NoError(t, err)
	assert.Equal(t, Join{Predicate: "http://ex.org/name", Literal: "foo", Hops: OneHop}, j)
}

func TestParseFilter_LiteralKeepsSeparators(t *testing.T) {
	j, err := ParseFilter("p;a;b", TwoHop)
	require.NoError(t, err)
	assert.Equal(t, "p", j.Predicate)
	assert.Equal(t, "a;b", j.Literal)
	assert.Equal(t, TwoHop, j.Hops)
}

func TestParseFilter_Errors(t *testing.T) {
	_, err := ParseFilter("no separator", OneHop)
	assert.ErrorContains(t, err, "missing")

	_, err = ParseFilter(";foo", OneHop)
	assert.ErrorContains(t, err, "predicate is required")

	_, err = ParseFilter("p;", OneHop)
	assert.ErrorContains(t, err, "literal is required")

	_, err = ParseFilter("p;foo", 3)
	assert.ErrorContains(t, err, "hops")
}
