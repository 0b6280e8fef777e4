package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenarioYAML = `
name: drain
description: Count alice one triple at a time
session_id: test-session-1
dataset:
  triples:
    - [alice, knows, bob]
    - [alice, likes, '"cheese"']
budget:
  max_iterations: 1
buffer_limit: 10
steps:
  - action: set_pattern
    pattern: { subject: alice }
    expect: { count: 1, final: false, pending: 1 }
  - action: advance_all
    expect: { count: 2, final: true }
  - action: join
    join: { filter: "likes;chee", hops: 1, distinct: true }
    expect:
      rows:
        - [alice, '"cheese"']
assertions:
  - type: trace_order
    events: [pattern_changed, count_finalized]
  - type: final_state
    state: { count: 2, active_predicates: [1, 2] }
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "drain", s.Name)
	assert.Equal(t, "test-session-1", s.SessionID)
	assert.Len(t, s.Dataset.Triples, 2)
	require.NotNil(t, s.Budget)
	assert.Equal(t, 1, s.Budget.MaxIterations)
	require.NotNil(t, s.BufferLimit)
	assert.Equal(t, 10, *s.BufferLimit)

	require.Len(t, s.Steps, 3)
	assert.Equal(t, ActionSetPattern, s.Steps[0].Action)
	assert.Equal(t, "alice", s.Steps[0].Pattern.Subject)
	assert.Equal(t, uint64(1), *s.Steps[0].Expect.Count)
	assert.Equal(t, 1, *s.Steps[0].Expect.Pending)
	assert.True(t, s.Steps[2].Join.Distinct)
	assert.Equal(t, [][]string{{"alice", `"cheese"`}}, s.Steps[2].Expect.Rows)

	require.Len(t, s.Assertions, 2)
	assert.Equal(t, []uint64{1, 2}, s.Assertions[1].State.ActivePredicates)
}

func TestParseScenario_DefaultSessionID(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: n
description: d
steps:
  - action: close
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionID, s.SessionID)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: n\ndescription: d\nsteps: [{action: close}]\nflow_token: x\n",
			wantErr: "field flow_token not found",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{action: close}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps: [{action: close}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "both dataset forms",
			yaml:    "name: n\ndescription: d\ndataset: {triples: [[a, b, c]], ntriples: x}\nsteps: [{action: close}]\n",
			wantErr: "use triples or ntriples",
		},
		{
			name:    "short triple",
			yaml:    "name: n\ndescription: d\ndataset: {triples: [[a, b]]}\nsteps: [{action: close}]\n",
			wantErr: "dataset.triples[0]: want 3 terms, got 2",
		},
		{
			name:    "negative budget",
			yaml:    "name: n\ndescription: d\nbudget: {max_iterations: -1}\nsteps: [{action: close}]\n",
			wantErr: "budget.max_iterations must be non-negative",
		},
		{
			name:    "negative buffer limit",
			yaml:    "name: n\ndescription: d\nbuffer_limit: -1\nsteps: [{action: close}]\n",
			wantErr: "buffer_limit must be non-negative",
		},
		{
			name:    "missing action",
			yaml:    "name: n\ndescription: d\nsteps: [{x: 1}]\n",
			wantErr: "steps[0]: action is required",
		},
		{
			name:    "unknown action",
			yaml:    "name: n\ndescription: d\nsteps: [{action: explode}]\n",
			wantErr: `steps[0]: unknown action "explode"`,
		},
		{
			name:    "set_pattern without pattern",
			yaml:    "name: n\ndescription: d\nsteps: [{action: set_pattern}]\n",
			wantErr: "pattern is required for set_pattern",
		},
		{
			name:    "set_active without active",
			yaml:    "name: n\ndescription: d\nsteps: [{action: set_active, predicate: 1}]\n",
			wantErr: "active is required for set_active",
		},
		{
			name:    "join without args",
			yaml:    "name: n\ndescription: d\nsteps: [{action: join}]\n",
			wantErr: "join is required for join",
		},
		{
			name:    "bad filter",
			yaml:    "name: n\ndescription: d\nsteps: [{action: join, join: {filter: nosep, hops: 1}}]\n",
			wantErr: "missing",
		},
		{
			name:    "bad hops",
			yaml:    "name: n\ndescription: d\nsteps: [{action: join, join: {filter: 'p;x', hops: 3}}]\n",
			wantErr: "hops must be 1 or 2",
		},
		{
			name:    "selected arity",
			yaml:    "name: n\ndescription: d\nsteps: [{action: select_nearest, expect: {selected: [1, 2]}}]\n",
			wantErr: "selected must be [subject, predicate, object]",
		},
		{
			name:    "assertion without type",
			yaml:    "name: n\ndescription: d\nsteps: [{action: close}]\nassertions: [{event: x}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "trace_count without count",
			yaml:    "name: n\ndescription: d\nsteps: [{action: close}]\nassertions: [{type: trace_count, event: x}]\n",
			wantErr: "count is required for trace_count",
		},
		{
			name:    "trace_order without events",
			yaml:    "name: n\ndescription: d\nsteps: [{action: close}]\nassertions: [{type: trace_order}]\n",
			wantErr: "events list is required",
		},
		{
			name:    "final_state without state",
			yaml:    "name: n\ndescription: d\nsteps: [{action: close}]\nassertions: [{type: final_state}]\n",
			wantErr: "state is required for final_state",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nsteps: [{action: close}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenarioYAML), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "drain", s.Name)
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
