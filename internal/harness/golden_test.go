package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleq/internal/ir"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_BudgetedDrain(t *testing.T) {
	scenario := &Scenario{
		Name:        "budgeted_drain",
		Description: "Drain alice one triple per slice, then select and join",
		SessionID:   "golden-1",
		Dataset:     Dataset{Triples: sampleTriples()},
		Budget:      &Budget{MaxIterations: 1},
		Steps: []Step{
			{Action: ActionSetPattern, Pattern: &PatternArgs{Subject: "alice"}},
			{Action: ActionRunPending},
			{Action: ActionRunPending},
			{Action: ActionSelectNearest, X: 1, Y: 0},
			{Action: ActionJoin, Join: &JoinArgs{Filter: "likes;chee", Hops: 1}},
		},
	}

	require.NoError(t, RunWithGolden(t, scenario))
}

func TestRunWithGolden_NoSubstringIndex(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_substring_index",
		Description: "An unknown object and a join without substring search",
		SessionID:   "golden-2",
		Dataset:     Dataset{Triples: sampleTriples(), NoSubstringIndex: true},
		Steps: []Step{
			{Action: ActionSetPattern, Pattern: &PatternArgs{Object: "nothing"}},
			{Action: ActionJoin, Join: &JoinArgs{Filter: "likes;chee", Hops: 1},
				Expect: &Expect{Error: string(ir.ErrCodeUnsupportedCapability)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)
	require.NoError(t, AssertGolden(t, scenario.Name, result))
}

func TestSnapshot_Fields(t *testing.T) {
	result := NewResult()
	result.SessionID = "snap"
	result.Trace = []TraceEvent{
		{Seq: 1, Step: -1, Type: "dataset_replaced", Generation: 1},
		{Seq: 2, Step: 0, Type: TraceRow, Row: &ir.Row{Subject: "s", Predicate: "p", Object: "o"}},
		{Seq: 3, Step: 1, Type: TraceError, Error: "IO"},
	}

	got, err := Snapshot("snap", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"snap","session_id":"snap","trace":[`+
			`{"count":0,"final":false,"generation":1,"seq":1,"step":-1,"type":"dataset_replaced"},`+
			`{"row":{"object":"o","predicate":"p","subject":"s"},"seq":2,"step":0,"type":"row"},`+
			`{"error":"IO","seq":3,"step":1,"type":"error"}]}`,
		string(got))
}

func TestSnapshot_EmptyTrace(t *testing.T) {
	got, err := Snapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","session_id":"","trace":[]}`, string(got))
}
