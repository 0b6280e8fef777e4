package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tripleq/internal/ir"
)

// Snapshot renders a result trace as canonical JSON, the golden file format.
//
// Session events always carry generation, count and final; the other
// fields appear only on the event types that set them.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	traceList := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		eventMap := map[string]any{
			"seq":  event.Seq,
			"step": event.Step,
			"type": event.Type,
		}
		switch event.Type {
		case TraceRow:
			eventMap["row"] = *event.Row
		case TraceSelected:
			eventMap["triple"] = *event.Triple
		case TraceError:
			eventMap["error"] = event.Error
		default:
			eventMap["generation"] = event.Generation
			eventMap["count"] = event.Count
			eventMap["final"] = event.Final
		}
		if event.Pattern != nil {
			eventMap["pattern"] = []string{event.Pattern.Subject, event.Pattern.Predicate, event.Pattern.Object}
		}
		traceList[i] = eventMap
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"session_id":    result.SessionID,
		"trace":         traceList,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
