// Package harness runs scripted Session scenarios for conformance testing.
//
// A scenario imports a small dataset, drives a Session through a list of
// steps and checks the resulting event trace and final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_id: test-session-1
//	dataset:
//	  triples:
//	    - [alice, knows, bob]
//	budget:
//	  max_iterations: 1
//	steps:
//	  - action: set_pattern
//	    pattern: { subject: alice }
//	    expect: { count: 0, final: false, pending: 1 }
//	  - action: advance_all
//	    expect: { count: 1, final: true }
//	assertions:
//	  - type: trace_order
//	    events: [pattern_changed, count_updated, count_finalized]
//	  - type: final_state
//	    state: { count: 1 }
//
// # Assertion Types
//
//   - trace_contains: an event of the type is in the trace, optionally with a count
//   - trace_order: event types appear in the given order
//   - trace_count: an event type appears exactly N times
//   - final_state: compares the session state after the last step
//
// # Deterministic Testing
//
// The harness uses a fixed session id (testutil.FixedIDGenerator), a
// frozen wall clock (testutil.FakeClock) and a fresh in-memory SQLite
// store per scenario. Budgets are iteration counts only, so the same
// scenario always produces the same trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/drain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
