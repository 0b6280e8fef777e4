// Package engine implements the tripleq query engine.
//
// The engine consumes a dataset through two capabilities, Dictionary and
// Triples (see capability.go), and offers two evaluators on top of them.
//
// ARCHITECTURE:
//
// Session (interactive):
// A Session owns one dataset handle and one textual search pattern. Setting
// a pattern resolves it to ids and counts its matches:
//  1. all wildcards: Triples.TotalCount, no cursor
//  2. otherwise: Triples.Search opens a cursor that is drained in slices
//  3. each slice is bounded by a DrainBudget; the rest is queued on the
//     session scheduler and picked up by RunPending or Run
//
// Listeners observe DatasetReplaced, PatternChanged, CountUpdated and
// CountFinalized events.
//
// JoinExecutor (batch):
// Substring search over object literals produces candidate ids; each
// candidate drives one pattern search (hop 1), and each hop-1 subject one
// more (hop 2). Rows go to a RowSink.
//
// CRITICAL PATTERNS:
//
// Generation-based cancellation:
// Every pattern change and dataset swap takes the next value of the
// session Clock. Queued drain slices carry the generation they were
// created under and are dropped once it is stale. Nothing cancels a drain
// explicitly.
//
// Deterministic order:
// Cursors yield subject-major order and candidates ascend by id, so a
// fixed dataset always produces the same rows and events.
package engine
