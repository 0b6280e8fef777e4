package testutil

// FixedIDGenerator generates the same session id every time.
//
// The same scenario with the same FixedIDGenerator produces byte-identical
// event traces.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed session id generator.
//
// The id is typically set in the scenario YAML:
//
//	session_id: "test-session-1"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements engine.SessionIDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
