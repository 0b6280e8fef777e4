package ir

// Version constants for the store format and the query engine.
const (
	// StoreFormatVersion is written to the store meta table on import.
	StoreFormatVersion = "1"

	// EngineVersion is the tripleq engine version.
	EngineVersion = "0.1.0"
)
