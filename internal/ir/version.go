package ir

// Version constants for stored results.
const (
	// IRVersion is the result value schema version.
	IRVersion = "1"

	// EngineVersion is the picoparse engine version.
	EngineVersion = "0.1.0"
)
