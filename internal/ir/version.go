package ir

// Version constants for the engine and the snapshot schema.
const (
	// SchemaVersion is the SnapshotResult schema version.
	SchemaVersion = "1"

	// EngineVersion is the buildcheck evaluation engine version.
	EngineVersion = "0.3.0"
)
