package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/buildcheck/internal/ir"
)

// marshalSnapshot converts a report to JSON TEXT for storage.
// HTML escaping is disabled so stored bodies match what the API serves.
func marshalSnapshot(snap ir.SnapshotResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	// Encoder adds a trailing newline.
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func unmarshalSnapshot(data string) (ir.SnapshotResult, error) {
	var snap ir.SnapshotResult
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return ir.SnapshotResult{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}
