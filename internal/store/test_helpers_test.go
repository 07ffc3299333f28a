package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/buildcheck/internal/ir"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot builds a minimal report for an address.
func createTestSnapshot(address string, status ir.Status) ir.SnapshotResult {
	return ir.SnapshotResult{
		ID:             ir.MustSnapshotID(ir.AddressKey(address), "cat1"),
		SchemaVersion:  ir.SchemaVersion,
		EngineVersion:  ir.EngineVersion,
		CatalogVersion: "cat1",
		Address:        address,
		City:           "Kent",
		OverallStatus:  status,
		Structures:     []ir.Structure{{ID: "primary", Type: ir.StructurePrimaryDwelling, HeightFeet: ir.Float(22.5)}},
		DataGaps:       []ir.DataGap{{Category: "survey", Description: "Lot <not> surveyed & unverified"}},
	}
}
