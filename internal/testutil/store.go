package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/buildcheck/internal/store"
)

// NewStore opens a store in a temp dir, closed when the test ends.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "buildcheck.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
