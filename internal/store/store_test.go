package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildcheck/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		version, err := s.SchemaVersion()
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		s.Close()
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyPragma(s.db, tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestVerifyPragmasRejectsRollbackJournal(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, verifyPragmas(s.db))

	_, err := s.db.Exec("PRAGMA journal_mode = DELETE")
	require.NoError(t, err)

	err = verifyPragmas(s.db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `journal_mode = "delete", expected "wal"`)
}

func TestPutSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	snap := createTestSnapshot("1 Main St, Kent, WA", ir.StatusWarn)

	require.NoError(t, s.PutSnapshot(ctx, snap, 1))

	got, err := s.Snapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	got, err = s.SnapshotByAddress(ctx, ir.AddressKey("1 MAIN ST, kent, wa"), "cat1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = s.SnapshotByAddress(ctx, ir.AddressKey("1 Main St, Kent, WA"), "other-catalog")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutSnapshotFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	snap := createTestSnapshot("1 Main St", ir.StatusPass)
	require.NoError(t, s.PutSnapshot(ctx, snap, 1))

	changed := snap
	changed.OverallStatus = ir.StatusFail
	require.NoError(t, s.PutSnapshot(ctx, changed, 2))

	got, err := s.Snapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, ir.StatusPass, got.OverallStatus)
}

func TestSnapshotNotFound(t *testing.T) {
	_, err := createTestStore(t).Snapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordRequest(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	snap := createTestSnapshot("1 Main St", ir.StatusPass)
	req := Request{IdempotencyKey: "k1", UserID: "u1", AddressKey: ir.AddressKey(snap.Address), SnapshotID: snap.ID, Seq: 1}

	stored, created, err := s.RecordRequest(ctx, snap, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, req, stored)

	// Same key again with different content keeps the original.
	other := createTestSnapshot("2 Main St", ir.StatusFail)
	stored, created, err = s.RecordRequest(ctx, other, Request{IdempotencyKey: "k1", UserID: "u2", AddressKey: "2 main st", SnapshotID: other.ID, Seq: 2})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, req, stored)

	got, err := s.Request(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, req, got)

	_, err = s.Request(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestsAndHistoryOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	addresses := []string{"1 A St", "2 B St", "3 C St"}
	for i, addr := range addresses {
		snap := createTestSnapshot(addr, ir.StatusPass)
		_, _, err := s.RecordRequest(ctx, snap, Request{
			IdempotencyKey: "key-" + addr,
			UserID:         "u1",
			AddressKey:     ir.AddressKey(addr),
			SnapshotID:     snap.ID,
			Seq:            int64(i + 1),
		})
		require.NoError(t, err)
	}

	reqs, err := s.Requests(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, int64(3), reqs[0].Seq)
	assert.Equal(t, int64(2), reqs[1].Seq)

	reqs, err = s.Requests(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)

	history, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "3 C St", history[0].Address)
	assert.Equal(t, ir.StatusPass, history[0].OverallStatus)

	seq, err := s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestMaxSeqEmpty(t *testing.T) {
	seq, err := createTestStore(t).MaxSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestMarshalSnapshotNoHTMLEscape(t *testing.T) {
	body, err := marshalSnapshot(createTestSnapshot("1 Main St", ir.StatusPass))
	require.NoError(t, err)
	assert.Contains(t, body, "<not>")
	assert.Contains(t, body, "&")
	assert.NotContains(t, body, "\n")
}

func TestMigrateRawDB(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM snapshot_requests").Scan(&count))
	assert.Zero(t, count)
}
