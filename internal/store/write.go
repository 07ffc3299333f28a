package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/buildcheck/internal/ir"
)

// Request is one answered snapshot request.
type Request struct {
	IdempotencyKey string `json:"idempotencyKey"`
	UserID         string `json:"userId"`
	AddressKey     string `json:"addressKey"`
	SnapshotID     string `json:"snapshotId"`
	Seq            int64  `json:"seq"`
}

// PutSnapshot stores a report. Uses ON CONFLICT DO NOTHING: a report with
// the same ID, or for the same address under the same versions, is kept
// as first written.
func (s *Store) PutSnapshot(ctx context.Context, snap ir.SnapshotResult, seq int64) error {
	return putSnapshot(ctx, s.db, snap, seq)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putSnapshot(ctx context.Context, db execer, snap ir.SnapshotResult, seq int64) error {
	body, err := marshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, address_key, address, catalog_version, engine_version, overall_status, body, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		snap.ID,
		ir.AddressKey(snap.Address),
		snap.Address,
		snap.CatalogVersion,
		snap.EngineVersion,
		string(snap.OverallStatus),
		body,
		seq,
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// RecordRequest stores the report and the request that produced it in one
// transaction, then returns the request stored under the key. When the key
// was already used the earlier request is returned unchanged and created is
// false; the caller decides whether that is a replay or a conflict.
func (s *Store) RecordRequest(ctx context.Context, snap ir.SnapshotResult, req Request) (stored Request, created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Request{}, false, fmt.Errorf("record request: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = putSnapshot(ctx, tx, snap, req.Seq); err != nil {
		return Request{}, false, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_requests
		(idempotency_key, user_id, address_key, snapshot_id, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING
	`, req.IdempotencyKey, req.UserID, req.AddressKey, req.SnapshotID, req.Seq)
	if err != nil {
		return Request{}, false, fmt.Errorf("record request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Request{}, false, fmt.Errorf("record request: %w", err)
	}

	stored, err = scanRequest(tx.QueryRowContext(ctx, selectRequest+` WHERE idempotency_key = ?`, req.IdempotencyKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("record request: %w", ErrNotFound)
		}
		return Request{}, false, err
	}

	if err = tx.Commit(); err != nil {
		return Request{}, false, fmt.Errorf("record request: commit: %w", err)
	}
	return stored, n == 1, nil
}
