package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/buildcheck/internal/ir"
)

// Summary is a stored report without its body.
type Summary struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	CatalogVersion string    `json:"catalogVersion"`
	OverallStatus  ir.Status `json:"overallStatus"`
	Seq            int64     `json:"seq"`
}

const selectRequest = `SELECT idempotency_key, user_id, address_key, snapshot_id, seq FROM snapshot_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var r Request
	if err := row.Scan(&r.IdempotencyKey, &r.UserID, &r.AddressKey, &r.SnapshotID, &r.Seq); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Snapshot returns the report with the given ID.
func (s *Store) Snapshot(ctx context.Context, id string) (ir.SnapshotResult, error) {
	return s.snapshotWhere(ctx, `id = ?`, id)
}

// SnapshotByAddress returns the report cached for an address key under the
// given catalog version and the current engine version.
func (s *Store) SnapshotByAddress(ctx context.Context, addressKey, catalogVersion string) (ir.SnapshotResult, error) {
	return s.snapshotWhere(ctx, `address_key = ? AND catalog_version = ? AND engine_version = ?`,
		addressKey, catalogVersion, ir.EngineVersion)
}

func (s *Store) snapshotWhere(ctx context.Context, where string, args ...any) (ir.SnapshotResult, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE `+where, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.SnapshotResult{}, ErrNotFound
	}
	if err != nil {
		return ir.SnapshotResult{}, fmt.Errorf("read snapshot: %w", err)
	}
	return unmarshalSnapshot(body)
}

// Request returns the request stored under an idempotency key.
func (s *Store) Request(ctx context.Context, key string) (Request, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, selectRequest+` WHERE idempotency_key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}
	return r, nil
}

// Requests returns a user's requests, newest first. A limit of 0 or less
// returns all of them.
func (s *Store) Requests(ctx context.Context, userID string, limit int) ([]Request, error) {
	query := selectRequest + ` WHERE user_id = ? ORDER BY seq DESC, idempotency_key COLLATE BINARY ASC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}

// History returns stored reports, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]Summary, error) {
	query := `
		SELECT id, address, catalog_version, overall_status, seq
		FROM snapshots
		ORDER BY seq DESC, id COLLATE BINARY ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var status string
		if err := rows.Scan(&sum.ID, &sum.Address, &sum.CatalogVersion, &status, &sum.Seq); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		sum.OverallStatus = ir.Status(status)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
