// Package store provides SQLite-backed storage for generated reports.
//
// Two tables are kept:
//   - snapshots: report bodies keyed by their content-addressed ID, unique
//     per (address key, catalog version, engine version)
//   - snapshot_requests: one row per idempotency key, pointing at the report
//     that key was answered with
//
// Both are append-only. Writes use ON CONFLICT DO NOTHING, so replaying a
// write is a no-op and the first answer for a key is the one that sticks.
// Ordering uses the seq column (a logical clock), never timestamps.
//
// Schema changes are goose migrations embedded from migrations/.
package store
