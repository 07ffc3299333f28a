// Package ir provides the shared feasibility types for buildcheck.
//
// This package contains type definitions and small pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// evaluation vocabulary the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Status values form a total order (see Rank and WorstOf); every aggregate
//     status in the system is computed through WorstOf
//   - Every ValidationCheck and Issue carries at least one Citation
//   - Values are constructed fresh per evaluation and never mutated afterwards
//   - Identity hashes use canonical JSON (RFC 8785) and never include wall-clock time
//   - JSON tags use camelCase to match the HTTP contract
package ir
