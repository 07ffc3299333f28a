// Package engine is the stateful service around the report generator.
//
// It validates requests, issues idempotency keys, caches reports by address
// and records each answered request in the store. Concurrent requests for
// the same idempotency key, or for the same uncached address, are collapsed
// with singleflight so a report is generated and stored once.
//
// Every stored row is stamped with a seq from the logical Clock. The clock
// resumes from the highest stored seq when the service starts.
//
// Replaying an idempotency key returns the report it was first answered
// with. Reusing a key for a different address or user is a conflict.
package engine
