// Package store provides SQLite-backed storage for parse runs.
//
// The store is an append-only log with two tables:
//   - runs: one row per parse (grammar, input, outcome, hashes)
//   - trace_events: the engine trace of a run, in seq order
//
// # Logical Time
//
// All ordering uses seq INTEGER (logical clock), never timestamps, so two
// recordings of the same parses are byte-identical. Queries order by
// seq ASC, id COLLATE BINARY ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Input and result hashes come from internal/ir and use RFC 8785 canonical
// JSON and SHA-256 with domain separation. Replay re-parses stored input and
// compares result hashes.
package store
