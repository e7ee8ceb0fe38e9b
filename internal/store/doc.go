// Package store is a SQLite log of compiled operations.
//
// Every recorded operation keeps its canonical IR, its fingerprint and the
// models it references, so two compilations of the same request can be
// compared after a metadata or compiler change.
//
//   - compiled_operations: one row per request id, append-only
//   - model_usage: per-operation model reference counts
//
// Rows are ordered by seq (a logical clock), never by timestamps. Identical
// request ids are recorded once; a second Record is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
