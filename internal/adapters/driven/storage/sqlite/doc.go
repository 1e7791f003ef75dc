// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: derived tags, lemmas and topic groups
//   - TaskStore: tasks, batch state and execution history
//   - RawResultStore: raw provider output awaiting parsing
//   - TagStore: per-owner tag classifications
//   - WorkQueue: shared queues with atomic claim
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-segmenter/data/segmenter.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. A queue claim is a single DELETE ... RETURNING statement,
// so two workers can never receive the same record.
package sqlite
