// Package sqlite provides the ingestion ledger on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It records:
//
//   - ingest_runs: one row per indexing run with counts and failures
//   - indexed_documents: which documents the persisted index currently holds
//
// The similarity index files remain the source of truth for search; the
// ledger only backs document listings and index status.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.askdocs/data/ledger.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
