// Package sqlite provides the local SQLite database used both as a sink and
// as the run history store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It serves two port interfaces
// through a single database connection:
//
//   - Sink: upserts of normalised rows into the provider tables
//   - RunStore: sync run history in sync_runs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.wearsync/db/garmin.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
