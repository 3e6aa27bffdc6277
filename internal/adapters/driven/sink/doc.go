// Package sink groups the remote destination adapters.
//
// Each subpackage implements driven.Sink:
//
//   - postgrest: Supabase/PostgREST REST endpoint (default)
//   - postgres: direct Postgres connection through lib/pq
//
// The local SQLite sink lives in storage/sqlite next to the run history it
// shares a database with. Every implementation upserts with
// merge-on-conflict semantics.
package sink
