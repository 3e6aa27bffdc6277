// Package domain defines the core entities for wearsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceRecord: a nested JSON document as returned by the provider
//   - Row: a flat, typed row ready for a destination table
//   - ColumnSet: the columns a destination table accepts
//   - SyncWindow: the inclusive date range a run covers
//   - Archive: the untransformed documents collected during a run
//   - RunSummary: the aggregated per-unit outcome of a run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
