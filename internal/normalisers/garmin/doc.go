// Package garmin provides normalisers for Garmin Connect documents.
//
// This package contains normalisers for:
//   - Activities (table activities)
//   - Daily wellness summaries (table daily_stats)
//   - Sleep payloads (table sleep_summary)
//   - Body composition weigh-ins (table weight)
//   - Any other kind through the generic snake_case flattener
//
// Dedicated normalisers use explicit field maps. Every row they produce
// carries the untransformed document in the data column.
package garmin
