package domain

import "sort"

// DataColumn is the reserved passthrough column holding the whole
// untransformed source document of a row.
const DataColumn = "data"

// SourceRecord is a nested JSON document produced by the provider for one
// date or one activity. Numbers are kept as json.Number by the source client.
// It is only persisted through the backup archive.
type SourceRecord map[string]any

// Row is a flat mapping from snake_case column name to a scalar value
// (int64, float64, bool, string or nil). The only nested value allowed is
// the DataColumn passthrough.
type Row map[string]any

// Keys returns the row's column names in sorted order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RecordKind identifies a category of provider data.
type RecordKind string

const (
	// KindActivities is the list of recorded activities.
	KindActivities RecordKind = "activities"

	// KindDailyStats is the per-day wellness summary.
	KindDailyStats RecordKind = "daily_stats"

	// KindSleep is the per-day sleep payload.
	KindSleep RecordKind = "sleep"

	// KindWeight is the body composition (weigh-ins) over a date range.
	KindWeight RecordKind = "weight"

	// KindHydration is the per-day hydration summary.
	KindHydration RecordKind = "hydration"

	// KindRestingHeartRate is the resting heart rate series over a date range.
	KindRestingHeartRate RecordKind = "rhr"
)

// AllKinds returns every record kind in processing order.
func AllKinds() []RecordKind {
	return []RecordKind{KindActivities, KindDailyStats, KindSleep, KindWeight, KindHydration, KindRestingHeartRate}
}

// ParseRecordKind validates a record kind name.
func ParseRecordKind(s string) (RecordKind, bool) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, true
		}
	}
	// "monitoring" is the name older configurations used for daily stats.
	if s == "monitoring" {
		return KindDailyStats, true
	}
	return "", false
}

// Destination table names.
const (
	TableActivities   = "activities"
	TableDailyStats   = "daily_stats"
	TableSleepSummary = "sleep_summary"
	TableWeight       = "weight"
	TableHydration    = "daily_hydration"
	TableRestingHR    = "resting_heart_rate"
)
