package garmin

import (
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	c "github.com/custodia-labs/wearsync/internal/normalisers/coerce"
)

const sleepSummaryKey = "dailySleepDTO"

// Ensure SleepNormaliser implements the interface.
var _ driven.Normaliser = (*SleepNormaliser)(nil)

// SleepNormaliser handles daily sleep payloads.
type SleepNormaliser struct{}

// NewSleep creates a new sleep normaliser.
func NewSleep() *SleepNormaliser {
	return &SleepNormaliser{}
}

// Kind returns the record kind this normaliser handles.
func (n *SleepNormaliser) Kind() domain.RecordKind { return domain.KindSleep }

// Table returns the destination table.
func (n *SleepNormaliser) Table() string { return domain.TableSleepSummary }

// Normalise returns the summary row, or nothing when the night was not recorded.
func (n *SleepNormaliser) Normalise(doc domain.SourceRecord, _ time.Time) []domain.Row {
	row, ok := SleepSummary(doc)
	if !ok {
		return nil
	}
	return []domain.Row{row}
}

// SleepSummary maps a sleep payload to a sleep_summary row. It reports false
// when the summary sub-document has no calendar date.
func SleepSummary(doc domain.SourceRecord) (domain.Row, bool) {
	if lookup(doc, sleepSummaryKey, "calendarDate") == nil {
		return nil, false
	}
	dto := func(key string) any { return lookup(doc, sleepSummaryKey, key) }

	return finish(domain.Row{
		"calendar_date":               c.StringOrNil(dto("calendarDate")),
		"sleep_time_seconds":          c.IntOrNil(dto("sleepTimeSeconds")),
		"nap_time_seconds":            c.IntOrNil(dto("napTimeSeconds")),
		"deep_sleep_seconds":          c.IntOrNil(dto("deepSleepSeconds")),
		"light_sleep_seconds":         c.IntOrNil(dto("lightSleepSeconds")),
		"rem_sleep_seconds":           c.IntOrNil(dto("remSleepSeconds")),
		"awake_sleep_seconds":         c.IntOrNil(dto("awakeSleepSeconds")),
		"awake_count":                 c.IntOrNil(dto("awakeCount")),
		"sleep_start_timestamp_gmt":   c.IntOrNil(dto("sleepStartTimestampGMT")),
		"sleep_end_timestamp_gmt":     c.IntOrNil(dto("sleepEndTimestampGMT")),
		"sleep_start_timestamp_local": c.IntOrNil(dto("sleepStartTimestampLocal")),
		"sleep_end_timestamp_local":   c.IntOrNil(dto("sleepEndTimestampLocal")),
		"average_sp_o2":               c.FloatOrNil(dto("averageSpO2Value")),
		"lowest_sp_o2":                c.FloatOrNil(dto("lowestSpO2Value")),
		"average_respiration":         c.FloatOrNil(dto("averageRespirationValue")),
		"avg_sleep_stress":            c.FloatOrNil(dto("avgSleepStress")),
		"sleep_score":                 c.IntOrNil(lookup(doc, sleepSummaryKey, "sleepScores", "overall", "value")),
		"sleep_score_qualifier":       c.StringOrNil(lookup(doc, sleepSummaryKey, "sleepScores", "overall", "qualifierKey")),
		"resting_heart_rate":          c.IntOrNil(doc["restingHeartRate"]),
		"avg_overnight_hrv":           c.FloatOrNil(doc["avgOvernightHrv"]),
		"body_battery_change":         c.IntOrNil(doc["bodyBatteryChange"]),
	}, doc), true
}
