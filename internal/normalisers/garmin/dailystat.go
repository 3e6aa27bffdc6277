package garmin

import (
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	c "github.com/custodia-labs/wearsync/internal/normalisers/coerce"
)

// Ensure DailyStatNormaliser implements the interface.
var _ driven.Normaliser = (*DailyStatNormaliser)(nil)

// DailyStatNormaliser handles daily wellness summaries.
type DailyStatNormaliser struct{}

// NewDailyStat creates a new daily summary normaliser.
func NewDailyStat() *DailyStatNormaliser {
	return &DailyStatNormaliser{}
}

// Kind returns the record kind this normaliser handles.
func (n *DailyStatNormaliser) Kind() domain.RecordKind { return domain.KindDailyStats }

// Table returns the destination table.
func (n *DailyStatNormaliser) Table() string { return domain.TableDailyStats }

// Normalise maps one daily summary to one row.
func (n *DailyStatNormaliser) Normalise(doc domain.SourceRecord, date time.Time) []domain.Row {
	return []domain.Row{DailyStat(doc, date)}
}

// DailyStat maps a daily summary to a daily_stats row.
// calendar_date is never null: it falls back to the processed date.
func DailyStat(doc domain.SourceRecord, date time.Time) domain.Row {
	steps := doc["totalSteps"]
	if steps == nil {
		steps = doc["steps"]
	}

	calendarDate := c.StringOrNil(doc["calendarDate"])
	if calendarDate == nil {
		calendarDate = date.Format(domain.DateLayout)
	}

	return finish(domain.Row{
		"calendar_date":              calendarDate,
		"steps":                      c.IntOrNil(steps),
		"daily_step_goal":            c.IntOrNil(doc["dailyStepGoal"]),
		"total_distance_meters":      c.IntOrNil(doc["totalDistanceMeters"]),
		"total_kilocalories":         c.FloatOrNil(doc["totalKilocalories"]),
		"active_kilocalories":        c.FloatOrNil(doc["activeKilocalories"]),
		"bmr_kilocalories":           c.FloatOrNil(doc["bmrKilocalories"]),
		"resting_heart_rate":         c.IntOrNil(doc["restingHeartRate"]),
		"min_heart_rate":             c.IntOrNil(doc["minHeartRate"]),
		"max_heart_rate":             c.IntOrNil(doc["maxHeartRate"]),
		"average_stress_level":       c.IntOrNil(doc["averageStressLevel"]),
		"max_stress_level":           c.IntOrNil(doc["maxStressLevel"]),
		"body_battery_highest":       c.IntOrNil(doc["bodyBatteryHighestValue"]),
		"body_battery_lowest":        c.IntOrNil(doc["bodyBatteryLowestValue"]),
		"floors_ascended":            c.FloatOrNil(doc["floorsAscended"]),
		"floors_descended":           c.FloatOrNil(doc["floorsDescended"]),
		"moderate_intensity_minutes": c.IntOrNil(doc["moderateIntensityMinutes"]),
		"vigorous_intensity_minutes": c.IntOrNil(doc["vigorousIntensityMinutes"]),
		"rule_type":                  c.StringOrNil(lookup(doc, "rule", "typeKey")),
		"includes_wellness_data":     c.BoolOrNil(doc["includesWellnessData"]),
	}, doc)
}
