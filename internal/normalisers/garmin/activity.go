package garmin

import (
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	c "github.com/custodia-labs/wearsync/internal/normalisers/coerce"
)

// Ensure ActivityNormaliser implements the interface.
var _ driven.Normaliser = (*ActivityNormaliser)(nil)

// ActivityNormaliser handles activity summaries from the activity list.
type ActivityNormaliser struct{}

// NewActivity creates a new activity normaliser.
func NewActivity() *ActivityNormaliser {
	return &ActivityNormaliser{}
}

// Kind returns the record kind this normaliser handles.
func (n *ActivityNormaliser) Kind() domain.RecordKind { return domain.KindActivities }

// Table returns the destination table.
func (n *ActivityNormaliser) Table() string { return domain.TableActivities }

// Normalise maps one activity to one row. The date is ignored.
func (n *ActivityNormaliser) Normalise(doc domain.SourceRecord, _ time.Time) []domain.Row {
	return []domain.Row{Activity(doc)}
}

// Activity maps an activity summary to an activities row.
func Activity(doc domain.SourceRecord) domain.Row {
	return finish(domain.Row{
		"activity_id":               c.IntOrNil(doc["activityId"]),
		"activity_name":             c.StringOrNil(doc["activityName"]),
		"activity_type":             c.StringOrNil(lookup(doc, "activityType", "typeKey")),
		"sport_type":                c.StringOrNil(lookup(doc, "eventType", "typeKey")),
		"start_time_local":          c.StringOrNil(doc["startTimeLocal"]),
		"start_time_gmt":            c.StringOrNil(doc["startTimeGMT"]),
		"distance":                  c.FloatOrNil(doc["distance"]),
		"duration":                  c.FloatOrNil(doc["duration"]),
		"moving_duration":           c.FloatOrNil(doc["movingDuration"]),
		"elapsed_duration":          c.FloatOrNil(doc["elapsedDuration"]),
		"elevation_gain":            c.FloatOrNil(doc["elevationGain"]),
		"elevation_loss":            c.FloatOrNil(doc["elevationLoss"]),
		"average_speed":             c.FloatOrNil(doc["averageSpeed"]),
		"max_speed":                 c.FloatOrNil(doc["maxSpeed"]),
		"average_hr":                c.IntOrNil(doc["averageHR"]),
		"max_hr":                    c.IntOrNil(doc["maxHR"]),
		"calories":                  c.FloatOrNil(doc["calories"]),
		"steps":                     c.IntOrNil(doc["steps"]),
		"average_running_cadence":   c.FloatOrNil(doc["averageRunningCadenceInStepsPerMinute"]),
		"vo2_max":                   c.FloatOrNil(doc["vO2MaxValue"]),
		"aerobic_training_effect":   c.FloatOrNil(doc["aerobicTrainingEffect"]),
		"anaerobic_training_effect": c.FloatOrNil(doc["anaerobicTrainingEffect"]),
		"location_name":             c.StringOrNil(doc["locationName"]),
		"has_polyline":              c.BoolOrNil(doc["hasPolyline"]),
		"manual_activity":           c.BoolOrNil(doc["manualActivity"]),
		"favorite":                  c.BoolOrNil(doc["favorite"]),
	}, doc)
}
