package garmin

import (
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	c "github.com/custodia-labs/wearsync/internal/normalisers/coerce"
)

// RestingHRMetric is the metrics map key of the resting heart rate series.
const RestingHRMetric = "WELLNESS_RESTING_HEART_RATE"

// Ensure RestingHRNormaliser implements the interface.
var _ driven.Normaliser = (*RestingHRNormaliser)(nil)

// RestingHRNormaliser handles resting heart rate range documents.
type RestingHRNormaliser struct{}

// NewRestingHR creates a new resting heart rate normaliser.
func NewRestingHR() *RestingHRNormaliser {
	return &RestingHRNormaliser{}
}

// Kind returns the record kind this normaliser handles.
func (n *RestingHRNormaliser) Kind() domain.RecordKind { return domain.KindRestingHeartRate }

// Table returns the destination table.
func (n *RestingHRNormaliser) Table() string { return domain.TableRestingHR }

// Normalise emits one row per day of the range document. Days without a
// calendar date are dropped since they have no key.
func (n *RestingHRNormaliser) Normalise(doc domain.SourceRecord, _ time.Time) []domain.Row {
	entries := RestingHREntries(doc)
	rows := make([]domain.Row, 0, len(entries))
	for _, e := range entries {
		if row := RestingHR(e); row["calendar_date"] != nil {
			rows = append(rows, row)
		}
	}
	return rows
}

// RestingHREntries splits a range document into its daily values.
func RestingHREntries(doc domain.SourceRecord) []domain.SourceRecord {
	list, _ := lookup(doc, "allMetrics", "metricsMap", RestingHRMetric).([]any)
	entries := make([]domain.SourceRecord, 0, len(list))
	for _, item := range list {
		if m, ok := asMap(item); ok {
			entries = append(entries, domain.SourceRecord(m))
		}
	}
	return entries
}

// RestingHR maps one daily value to a resting_heart_rate row.
func RestingHR(entry domain.SourceRecord) domain.Row {
	return finish(domain.Row{
		"calendar_date":      c.StringOrNil(entry["calendarDate"]),
		"resting_heart_rate": c.IntOrNil(entry["value"]),
	}, entry)
}
