package garmin

import (
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	c "github.com/custodia-labs/wearsync/internal/normalisers/coerce"
)

// Ensure WeightNormaliser implements the interface.
var _ driven.Normaliser = (*WeightNormaliser)(nil)

// WeightNormaliser handles body composition documents.
type WeightNormaliser struct{}

// NewWeight creates a new weight normaliser.
func NewWeight() *WeightNormaliser {
	return &WeightNormaliser{}
}

// Kind returns the record kind this normaliser handles.
func (n *WeightNormaliser) Kind() domain.RecordKind { return domain.KindWeight }

// Table returns the destination table.
func (n *WeightNormaliser) Table() string { return domain.TableWeight }

// Normalise emits one row per weigh-in of the range document.
func (n *WeightNormaliser) Normalise(doc domain.SourceRecord, _ time.Time) []domain.Row {
	entries := WeightEntries(doc)
	rows := make([]domain.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Weight(e))
	}
	return rows
}

// WeightEntries splits a body composition document into its weigh-ins.
// Entries that are not objects are skipped.
func WeightEntries(doc domain.SourceRecord) []domain.SourceRecord {
	list, _ := doc["dateWeightList"].([]any)
	entries := make([]domain.SourceRecord, 0, len(list))
	for _, item := range list {
		if m, ok := asMap(item); ok {
			entries = append(entries, domain.SourceRecord(m))
		}
	}
	return entries
}

// Weight maps one weigh-in to a weight row. Weight is in grams.
func Weight(entry domain.SourceRecord) domain.Row {
	return finish(domain.Row{
		"sample_pk":       c.IntOrNil(entry["samplePk"]),
		"calendar_date":   c.StringOrNil(entry["calendarDate"]),
		"timestamp":       c.IntOrNil(entry["date"]),
		"weight":          c.FloatOrNil(entry["weight"]),
		"bmi":             c.FloatOrNil(entry["bmi"]),
		"body_fat":        c.FloatOrNil(entry["bodyFat"]),
		"body_water":      c.FloatOrNil(entry["bodyWater"]),
		"bone_mass":       c.FloatOrNil(entry["boneMass"]),
		"muscle_mass":     c.FloatOrNil(entry["muscleMass"]),
		"physique_rating": c.FloatOrNil(entry["physiqueRating"]),
		"visceral_fat":    c.FloatOrNil(entry["visceralFat"]),
		"metabolic_age":   c.IntOrNil(entry["metabolicAge"]),
		"source_type":     c.StringOrNil(entry["sourceType"]),
	}, entry)
}
