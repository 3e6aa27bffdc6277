package domain

import "time"

// Archive accumulates the untransformed source documents of a run.
// It is what the backup writer serialises; transformed rows are not kept.
type Archive struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Window      struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"window"`

	Activities []SourceRecord          `json:"activities"`
	DailyStats map[string]SourceRecord `json:"daily_stats"`
	Sleep      map[string]SourceRecord `json:"sleep"`
	Weight     []SourceRecord          `json:"weight"`
	Hydration  map[string]SourceRecord `json:"hydration"`
	RestingHR  []SourceRecord          `json:"rhr"`
}

// NewArchive creates an empty archive for a run.
func NewArchive(runID string, window SyncWindow) *Archive {
	a := &Archive{
		RunID:      runID,
		Activities: []SourceRecord{},
		DailyStats: make(map[string]SourceRecord),
		Sleep:      make(map[string]SourceRecord),
		Weight:     []SourceRecord{},
		Hydration:  make(map[string]SourceRecord),
		RestingHR:  []SourceRecord{},
	}
	a.Window.Start = window.Start.Format(DateLayout)
	a.Window.End = window.End.Format(DateLayout)
	return a
}

// Add stores a document under its kind. Per-day kinds are keyed by date.
func (a *Archive) Add(kind RecordKind, date time.Time, doc SourceRecord) {
	key := date.Format(DateLayout)
	switch kind {
	case KindActivities:
		a.Activities = append(a.Activities, doc)
	case KindDailyStats:
		a.DailyStats[key] = doc
	case KindSleep:
		a.Sleep[key] = doc
	case KindWeight:
		a.Weight = append(a.Weight, doc)
	case KindHydration:
		a.Hydration[key] = doc
	case KindRestingHeartRate:
		a.RestingHR = append(a.RestingHR, doc)
	}
}

// Len returns the number of documents held.
func (a *Archive) Len() int {
	return len(a.Activities) + len(a.DailyStats) + len(a.Sleep) + len(a.Weight) + len(a.Hydration) + len(a.RestingHR)
}
