package domain

import "time"

// SyncRun is the persisted history entry of one run.
type SyncRun struct {
	// ID is the run identifier, shared with the backup archive.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time

	// WindowStart and WindowEnd are the YYYY-MM-DD bounds of the run.
	WindowStart string
	WindowEnd   string

	// Status is the final RunStatus.
	Status RunStatus

	// RowsAccepted and RowsRejected are upload totals across tables.
	RowsAccepted int
	RowsRejected int

	// Failures is the number of skipped units.
	Failures int

	// Error holds the fatal error text, if any.
	Error string
}

// Duration returns how long the run took.
func (r SyncRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewSyncRun derives the history entry from a finished summary.
func NewSyncRun(s *RunSummary) SyncRun {
	return SyncRun{
		ID:           s.RunID,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		WindowStart:  s.Window.Start.Format(DateLayout),
		WindowEnd:    s.Window.End.Format(DateLayout),
		Status:       s.Status,
		RowsAccepted: s.TotalAccepted(),
		RowsRejected: s.TotalRejected(),
		Failures:     len(s.Failures),
		Error:        s.Err,
	}
}
