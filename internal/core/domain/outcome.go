package domain

import (
	"fmt"
	"time"
)

// OutcomeStatus is the result of uploading a single row.
type OutcomeStatus int

const (
	// OutcomeAccepted indicates the sink stored the row.
	OutcomeAccepted OutcomeStatus = iota

	// OutcomeRejected indicates the sink refused the row.
	OutcomeRejected
)

func (s OutcomeStatus) String() string {
	if s == OutcomeAccepted {
		return "accepted"
	}
	return "rejected"
}

// UploadOutcome is the per-row result of an upload.
// It never propagates as an error past the sync driver.
type UploadOutcome struct {
	// Table is the destination table.
	Table string

	// Status is Accepted or Rejected.
	Status OutcomeStatus

	// StatusCode is the sink's status for a rejection (0 when not HTTP).
	StatusCode int

	// Body is the sink's response body or error text for a rejection.
	Body string
}

// Accepted reports whether the row was stored.
func (o UploadOutcome) Accepted() bool {
	return o.Status == OutcomeAccepted
}

// Stage names the part of a run a failure happened in.
type Stage string

const (
	StageLogin  Stage = "login"
	StageFetch  Stage = "fetch"
	StageSchema Stage = "schema"
	StageUpload Stage = "upload"
	StageBackup Stage = "backup"
)

// UnitFailure records one failed unit of work (a call, a row, a table).
type UnitFailure struct {
	Stage Stage
	Kind  RecordKind
	Date  string
	Table string
	Err   error
}

func (f UnitFailure) Error() string {
	where := string(f.Kind)
	if f.Table != "" {
		where = f.Table
	}
	if f.Date != "" {
		where += " " + f.Date
	}
	if where == "" {
		return fmt.Sprintf("%s: %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("%s %s: %v", f.Stage, where, f.Err)
}

// Unwrap exposes the underlying error to errors.Is.
func (f UnitFailure) Unwrap() error {
	return f.Err
}

// RunStatus is the overall result of a run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// TableCounts holds per-table upload totals.
type TableCounts struct {
	Accepted int
	Rejected int
}

// RunSummary aggregates the typed per-unit results of one run.
type RunSummary struct {
	RunID      string
	Window     SyncWindow
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus

	// Fetched counts source documents collected per kind.
	Fetched map[RecordKind]int

	// Tables holds upload totals per destination table.
	Tables map[string]*TableCounts

	// Failures lists every skipped unit in the order it happened.
	Failures []UnitFailure

	// FatalTables lists tables whose uploads were abandoned for the run.
	FatalTables []string

	// BackupLocation is where the archive was written.
	BackupLocation string

	// Err is the fatal error text, if any.
	Err string
}

// NewRunSummary creates an empty summary in the running state.
func NewRunSummary(runID string, window SyncWindow, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		Window:    window,
		StartedAt: startedAt,
		Status:    RunRunning,
		Fetched:   make(map[RecordKind]int),
		Tables:    make(map[string]*TableCounts),
	}
}

// AddFetched counts a collected source document.
func (s *RunSummary) AddFetched(kind RecordKind, n int) {
	s.Fetched[kind] += n
}

// AddOutcomes adds upload outcomes to the per-table totals.
func (s *RunSummary) AddOutcomes(outcomes []UploadOutcome) {
	for _, o := range outcomes {
		c := s.counts(o.Table)
		if o.Accepted() {
			c.Accepted++
		} else {
			c.Rejected++
		}
	}
}

// AddFailure records a skipped unit.
func (s *RunSummary) AddFailure(f UnitFailure) {
	s.Failures = append(s.Failures, f)
}

// MarkFatalTable records a table whose uploads were abandoned.
func (s *RunSummary) MarkFatalTable(table string) {
	for _, t := range s.FatalTables {
		if t == table {
			return
		}
	}
	s.FatalTables = append(s.FatalTables, table)
}

// Counts returns the upload totals for a table.
func (s *RunSummary) Counts(table string) TableCounts {
	if c, ok := s.Tables[table]; ok {
		return *c
	}
	return TableCounts{}
}

// TotalAccepted returns accepted rows across all tables.
func (s *RunSummary) TotalAccepted() int {
	n := 0
	for _, c := range s.Tables {
		n += c.Accepted
	}
	return n
}

// TotalRejected returns rejected rows across all tables.
func (s *RunSummary) TotalRejected() int {
	n := 0
	for _, c := range s.Tables {
		n += c.Rejected
	}
	return n
}

// Finish stamps the end time and derives the final status.
func (s *RunSummary) Finish(at time.Time, fatal error) {
	s.FinishedAt = at
	switch {
	case fatal != nil:
		s.Status = RunFailed
		s.Err = fatal.Error()
	case len(s.Failures) > 0 || s.TotalRejected() > 0:
		s.Status = RunPartial
	default:
		s.Status = RunSuccess
	}
}

// Failed reports whether the run ended with a fatal error.
func (s *RunSummary) Failed() bool {
	return s.Status == RunFailed
}

func (s *RunSummary) counts(table string) *TableCounts {
	c, ok := s.Tables[table]
	if !ok {
		c = &TableCounts{}
		s.Tables[table] = c
	}
	return c
}
