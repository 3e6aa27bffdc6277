package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// SyncService runs provider-to-store synchronisation.
type SyncService interface {
	// Run synchronises every enabled record kind over the window.
	// Per-unit failures are reported in the summary; the returned error is
	// non-nil only for failures that invalidate the run.
	Run(ctx context.Context, window domain.SyncWindow, opts RunOptions) (*domain.RunSummary, error)

	// Status returns the progress of the current run.
	Status(ctx context.Context) (*SyncStatus, error)
}

// RunOptions tunes a single run.
type RunOptions struct {
	// Kinds limits the run to these record kinds. Empty means all.
	Kinds []domain.RecordKind

	// AllActivities paginates through every activity instead of one batch.
	AllActivities bool

	// ActivityCount is the batch size of the default activities pass.
	ActivityCount int

	// PageSize is the page size used with AllActivities.
	PageSize int

	// DayDelay is the pause between two dates.
	DayDelay time.Duration

	// BackupName names the archive file.
	BackupName string

	// DryRun transforms and backs up without uploading.
	DryRun bool
}

// Enabled reports whether a kind is part of the run.
func (o RunOptions) Enabled(kind domain.RecordKind) bool {
	if len(o.Kinds) == 0 {
		return true
	}
	for _, k := range o.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// RunID identifies the run.
	RunID string

	// Running indicates if sync is currently in progress.
	Running bool

	// CurrentDate is the date being processed.
	CurrentDate string

	// DaysProcessed is the count of dates finished.
	DaysProcessed int

	// RowsUploaded is the count of accepted rows.
	RowsUploaded int

	// ErrorCount is the number of failed units.
	ErrorCount int
}
