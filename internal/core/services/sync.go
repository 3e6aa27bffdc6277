package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// Defaults applied when RunOptions leave a size unset.
const (
	DefaultActivityCount = 5
	DefaultPageSize      = 30
	DefaultBackupName    = "garmin_backup"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// SyncOrchestrator drives one provider-to-store synchronisation at a time.
//
// A run is strictly sequential: every source call and every upsert
// completes before the next starts. Failures of a single fetch or row are
// recorded in the run summary and never stop the loop.
type SyncOrchestrator struct {
	source   driven.SourceClient
	sink     driven.Sink
	registry driven.NormaliserRegistry
	backup   driven.BackupWriter
	runs     driven.RunStore
	creds    domain.Credentials

	now   func() time.Time
	newID func() string

	// Status tracking
	mu     sync.RWMutex
	status *driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
// runs is optional - if nil, run history is not persisted.
func NewSyncOrchestrator(
	source driven.SourceClient,
	sink driven.Sink,
	registry driven.NormaliserRegistry,
	backup driven.BackupWriter,
	runs driven.RunStore,
	creds domain.Credentials,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		source:   source,
		sink:     sink,
		registry: registry,
		backup:   backup,
		runs:     runs,
		creds:    creds,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// run carries the state owned by a single Run call.
type run struct {
	opts     driving.RunOptions
	summary  *domain.RunSummary
	archive  *domain.Archive
	uploader *Uploader
	fatal    []error
}

// Run synchronises the window and returns its summary.
//
// The returned error joins the failures that invalidate the run: login,
// schema introspection of a table, backup write and cancellation.
// The summary is returned in every case.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Run(
	ctx context.Context,
	window domain.SyncWindow,
	opts driving.RunOptions,
) (*domain.RunSummary, error) {
	runID := o.newID()
	r := &run{
		opts:     opts,
		summary:  domain.NewRunSummary(runID, window, o.now()),
		archive:  domain.NewArchive(runID, window),
		uploader: NewUploader(o.sink, NewSchemaCache(o.sink)),
	}

	o.setStatus(&driving.SyncStatus{RunID: runID, Running: true})
	defer o.clearStatus()

	logger.Section("Sync")
	logger.Info("Starting sync %s for %s", runID, window)
	o.saveRun(ctx, r.summary)

	// 1. Login
	if err := o.source.Login(ctx, o.creds); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
		r.summary.AddFailure(domain.UnitFailure{Stage: domain.StageLogin, Err: err})
		r.fatal = append(r.fatal, err)
		logger.Error("Login failed: %v", err)
		return o.finish(ctx, r, false)
	}

	// 2. Activities, once per run
	if opts.Enabled(domain.KindActivities) {
		o.syncActivities(ctx, r)
	}

	// 3. Date loop
	days := window.Days()
	for i, day := range days {
		o.updateStatus(func(s *driving.SyncStatus) { s.CurrentDate = day.Format(domain.DateLayout) })
		o.syncDay(ctx, r, day)
		o.updateStatus(func(s *driving.SyncStatus) { s.DaysProcessed++ })

		if i < len(days)-1 {
			// A cancelled wait leaves the remaining dates to syncDay,
			// which records each of their calls as skipped.
			_ = wait(ctx, opts.DayDelay)
		}
	}

	// 4. Window passes: body composition and resting heart rate
	if opts.Enabled(domain.KindWeight) {
		o.syncRange(ctx, r, domain.KindWeight, window, o.source.FetchBodyComposition)
	}
	if opts.Enabled(domain.KindRestingHeartRate) {
		o.syncRange(ctx, r, domain.KindRestingHeartRate, window, o.source.FetchRestingHeartRate)
	}

	return o.finish(ctx, r, true)
}

// Status returns the progress of the current run.
func (o *SyncOrchestrator) Status(_ context.Context) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.status == nil {
		return &driving.SyncStatus{Running: false}, nil
	}
	// Return a copy to avoid race conditions
	status := *o.status
	return &status, nil
}

// syncActivities fetches one batch or, with AllActivities, every page
// until the source returns an empty one.
func (o *SyncOrchestrator) syncActivities(ctx context.Context, r *run) {
	if !r.opts.AllActivities {
		count := r.opts.ActivityCount
		if count <= 0 {
			count = DefaultActivityCount
		}
		o.activityPage(ctx, r, 0, count)
		return
	}

	size := r.opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	for offset := 0; ; offset += size {
		n, ok := o.activityPage(ctx, r, offset, size)
		if !ok || n == 0 {
			return
		}
	}
}

// activityPage fetches, archives and uploads one page of activities.
// It returns the page length and false if the fetch failed.
func (o *SyncOrchestrator) activityPage(ctx context.Context, r *run, offset, limit int) (int, bool) {
	err := ctx.Err()
	var docs []domain.SourceRecord
	if err == nil {
		logger.Debug("Fetching activities %d-%d", offset, offset+limit)
		docs, err = o.source.FetchActivities(ctx, offset, limit)
	}
	if err != nil {
		o.skip(r, domain.UnitFailure{
			Stage: domain.StageFetch,
			Kind:  domain.KindActivities,
			Err:   fmt.Errorf("offset %d: %w", offset, err),
		})
		return 0, false
	}

	n := o.registry.Get(domain.KindActivities)
	rows := make([]domain.Row, 0, len(docs))
	for _, doc := range docs {
		r.archive.Add(domain.KindActivities, time.Time{}, doc)
		rows = append(rows, n.Normalise(doc, time.Time{})...)
	}
	r.summary.AddFetched(domain.KindActivities, len(docs))
	o.upload(ctx, r, domain.KindActivities, "", n.Table(), rows)
	return len(docs), true
}

// syncDay runs the independent per-date fetches. A failure of one of them
// does not prevent the others.
func (o *SyncOrchestrator) syncDay(ctx context.Context, r *run, day time.Time) {
	fetchers := []struct {
		kind  domain.RecordKind
		fetch func(context.Context, time.Time) (domain.SourceRecord, error)
	}{
		{domain.KindDailyStats, o.source.FetchDailyStats},
		{domain.KindSleep, o.source.FetchSleep},
		{domain.KindHydration, o.source.FetchHydration},
	}

	date := day.Format(domain.DateLayout)
	for _, f := range fetchers {
		if !r.opts.Enabled(f.kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			o.skip(r, domain.UnitFailure{Stage: domain.StageFetch, Kind: f.kind, Date: date, Err: err})
			continue
		}

		logger.Debug("Fetching %s for %s", f.kind, date)
		doc, err := f.fetch(ctx, day)
		if err != nil {
			o.skip(r, domain.UnitFailure{Stage: domain.StageFetch, Kind: f.kind, Date: date, Err: err})
			continue
		}
		o.collect(ctx, r, f.kind, day, doc)
	}
}

// syncRange fetches a kind that the source serves for a whole window in
// one call.
func (o *SyncOrchestrator) syncRange(
	ctx context.Context,
	r *run,
	kind domain.RecordKind,
	window domain.SyncWindow,
	fetch func(context.Context, time.Time, time.Time) (domain.SourceRecord, error),
) {
	err := ctx.Err()
	var doc domain.SourceRecord
	if err == nil {
		logger.Debug("Fetching %s for %s", kind, window)
		doc, err = fetch(ctx, window.Start, window.End)
	}
	if err != nil {
		o.skip(r, domain.UnitFailure{
			Stage: domain.StageFetch,
			Kind:  kind,
			Date:  window.String(),
			Err:   err,
		})
		return
	}
	o.collect(ctx, r, kind, window.Start, doc)
}

// collect archives a document, normalises it and uploads its rows.
func (o *SyncOrchestrator) collect(ctx context.Context, r *run, kind domain.RecordKind, day time.Time, doc domain.SourceRecord) {
	if doc == nil {
		logger.Debug("No %s document for %s", kind, day.Format(domain.DateLayout))
		return
	}
	r.archive.Add(kind, day, doc)
	r.summary.AddFetched(kind, 1)

	n := o.registry.Get(kind)
	rows := n.Normalise(doc, day)
	if len(rows) == 0 {
		logger.Debug("No %s rows for %s", n.Table(), day.Format(domain.DateLayout))
		return
	}
	o.upload(ctx, r, kind, day.Format(domain.DateLayout), n.Table(), rows)
}

// upload sends rows to a table unless the table has been abandoned.
func (o *SyncOrchestrator) upload(ctx context.Context, r *run, kind domain.RecordKind, date, table string, rows []domain.Row) {
	if len(rows) == 0 {
		return
	}
	if r.opts.DryRun {
		logger.Info("Dry run: %d rows for %s not uploaded", len(rows), table)
		return
	}
	if slices.Contains(r.summary.FatalTables, table) {
		logger.Warn("Skipping %d rows for %s: schema unavailable", len(rows), table)
		return
	}

	outcomes, err := r.uploader.Upload(ctx, table, rows)
	if err != nil {
		r.summary.MarkFatalTable(table)
		r.fatal = append(r.fatal, err)
		o.skip(r, domain.UnitFailure{Stage: domain.StageSchema, Kind: kind, Date: date, Table: table, Err: err})
		return
	}

	r.summary.AddOutcomes(outcomes)
	accepted := 0
	for _, out := range outcomes {
		if out.Accepted() {
			accepted++
		}
	}
	logger.Debug("Uploaded %d/%d rows to %s", accepted, len(outcomes), table)
	o.updateStatus(func(s *driving.SyncStatus) { s.RowsUploaded += accepted })
}

// skip records and logs a failed unit.
func (o *SyncOrchestrator) skip(r *run, f domain.UnitFailure) {
	r.summary.AddFailure(f)
	logger.Warn("Skipped %v", f)
	o.updateStatus(func(s *driving.SyncStatus) { s.ErrorCount++ })
}

// finish writes the backup, closes the summary and persists the run.
func (o *SyncOrchestrator) finish(ctx context.Context, r *run, writeBackup bool) (*domain.RunSummary, error) {
	// The archive is written even when the run was interrupted.
	bctx := context.WithoutCancel(ctx)

	if writeBackup {
		name := r.opts.BackupName
		if name == "" {
			name = DefaultBackupName
		}
		location, err := o.backup.Write(bctx, name, r.archive)
		if err != nil {
			err = fmt.Errorf("%w: %w", domain.ErrBackupWrite, err)
			r.summary.AddFailure(domain.UnitFailure{Stage: domain.StageBackup, Err: err})
			r.fatal = append(r.fatal, err)
			logger.Error("Backup failed: %v", err)
		} else {
			r.summary.BackupLocation = location
			logger.Info("Backup of %d documents written to %s", r.archive.Len(), location)
		}
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("Sync %s cancelled: %v", r.summary.RunID, err)
		r.fatal = append(r.fatal, err)
	}

	fatal := errors.Join(r.fatal...)
	r.summary.Finish(o.now(), fatal)
	o.saveRun(bctx, r.summary)

	logger.Info("Sync %s %s: %d rows accepted, %d rejected, %d skipped",
		r.summary.RunID, r.summary.Status,
		r.summary.TotalAccepted(), r.summary.TotalRejected(), len(r.summary.Failures))
	return r.summary, fatal
}

func (o *SyncOrchestrator) saveRun(ctx context.Context, summary *domain.RunSummary) {
	if o.runs == nil {
		return
	}
	if err := o.runs.Save(ctx, domain.NewSyncRun(summary)); err != nil {
		logger.Warn("Failed to save run %s: %v", summary.RunID, err)
	}
}

// wait pauses for d, returning early with the context error if cancelled.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *SyncOrchestrator) setStatus(status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
}

func (o *SyncOrchestrator) updateStatus(fn func(s *driving.SyncStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != nil {
		fn(o.status)
	}
}

func (o *SyncOrchestrator) clearStatus() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = nil
}
