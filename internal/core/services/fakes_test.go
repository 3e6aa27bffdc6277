package services

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
	"github.com/custodia-labs/wearsync/internal/normalisers/garmin"
)

// --- Fakes for sync testing ---

// fakeSource implements driven.SourceClient from in-memory documents keyed
// by YYYY-MM-DD. Dates without a document return an empty document.
type fakeSource struct {
	mu stdsync.Mutex

	loginErr      error
	activities    []domain.SourceRecord
	activitiesErr error
	stats         map[string]domain.SourceRecord
	sleep         map[string]domain.SourceRecord
	hydration     map[string]domain.SourceRecord
	weight        domain.SourceRecord
	weightErr     error
	restingHR     domain.SourceRecord
	failures      map[string]error // "kind/date" -> error
	onFetch       func(call string)

	calls []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		stats:     make(map[string]domain.SourceRecord),
		sleep:     make(map[string]domain.SourceRecord),
		hydration: make(map[string]domain.SourceRecord),
		failures:  make(map[string]error),
	}
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) Login(_ context.Context, _ domain.Credentials) error {
	f.record("login")
	return f.loginErr
}

func (f *fakeSource) FetchActivities(_ context.Context, offset, limit int) ([]domain.SourceRecord, error) {
	f.record(fmt.Sprintf("activities/%d", offset))
	if f.activitiesErr != nil {
		return nil, f.activitiesErr
	}
	if offset >= len(f.activities) {
		return []domain.SourceRecord{}, nil
	}
	end := min(offset+limit, len(f.activities))
	return f.activities[offset:end], nil
}

func (f *fakeSource) daily(kind domain.RecordKind, docs map[string]domain.SourceRecord, date time.Time) (domain.SourceRecord, error) {
	key := fmt.Sprintf("%s/%s", kind, date.Format(domain.DateLayout))
	f.record(key)
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if doc, ok := docs[date.Format(domain.DateLayout)]; ok {
		return doc, nil
	}
	return domain.SourceRecord{}, nil
}

func (f *fakeSource) FetchDailyStats(_ context.Context, date time.Time) (domain.SourceRecord, error) {
	return f.daily(domain.KindDailyStats, f.stats, date)
}

func (f *fakeSource) FetchSleep(_ context.Context, date time.Time) (domain.SourceRecord, error) {
	return f.daily(domain.KindSleep, f.sleep, date)
}

func (f *fakeSource) FetchHydration(_ context.Context, date time.Time) (domain.SourceRecord, error) {
	return f.daily(domain.KindHydration, f.hydration, date)
}

func (f *fakeSource) FetchBodyComposition(_ context.Context, start, end time.Time) (domain.SourceRecord, error) {
	f.record(fmt.Sprintf("weight/%s..%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout)))
	if f.weightErr != nil {
		return nil, f.weightErr
	}
	if f.weight == nil {
		return domain.SourceRecord{"dateWeightList": []any{}}, nil
	}
	return f.weight, nil
}

func (f *fakeSource) FetchRestingHeartRate(_ context.Context, start, end time.Time) (domain.SourceRecord, error) {
	f.record(fmt.Sprintf("rhr/%s..%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout)))
	if f.restingHR == nil {
		return domain.SourceRecord{}, nil
	}
	return f.restingHR, nil
}

// fakeBackup implements driven.BackupWriter and keeps the last archive.
type fakeBackup struct {
	err     error
	name    string
	archive *domain.Archive
	writes  int
}

func (b *fakeBackup) Write(_ context.Context, name string, archive *domain.Archive) (string, error) {
	b.writes++
	if b.err != nil {
		return "", b.err
	}
	b.name = name
	b.archive = archive
	return "/backup/" + name + ".json", nil
}

var (
	_ driven.SourceClient = (*fakeSource)(nil)
	_ driven.BackupWriter = (*fakeBackup)(nil)
)

// newGarminSink declares the destination tables the way the migrations do,
// trimmed to the columns the tests look at.
func newGarminSink() *memory.Sink {
	s := memory.NewSink()
	s.CreateTable(domain.TableActivities, []string{"activity_id"}, "activity_id", "activity_name", "distance", "data")
	s.CreateTable(domain.TableDailyStats, []string{"calendar_date"}, "calendar_date", "steps", "rule_type", "data")
	s.CreateTable(domain.TableSleepSummary, []string{"calendar_date"}, "calendar_date", "sleep_time_seconds", "sleep_score", "data")
	s.CreateTable(domain.TableWeight, []string{"sample_pk"}, "sample_pk", "calendar_date", "weight", "data")
	s.CreateTable(domain.TableHydration, []string{"calendar_date"}, "calendar_date", "value_in_m_l", "data")
	s.CreateTable(domain.TableRestingHR, []string{"calendar_date"}, "calendar_date", "resting_heart_rate", "data")
	return s
}

type harness struct {
	source *fakeSource
	sink   *memory.Sink
	backup *fakeBackup
	runs   *memory.RunStore
	orch   *SyncOrchestrator
}

func newHarness() *harness {
	h := &harness{
		source: newFakeSource(),
		sink:   newGarminSink(),
		backup: &fakeBackup{},
		runs:   memory.NewRunStore(),
	}
	h.orch = NewSyncOrchestrator(h.source, h.sink, garmin.NewRegistry(), h.backup, h.runs, domain.Credentials{Token: "t"})
	h.orch.newID = func() string { return "run-1" }
	return h
}

func mustWindow(start, end string) domain.SyncWindow {
	w, err := domain.ParseSyncWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}

func kinds(k ...domain.RecordKind) driving.RunOptions {
	return driving.RunOptions{Kinds: k}
}
