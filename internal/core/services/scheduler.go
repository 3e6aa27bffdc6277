package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// WindowFunc resolves the window of a scheduled run at trigger time.
type WindowFunc func(now time.Time) (domain.SyncWindow, error)

// Scheduler triggers sync runs on a cron schedule.
// A trigger that fires while the previous run is still going is skipped,
// so two runs never overlap.
type Scheduler struct {
	cron   *cron.Cron
	svc    driving.SyncService
	window WindowFunc
	opts   driving.RunOptions

	mu      sync.Mutex
	ctx     context.Context
	running bool
	stopCh  chan struct{}
	entry   cron.EntryID
}

// NewScheduler creates a scheduler for a cron spec such as "@daily" or
// "0 6 * * *". The spec is validated immediately.
func NewScheduler(
	svc driving.SyncService,
	spec string,
	window WindowFunc,
	opts driving.RunOptions,
) (*Scheduler, error) {
	log := cronLogger{}
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log))),
		svc:    svc,
		window: window,
		opts:   opts,
		ctx:    context.Background(),
	}

	entry, err := s.cron.AddFunc(spec, s.trigger)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %w", domain.ErrInvalidInput, spec, err)
	}
	s.entry = entry
	return s, nil
}

// Start runs the schedule. It blocks until ctx is done or Stop is called,
// then waits for an in-flight run to return.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.ctx = ctx
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.cron.Start()
	logger.Info("Scheduler started, next run at %s", s.Next().Format(time.RFC1123))

	select {
	case <-ctx.Done():
	case <-stopCh:
	}

	<-s.cron.Stop().Done()
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	logger.Info("Scheduler stopped")
	return nil
}

// Stop ends a running Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopCh == nil {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// Next returns the next trigger time, zero when not started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce performs one scheduled run immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.RunSummary, error) {
	window, err := s.window(time.Now())
	if err != nil {
		return nil, fmt.Errorf("resolve window: %w", err)
	}
	return s.svc.Run(ctx, window, s.opts)
}

func (s *Scheduler) trigger() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	summary, err := s.RunOnce(ctx)
	if err != nil {
		logger.Warn("Scheduled sync failed: %v", err)
	}
	if summary != nil {
		logger.Info("Scheduled sync %s %s: %d rows accepted, %d rejected",
			summary.RunID, summary.Status, summary.TotalAccepted(), summary.TotalRejected())
	}
}

// NextRun returns the first trigger time of spec after now.
func NextRun(spec string, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: schedule %q: %w", domain.ErrInvalidInput, spec, err)
	}
	return sched.Next(now), nil
}

// cronLogger routes cron's key/value messages to the package logger.
// Routine entries go to debug, job panics and skips to warnings.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug("cron: %s%s", msg, formatPairs(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Warn("cron: %s: %v%s", msg, err, formatPairs(keysAndValues))
}

func formatPairs(kv []any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
