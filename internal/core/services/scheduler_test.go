package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// mockSyncService implements driving.SyncService for scheduler testing.
type mockSyncService struct {
	mu      sync.Mutex
	windows []domain.SyncWindow
	opts    []driving.RunOptions
	err     error
}

func (m *mockSyncService) Run(_ context.Context, window domain.SyncWindow, opts driving.RunOptions) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = append(m.windows, window)
	m.opts = append(m.opts, opts)
	s := domain.NewRunSummary("run", window, time.Now())
	s.Finish(time.Now(), m.err)
	return s, m.err
}

func (m *mockSyncService) Status(context.Context) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{}, nil
}

func (m *mockSyncService) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func lastDay(now time.Time) (domain.SyncWindow, error) {
	return domain.LastNDays(now, 1), nil
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(&mockSyncService{}, "every tuesday", lastDay, driving.RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := &mockSyncService{}
	opts := driving.RunOptions{DayDelay: time.Second}
	s, err := NewScheduler(svc, "@daily", lastDay, opts)
	require.NoError(t, err)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, svc.runCount())
	assert.Equal(t, time.Second, svc.opts[0].DayDelay)
	assert.Equal(t, 1, svc.windows[0].Len())
}

func TestScheduler_RunOnceWindowError(t *testing.T) {
	svc := &mockSyncService{}
	bad := func(time.Time) (domain.SyncWindow, error) { return domain.SyncWindow{}, domain.ErrInvalidWindow }
	s, err := NewScheduler(svc, "@daily", bad, driving.RunOptions{})
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	assert.Zero(t, svc.runCount())
}

func TestScheduler_StartStop(t *testing.T) {
	svc := &mockSyncService{err: errors.New("ignored")}
	s, err := NewScheduler(svc, "@every 1s", lastDay, driving.RunOptions{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool { return svc.runCount() > 0 }, 5*time.Second, 50*time.Millisecond)
	assert.False(t, s.Next().IsZero())

	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s, err := NewScheduler(&mockSyncService{}, "@hourly", lastDay, driving.RunOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	s, err := NewScheduler(&mockSyncService{}, "@daily", lastDay, driving.RunOptions{})
	require.NoError(t, err)
	assert.NotPanics(t, s.Stop)
}

func TestNextRun(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 30, 0, 0, time.Local)

	next, err := NextRun("@daily", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.Local), next)

	next, err = NextRun("0 6 * * *", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 11, 6, 0, 0, 0, time.Local), next)

	_, err = NextRun("every day", now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	cronLogger{}.Error(errors.New("boom"), "panic", "job", "sync")
	assert.Contains(t, buf.String(), "cron: panic: boom job=sync")

	buf.Reset()
	cronLogger{}.Info("skip", "now", "x")
	assert.NotContains(t, buf.String(), "skip")
}
