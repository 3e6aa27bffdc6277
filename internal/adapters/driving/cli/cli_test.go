package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
)

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	mu      sync.Mutex
	calls   int
	window  domain.SyncWindow
	opts    driving.RunOptions
	summary *domain.RunSummary
	err     error
}

func (m *mockSyncService) Run(_ context.Context, window domain.SyncWindow, opts driving.RunOptions) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.window, m.opts = window, opts
	if m.summary != nil {
		return m.summary, m.err
	}
	s := domain.NewRunSummary("run-1", window, time.Now())
	s.Finish(time.Now(), m.err)
	return s, m.err
}

func (m *mockSyncService) Status(_ context.Context) (*driving.SyncStatus, error) {
	return nil, nil
}

// mockSource implements driven.SourceClient with a configurable login.
type mockSource struct {
	loginErr error
	creds    domain.Credentials
}

func (m *mockSource) Login(_ context.Context, creds domain.Credentials) error {
	m.creds = creds
	return m.loginErr
}

func (m *mockSource) FetchActivities(context.Context, int, int) ([]domain.SourceRecord, error) {
	return nil, nil
}

func (m *mockSource) FetchDailyStats(context.Context, time.Time) (domain.SourceRecord, error) {
	return nil, nil
}

func (m *mockSource) FetchSleep(context.Context, time.Time) (domain.SourceRecord, error) {
	return nil, nil
}

func (m *mockSource) FetchBodyComposition(context.Context, time.Time, time.Time) (domain.SourceRecord, error) {
	return nil, nil
}

func (m *mockSource) FetchHydration(context.Context, time.Time) (domain.SourceRecord, error) {
	return nil, nil
}

func (m *mockSource) FetchRestingHeartRate(context.Context, time.Time, time.Time) (domain.SourceRecord, error) {
	return nil, nil
}

func testSettings() domain.Settings {
	return domain.Settings{
		DataDir: "/tmp/wearsync",
		Garmin:  domain.GarminSettings{BaseURL: "https://connectapi.garmin.com", Token: "garmin-token-123456"},
		Sync: domain.SyncSettings{
			ActivityCount:    5,
			AllActivityCount: 30,
			Days:             7,
			DayDelay:         time.Second,
		},
		Sink:     domain.SinkSettings{Kind: domain.SinkPostgREST, URL: "https://x.supabase.co", Key: "service-role-key"},
		Backup:   domain.BackupSettings{Dir: "/tmp/wearsync/backup", Name: "garmin_backup"},
		Schedule: domain.ScheduleSettings{Cron: "@daily"},
	}
}

// setupCLI installs test dependencies and resets flags. The returned
// function restores the previous state.
func setupCLI(t *testing.T, svc *Services) *bytes.Buffer {
	t.Helper()

	oldWiring, oldStore, oldSettings, oldServices := wiring, configStore, settings, services
	wiring = Wiring{}
	configStore = nil
	settings = testSettings()
	services = svc
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		wiring, configStore, settings, services = oldWiring, oldStore, oldSettings, oldServices
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return buf
}

func resetFlags() {
	configPath, verbose, logLevel = "", false, ""
	syncStart, syncEnd, syncDays = "", "", 0
	syncAll, syncStats, syncDryRun = false, nil, false
	syncBackupName, syncDelay = "", -1
	scheduleCron, scheduleNow = "", false
	runsLimit = 10
	authToken = ""
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func mustNotError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}
