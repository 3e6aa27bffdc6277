package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

func TestScheduleCmd_InvalidCron(t *testing.T) {
	mock := &mockSyncService{}
	setupCLI(t, &Services{Sync: mock})

	err := execute(t, "schedule", "--cron", "whenever")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, mock.calls)
}

func TestScheduleCmd_RunNowThenStopsOnCancel(t *testing.T) {
	mock := &mockSyncService{}
	buf := setupCLI(t, &Services{Sync: mock})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	rootCmd.SetArgs([]string{"schedule", "--now", "--cron", "@yearly"})

	assert.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.Equal(t, 1, mock.calls)
	assert.Equal(t, 7, mock.window.Len())
	assert.Contains(t, buf.String(), "Run run-1: success")
	assert.Contains(t, buf.String(), `Scheduled "@yearly"`)
}

func TestNextRun_Invalid(t *testing.T) {
	assert.Equal(t, "unknown", nextRun("not a spec"))
}
