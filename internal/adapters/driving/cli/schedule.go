package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	coreservices "github.com/custodia-labs/wearsync/internal/core/services"
	"github.com/custodia-labs/wearsync/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run sync on a cron schedule",
	Long: `Runs in the foreground and triggers a sync of the configured window on
every tick of the cron expression (schedule.cron, default @daily). A tick that
fires while the previous run is still going is skipped.

Examples:
  wearsync schedule
  wearsync schedule --cron "0 6 * * *" --now`,
	RunE: runSchedule,
}

// Flags for schedule.
var (
	scheduleCron string
	scheduleNow  bool
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (default from config)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run once immediately before waiting for the schedule")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := requireServices(ctx)
	if err != nil {
		return err
	}

	spec := settings.Schedule.Cron
	if scheduleCron != "" {
		spec = scheduleCron
	}

	s := settings
	window := func(now time.Time) (domain.SyncWindow, error) { return s.Window(now) }

	scheduler, err := coreservices.NewScheduler(svc.Sync, spec, window, runOptions(s))
	if err != nil {
		return err
	}

	if scheduleNow {
		summary, err := scheduler.RunOnce(ctx)
		if summary != nil {
			printSummary(cmd, summary)
		}
		if err != nil {
			logger.Warn("Initial sync failed: %v", err)
		}
	}

	cmd.Printf("Scheduled %q, next run at %s. Press Ctrl+C to stop.\n", spec, nextRun(spec))
	return scheduler.Start(ctx)
}

// nextRun formats the first trigger time of spec from now.
func nextRun(spec string) string {
	next, err := coreservices.NextRun(spec, time.Now())
	if err != nil {
		return "unknown"
	}
	return next.Format(time.RFC1123)
}
