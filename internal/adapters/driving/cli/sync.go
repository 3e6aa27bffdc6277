package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise Garmin data into the configured sink",
	Long: `Fetches the recent activities, then every enabled daily stat for each
date of the window, and upserts the flattened rows into the sink. Re-running
over the same dates updates rows in place.

The window defaults to the 7 complete days before today. Use --start/--end for
an explicit range or --days for a different rolling length.

Examples:
  wearsync sync
  wearsync sync --days 30 --stats sleep,daily_stats
  wearsync sync --start 2024-01-01 --end 2024-01-31 --all
  wearsync sync --dry-run`,
	RunE: runSync,
}

// Flags for sync.
var (
	syncStart      string
	syncEnd        string
	syncDays       int
	syncAll        bool
	syncStats      []string
	syncDryRun     bool
	syncBackupName string
	syncDelay      time.Duration
)

func init() {
	syncCmd.Flags().StringVar(&syncStart, "start", "", "first date to sync (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&syncEnd, "end", "", "last date to sync (YYYY-MM-DD, default today)")
	syncCmd.Flags().IntVar(&syncDays, "days", 0, "number of complete days before today to sync")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "page through every activity instead of the latest batch")
	syncCmd.Flags().StringSliceVar(&syncStats, "stats", nil,
		"record kinds to sync (activities, daily_stats, sleep, weight, hydration, rhr)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and back up without uploading")
	syncCmd.Flags().StringVar(&syncBackupName, "backup-name", "", "backup file name without extension")
	syncCmd.Flags().DurationVar(&syncDelay, "delay", -1, "pause between dates (default from config)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	window, opts, err := syncRequest(time.Now())
	if err != nil {
		return err
	}

	svc, err := requireServices(ctx)
	if err != nil {
		return err
	}

	mode := ""
	if opts.DryRun {
		mode = " (dry run)"
	}
	cmd.Printf("Synchronising %s%s...\n", window, mode)

	summary, err := syncWithProgress(ctx, cmd, svc.Sync, window, opts)
	if summary != nil {
		printSummary(cmd, summary)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// syncRequest merges the command flags over the configured settings.
func syncRequest(now time.Time) (domain.SyncWindow, driving.RunOptions, error) {
	s := settings
	if syncStart != "" || syncEnd != "" {
		s.Sync.Start, s.Sync.End = syncStart, syncEnd
	} else if syncDays > 0 {
		s.Sync.Start, s.Sync.End = "", ""
		s.Sync.Days = syncDays
	}

	window, err := s.Window(now)
	if err != nil {
		return domain.SyncWindow{}, driving.RunOptions{}, err
	}

	opts := runOptions(s)
	if len(syncStats) > 0 {
		kinds, err := file.ParseKinds(syncStats)
		if err != nil {
			return domain.SyncWindow{}, driving.RunOptions{}, err
		}
		opts.Kinds = kinds
	}
	opts.AllActivities = syncAll
	opts.DryRun = syncDryRun
	if syncBackupName != "" {
		opts.BackupName = syncBackupName
	}
	if syncDelay >= 0 {
		opts.DayDelay = syncDelay
	}
	return window, opts, nil
}

// runOptions derives the default run options from settings.
func runOptions(s domain.Settings) driving.RunOptions {
	return driving.RunOptions{
		Kinds:         s.Sync.Kinds,
		ActivityCount: s.Sync.ActivityCount,
		PageSize:      s.Sync.AllActivityCount,
		DayDelay:      s.Sync.DayDelay,
		BackupName:    s.Backup.Name,
	}
}

// syncWithProgress runs sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	svc driving.SyncService,
	window domain.SyncWindow,
	opts driving.RunOptions,
) (*domain.RunSummary, error) {
	type result struct {
		summary *domain.RunSummary
		err     error
	}

	// Start sync in goroutine
	done := make(chan result, 1)
	go func() {
		summary, err := svc.Run(ctx, window, opts)
		done <- result{summary, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastDate := ""
	for {
		select {
		case res := <-done:
			if lastDate != "" {
				cmd.Println()
			}
			return res.summary, res.err
		case <-ticker.C:
			// Best effort: a status error only skips this update.
			status, err := svc.Status(ctx)
			if err == nil && status != nil && status.Running && status.CurrentDate != lastDate {
				cmd.Printf("\rProcessing %s... %d/%d days, %d rows uploaded",
					status.CurrentDate, status.DaysProcessed, window.Len(), status.RowsUploaded)
				lastDate = status.CurrentDate
			}
		}
	}
}

// printSummary writes the per-table outcome of a run.
func printSummary(cmd *cobra.Command, s *domain.RunSummary) {
	tables := make([]string, 0, len(s.Tables))
	for t := range s.Tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	cmd.Printf("Run %s: %s\n", s.RunID, s.Status)
	for _, t := range tables {
		c := s.Counts(t)
		cmd.Printf("  %-16s %d accepted, %d rejected\n", t, c.Accepted, c.Rejected)
	}
	if len(s.FatalTables) > 0 {
		cmd.Printf("  Skipped tables: %s\n", strings.Join(s.FatalTables, ", "))
	}
	if len(s.Failures) > 0 {
		cmd.Printf("  %d failures:\n", len(s.Failures))
		for _, f := range s.Failures {
			cmd.Printf("    - %s\n", f.Error())
		}
	}
	if s.BackupLocation != "" {
		cmd.Printf("Backup: %s\n", s.BackupLocation)
	}
}
