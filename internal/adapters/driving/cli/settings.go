package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the resolved configuration",
	Long: `Shows the settings a run would use after merging the config file,
environment variables and defaults. Secrets are masked.`,
	RunE: runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}
		cmd.Println(configStore.Path())
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsPathCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s := settings

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Garmin]")
	cmd.Printf("  Base URL: %s\n", s.Garmin.BaseURL)
	cmd.Printf("  Token: %s\n", secret(s.Garmin.Token))
	if s.Garmin.DisplayName != "" {
		cmd.Printf("  Display name: %s\n", s.Garmin.DisplayName)
	}
	cmd.Println()

	cmd.Println("[Sync]")
	if s.Sync.Start != "" || s.Sync.End != "" {
		cmd.Printf("  Window: %s..%s\n", s.Sync.Start, s.Sync.End)
	} else {
		cmd.Printf("  Window: last %d days\n", s.Sync.Days)
	}
	cmd.Printf("  Stats: %s\n", kindList(s.Sync.Kinds))
	cmd.Printf("  Activities: latest %d (page size %d with --all)\n", s.Sync.ActivityCount, s.Sync.AllActivityCount)
	cmd.Printf("  Delay between days: %s\n", s.Sync.DayDelay)
	cmd.Println()

	cmd.Println("[Sink]")
	cmd.Printf("  Kind: %s\n", s.Sink.Kind)
	switch s.Sink.Kind {
	case domain.SinkPostgREST:
		cmd.Printf("  URL: %s\n", s.Sink.URL)
		cmd.Printf("  Key: %s\n", secret(s.Sink.Key))
	case domain.SinkPostgres:
		cmd.Printf("  DSN: %s\n", secret(s.Sink.DSN))
		cmd.Printf("  Schema: %s\n", s.Sink.Schema)
	case domain.SinkSQLite:
		cmd.Printf("  Database: %s\n", s.DBPath())
	}
	cmd.Println()

	cmd.Println("[Backup]")
	cmd.Printf("  File: %s/%s.json\n", s.Backup.Dir, s.Backup.Name)
	if s.Backup.S3.Enabled() {
		cmd.Printf("  S3 mirror: s3://%s/%s\n", s.Backup.S3.Bucket, s.Backup.S3.Prefix)
	}
	cmd.Println()

	cmd.Println("[Schedule]")
	cmd.Printf("  Cron: %s\n", s.Schedule.Cron)

	if err := s.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func kindList(kinds []domain.RecordKind) string {
	if len(kinds) == 0 {
		return "all"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func secret(v string) string {
	if v == "" {
		return "(not set)"
	}
	return maskAPIKey(v)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
