package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// SinkKind selects the destination store implementation.
type SinkKind string

const (
	// SinkPostgREST uploads through a PostgREST (Supabase) REST endpoint.
	SinkPostgREST SinkKind = "postgrest"

	// SinkPostgres writes to a Postgres database directly.
	SinkPostgres SinkKind = "postgres"

	// SinkSQLite writes to the local SQLite database under the data directory.
	SinkSQLite SinkKind = "sqlite"
)

// Settings holds the resolved configuration of a wearsync installation.
type Settings struct {
	// DataDir is the base directory for the local database and backups.
	DataDir string

	Garmin   GarminSettings
	Sync     SyncSettings
	Sink     SinkSettings
	Backup   BackupSettings
	Schedule ScheduleSettings
	Log      LogSettings
}

// GarminSettings configures the provider client.
type GarminSettings struct {
	BaseURL     string
	Token       string
	DisplayName string
}

// Credentials returns the login credentials for the source client.
func (g GarminSettings) Credentials() Credentials {
	return Credentials{Token: g.Token, DisplayName: g.DisplayName}
}

// SyncSettings configures what a run fetches.
type SyncSettings struct {
	// ActivityCount is the batch size of the default activities pass.
	ActivityCount int

	// AllActivityCount is the page size used when paginating all activities.
	AllActivityCount int

	// Days is the window length when no explicit start/end is set.
	Days int

	// Start and End are optional YYYY-MM-DD bounds.
	Start string
	End   string

	// DayDelay is the pause between two dates of the loop.
	DayDelay time.Duration

	// Kinds lists the enabled record kinds.
	Kinds []RecordKind
}

// SinkSettings configures the destination store.
type SinkSettings struct {
	Kind SinkKind

	// URL and Key address a PostgREST endpoint.
	URL string
	Key string

	// DSN and Schema address a Postgres database.
	DSN    string
	Schema string

	// Conflict maps table name to its comma separated on_conflict columns.
	Conflict map[string]string
}

// BackupSettings configures where run archives are written.
type BackupSettings struct {
	Dir  string
	Name string
	S3   S3Settings
}

// S3Settings configures the optional object storage mirror of the archive.
type S3Settings struct {
	Bucket   string
	Endpoint string
	Region   string
	KeyID    string
	Secret   string
	Prefix   string
}

// Enabled reports whether the mirror is configured.
func (s S3Settings) Enabled() bool {
	return s.Bucket != "" && s.KeyID != "" && s.Secret != ""
}

// ScheduleSettings configures the long-running scheduler.
type ScheduleSettings struct {
	Cron string
}

// LogSettings configures logging.
type LogSettings struct {
	File  string
	Level string
}

// DBPath returns the local SQLite database path.
func (s *Settings) DBPath() string {
	return filepath.Join(s.DataDir, "db", "garmin.db")
}

// Window resolves the sync window relative to now.
// Explicit start/end win over the rolling day count.
func (s *Settings) Window(now time.Time) (SyncWindow, error) {
	if s.Sync.Start == "" && s.Sync.End == "" {
		return LastNDays(now, s.Sync.Days), nil
	}
	start, end := s.Sync.Start, s.Sync.End
	if end == "" {
		end = now.Format(DateLayout)
	}
	if start == "" {
		start = end
	}
	return ParseSyncWindow(start, end)
}

// KindEnabled reports whether a record kind is part of the run.
func (s *Settings) KindEnabled(kind RecordKind) bool {
	if len(s.Sync.Kinds) == 0 {
		return true
	}
	for _, k := range s.Sync.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Validate checks that the settings are internally consistent.
func (s *Settings) Validate() error {
	switch s.Sink.Kind {
	case SinkPostgREST:
		if s.Sink.URL == "" || s.Sink.Key == "" {
			return fmt.Errorf("%w: SUPABASE_URL and SUPABASE_KEY are required for the postgrest sink", ErrInvalidInput)
		}
	case SinkPostgres:
		if s.Sink.DSN == "" {
			return fmt.Errorf("%w: WEARSYNC_PG_DSN is required for the postgres sink", ErrInvalidInput)
		}
	case SinkSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrSinkUnsupported, s.Sink.Kind)
	}
	if s.Sync.ActivityCount < 0 || s.Sync.AllActivityCount < 0 {
		return fmt.Errorf("%w: activity counts must not be negative", ErrInvalidInput)
	}
	if s.Backup.Dir == "" {
		return fmt.Errorf("%w: backup directory is required", ErrInvalidInput)
	}
	return nil
}
