package file

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/wearsync/internal/connectors/garmin"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

// Defaults applied when neither the file nor the environment sets a key.
const (
	DefaultDataDir          = "./data"
	DefaultBackupName       = "garmin_backup"
	DefaultActivityCount    = 5
	DefaultAllActivityCount = 30
	DefaultDays             = 7
	DefaultDayDelay         = time.Second
	DefaultCron             = "@daily"
	DefaultLogLevel         = "info"
	DefaultPGSchema         = "public"
)

// LookupEnv reads an environment variable. os.LookupEnv satisfies it.
type LookupEnv func(key string) (string, bool)

// setting binds a config key to its environment variable.
type setting struct {
	key string
	env string
}

var (
	keyDataDir          = setting{"data_dir", "GARMINDATA_DIR"}
	keyBackupDir        = setting{"backup.dir", "WEARSYNC_BACKUP_DIR"}
	keyBackupName       = setting{"backup.name", "WEARSYNC_BACKUP_NAME"}
	keyS3Bucket         = setting{"backup.s3.bucket", "WEARSYNC_S3_BUCKET"}
	keyS3Endpoint       = setting{"backup.s3.endpoint", "WEARSYNC_S3_ENDPOINT"}
	keyS3Region         = setting{"backup.s3.region", "WEARSYNC_S3_REGION"}
	keyS3KeyID          = setting{"backup.s3.key_id", "WEARSYNC_S3_KEY_ID"}
	keyS3Secret         = setting{"backup.s3.secret", "WEARSYNC_S3_SECRET"}
	keyS3Prefix         = setting{"backup.s3.prefix", "WEARSYNC_S3_PREFIX"}
	keyGarminToken      = setting{TokenKey, TokenEnv}
	keyGarminName       = setting{"garmin.display_name", "GARMIN_DISPLAY_NAME"}
	keyGarminBaseURL    = setting{"garmin.base_url", "GARMIN_BASE_URL"}
	keyActivityCount    = setting{"sync.activity_count", "GARMIN_LATEST_ACTIVITY_COUNT"}
	keyAllActivityCount = setting{"sync.all_activity_count", "GARMIN_ALL_ACTIVITY_COUNT"}
	keyDays             = setting{"sync.days", "WEARSYNC_DAYS"}
	keyStart            = setting{"sync.start", "WEARSYNC_START"}
	keyEnd              = setting{"sync.end", "WEARSYNC_END"}
	keyDayDelay         = setting{"sync.day_delay", "WEARSYNC_DAY_DELAY"}
	keyStats            = setting{"sync.stats", "WEARSYNC_STATS"}
	keySinkKind         = setting{"sink.kind", "WEARSYNC_SINK"}
	keySinkURL          = setting{"sink.url", "SUPABASE_URL"}
	keySinkKey          = setting{"sink.key", "SUPABASE_KEY"}
	keySinkDSN          = setting{"sink.dsn", "WEARSYNC_PG_DSN"}
	keySinkSchema       = setting{"sink.schema", "WEARSYNC_PG_SCHEMA"}
	keyCron             = setting{"schedule.cron", "WEARSYNC_CRON"}
	keyLogFile          = setting{"log.file", "WEARSYNC_LOG_FILE"}
	keyLogLevel         = setting{"log.level", "WEARSYNC_LOG_LEVEL"}
)

// TokenKey is the config key the Garmin token is stored under and TokenEnv
// the variable that overrides it.
const (
	TokenKey = "garmin.token"
	TokenEnv = "GARMIN_TOKEN"
)

// conflictPrefix holds per-table on_conflict columns.
const conflictPrefix = "sink.conflict"

// LoadSettings resolves settings from the store, with environment variables
// taking precedence over file keys and defaults filling the rest. The
// result is not validated; call Settings.Validate before a run.
func LoadSettings(store driven.ConfigStore, env LookupEnv) (domain.Settings, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}
	r := resolver{store: store, env: env}

	var s domain.Settings
	s.DataDir = r.str(keyDataDir, DefaultDataDir)

	s.Garmin = domain.GarminSettings{
		BaseURL:     r.str(keyGarminBaseURL, garmin.DefaultBaseURL),
		Token:       r.str(keyGarminToken, ""),
		DisplayName: r.str(keyGarminName, ""),
	}

	s.Sync = domain.SyncSettings{
		ActivityCount:    r.integer(keyActivityCount, DefaultActivityCount),
		AllActivityCount: r.integer(keyAllActivityCount, DefaultAllActivityCount),
		Days:             r.integer(keyDays, DefaultDays),
		Start:            r.str(keyStart, ""),
		End:              r.str(keyEnd, ""),
		DayDelay:         r.duration(keyDayDelay, DefaultDayDelay),
	}
	kinds, err := ParseKinds(r.list(keyStats))
	if err != nil {
		return s, err
	}
	s.Sync.Kinds = kinds

	s.Sink = domain.SinkSettings{
		Kind:     domain.SinkKind(strings.ToLower(r.str(keySinkKind, string(domain.SinkPostgREST)))),
		URL:      r.str(keySinkURL, ""),
		Key:      r.str(keySinkKey, ""),
		DSN:      r.str(keySinkDSN, ""),
		Schema:   r.str(keySinkSchema, DefaultPGSchema),
		Conflict: store.GetStringMap(conflictPrefix),
	}

	s.Backup = domain.BackupSettings{
		Dir:  r.str(keyBackupDir, filepath.Join(s.DataDir, "backup")),
		Name: r.str(keyBackupName, DefaultBackupName),
		S3: domain.S3Settings{
			Bucket:   r.str(keyS3Bucket, ""),
			Endpoint: r.str(keyS3Endpoint, ""),
			Region:   r.str(keyS3Region, ""),
			KeyID:    r.str(keyS3KeyID, ""),
			Secret:   r.str(keyS3Secret, ""),
			Prefix:   r.str(keyS3Prefix, ""),
		},
	}

	s.Schedule = domain.ScheduleSettings{Cron: r.str(keyCron, DefaultCron)}
	s.Log = domain.LogSettings{
		File:  r.str(keyLogFile, ""),
		Level: r.str(keyLogLevel, DefaultLogLevel),
	}

	if len(r.errs) > 0 {
		return s, r.errs[0]
	}
	return s, nil
}

// ParseKinds validates record kind names. Empty input enables every kind.
func ParseKinds(names []string) ([]domain.RecordKind, error) {
	var kinds []domain.RecordKind
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		kind, ok := domain.ParseRecordKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown stat %q", domain.ErrInvalidInput, name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// resolver reads typed values, environment first. Malformed values are
// collected in errs and the default is used.
type resolver struct {
	store driven.ConfigStore
	env   LookupEnv
	errs  []error
}

func (r *resolver) lookup(s setting) (any, bool) {
	if v, ok := r.env(s.env); ok && v != "" {
		return v, true
	}
	return r.store.Get(s.key)
}

func (r *resolver) str(s setting, def string) string {
	v, ok := r.lookup(s)
	if !ok {
		return def
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return def
	}
	return str
}

func (r *resolver) integer(s setting, def int) int {
	v, ok := r.lookup(s)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%w: %s: %q is not an integer", domain.ErrInvalidInput, s.key, t))
			return def
		}
		return n
	}
	r.errs = append(r.errs, fmt.Errorf("%w: %s: expected an integer", domain.ErrInvalidInput, s.key))
	return def
}

// duration accepts Go duration strings or a number of seconds.
func (r *resolver) duration(s setting, def time.Duration) time.Duration {
	v, ok := r.lookup(s)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int64:
		return time.Duration(t) * time.Second
	case float64:
		return time.Duration(t * float64(time.Second))
	case string:
		t = strings.TrimSpace(t)
		if secs, err := strconv.ParseFloat(t, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
		d, err := time.ParseDuration(t)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%w: %s: %q is not a duration", domain.ErrInvalidInput, s.key, t))
			return def
		}
		return d
	}
	r.errs = append(r.errs, fmt.Errorf("%w: %s: expected a duration", domain.ErrInvalidInput, s.key))
	return def
}

// list accepts a TOML array or a comma separated string.
func (r *resolver) list(s setting) []string {
	if v, ok := r.env(s.env); ok && v != "" {
		return strings.Split(v, ",")
	}
	if str := r.store.GetString(s.key); str != "" {
		return strings.Split(str, ",")
	}
	return r.store.GetStringSlice(s.key)
}
