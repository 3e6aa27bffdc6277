package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// testDSNEnv names a throwaway database used by the integration test.
const testDSNEnv = "WEARSYNC_TEST_POSTGRES_DSN"

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSplitColumns(t *testing.T) {
	assert.Equal(t, []string{"user_id", "calendar_date"}, splitColumns(" user_id, calendar_date ,"))
	assert.Nil(t, splitColumns(""))
}

func TestUpsertStatement(t *testing.T) {
	s := New(nil, Config{Schema: "garmin"})
	q, err := dialect.Upsert(s.qualified("sleep_summary"), []string{"calendar_date", "sleep_score"}, []string{"calendar_date"})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "garmin"."sleep_summary" ("calendar_date", "sleep_score") VALUES ($1, $2) `+
			`ON CONFLICT ("calendar_date") DO UPDATE SET "sleep_score" = EXCLUDED."sleep_score"`,
		q)
}

func TestConflictKey_Configured(t *testing.T) {
	s := New(nil, Config{Conflict: map[string]string{"weight": "sample_pk"}})
	key, err := s.conflictKey(context.Background(), "weight")
	require.NoError(t, err)
	assert.Equal(t, []string{"sample_pk"}, key)
	assert.Equal(t, DefaultSchema, s.schema)
}

func TestUpsert_NullKeyRejected(t *testing.T) {
	s := New(nil, Config{Conflict: map[string]string{"weight": "sample_pk"}})
	err := s.Upsert(context.Background(), "weight", domain.Row{"sample_pk": nil, "weight": 80000.0})

	var rejected *domain.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Body, "sample_pk")
}

func TestSink_Integration(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()

	s, err := Open(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.ExecContext(ctx, `
		DROP TABLE IF EXISTS wearsync_test_daily;
		CREATE TABLE wearsync_test_daily (
			calendar_date text PRIMARY KEY,
			steps bigint,
			data jsonb
		)`)
	require.NoError(t, err)
	defer s.db.ExecContext(ctx, `DROP TABLE IF EXISTS wearsync_test_daily`) //nolint:errcheck

	cols, err := s.IntrospectColumns(ctx, "wearsync_test_daily")
	require.NoError(t, err)
	assert.Equal(t, []string{"calendar_date", "data", "steps"}, cols.Names())

	row := domain.Row{"calendar_date": "2024-01-01", "steps": int64(10), "data": domain.SourceRecord{"steps": 10}}
	require.NoError(t, s.Upsert(ctx, "wearsync_test_daily", row))
	row["steps"] = int64(20)
	require.NoError(t, s.Upsert(ctx, "wearsync_test_daily", row))

	var count, steps int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT count(*), max(steps) FROM wearsync_test_daily`).Scan(&count, &steps))
	assert.Equal(t, 1, count)
	assert.Equal(t, 20, steps)

	err = s.Upsert(ctx, "wearsync_test_daily", domain.Row{"calendar_date": "2024-01-02", "steps": "many"})
	var rejected *domain.RejectedError
	assert.ErrorAs(t, err, &rejected)

	_, err = s.IntrospectColumns(ctx, "wearsync_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
