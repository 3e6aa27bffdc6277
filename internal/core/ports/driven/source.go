package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// SourceClient fetches nested JSON documents from the fitness provider.
// Every fetch failure is recoverable for the caller: it skips that call only.
type SourceClient interface {
	// Login prepares the client with credentials.
	Login(ctx context.Context, creds domain.Credentials) error

	// FetchActivities returns up to limit activities starting at offset,
	// newest first. An empty slice means there are no more activities.
	FetchActivities(ctx context.Context, offset, limit int) ([]domain.SourceRecord, error)

	// FetchDailyStats returns the wellness summary of one date.
	FetchDailyStats(ctx context.Context, date time.Time) (domain.SourceRecord, error)

	// FetchSleep returns the sleep payload of one date.
	FetchSleep(ctx context.Context, date time.Time) (domain.SourceRecord, error)

	// FetchBodyComposition returns weigh-ins between two dates inclusive.
	FetchBodyComposition(ctx context.Context, start, end time.Time) (domain.SourceRecord, error)

	// FetchHydration returns the hydration summary of one date.
	FetchHydration(ctx context.Context, date time.Time) (domain.SourceRecord, error)

	// FetchRestingHeartRate returns the daily resting heart rate values
	// between two dates inclusive.
	FetchRestingHeartRate(ctx context.Context, start, end time.Time) (domain.SourceRecord, error)
}
