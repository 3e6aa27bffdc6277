package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// Scheduler triggers sync runs on a recurring schedule.
type Scheduler interface {
	// Start runs the schedule.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends a running Start.
	Stop()

	// RunOnce performs one scheduled run immediately.
	RunOnce(ctx context.Context) (*domain.RunSummary, error)

	// Next returns the next trigger time.
	Next() time.Time
}
