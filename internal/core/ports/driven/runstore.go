package driven

import (
	"context"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// RunStore persists run history.
type RunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.SyncRun) error

	// List returns the most recent runs first, at most limit entries.
	List(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
