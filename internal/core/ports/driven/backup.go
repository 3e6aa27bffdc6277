package driven

import (
	"context"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// BackupWriter persists the untransformed archive of a run.
type BackupWriter interface {
	// Write serialises the archive under name, replacing any previous archive
	// with the same name. Returns where it was written.
	Write(ctx context.Context, name string, archive *domain.Archive) (string, error)
}
