package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// Uploader filters rows against the table schema and upserts them one by one.
type Uploader struct {
	sink  driven.Sink
	cache *SchemaCache
}

// NewUploader creates an uploader bound to a run's schema cache.
func NewUploader(sink driven.Sink, cache *SchemaCache) *Uploader {
	return &Uploader{sink: sink, cache: cache}
}

// Upload upserts rows into table and returns one outcome per row.
//
// Keys the table does not accept are dropped from each row before upload.
// The only error returned is a schema failure, in which case no row is
// attempted. Per-row refusals and transport errors become rejected outcomes.
func (u *Uploader) Upload(ctx context.Context, table string, rows []domain.Row) ([]domain.UploadOutcome, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := u.cache.ColumnsFor(ctx, table)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.UploadOutcome, 0, len(rows))
	for _, row := range rows {
		outcome := u.upsert(ctx, table, cols.Filter(row))
		if !outcome.Accepted() {
			logger.Warn("Upload to %s rejected: status %d: %s", table, outcome.StatusCode, outcome.Body)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (u *Uploader) upsert(ctx context.Context, table string, row domain.Row) domain.UploadOutcome {
	err := u.sink.Upsert(ctx, table, row)
	if err == nil {
		return domain.UploadOutcome{Table: table, Status: domain.OutcomeAccepted}
	}

	var rejected *domain.RejectedError
	if errors.As(err, &rejected) {
		return domain.UploadOutcome{
			Table:      table,
			Status:     domain.OutcomeRejected,
			StatusCode: rejected.Status,
			Body:       rejected.Body,
		}
	}
	return domain.UploadOutcome{Table: table, Status: domain.OutcomeRejected, Body: err.Error()}
}
