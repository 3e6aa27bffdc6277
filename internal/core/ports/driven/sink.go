package driven

import (
	"context"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// SchemaIntrospector reports which columns a destination table accepts.
type SchemaIntrospector interface {
	// IntrospectColumns returns the column set of a table.
	IntrospectColumns(ctx context.Context, table string) (domain.ColumnSet, error)
}

// Sink is the destination store.
// Upserts always merge on the table's conflict key so a re-run updates rows
// instead of duplicating them.
type Sink interface {
	SchemaIntrospector

	// Upsert writes one row. A refusal by the store is reported as
	// *domain.RejectedError; other errors are transport failures.
	Upsert(ctx context.Context, table string, row domain.Row) error

	// Close releases resources.
	Close() error
}
