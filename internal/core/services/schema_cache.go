package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// SchemaCache remembers the accepted columns of each table for one run.
// The first lookup of a table introspects the sink; later lookups, failed
// ones included, are answered from memory. A schema change during the run
// is not observed. Not safe for concurrent use.
type SchemaCache struct {
	introspector driven.SchemaIntrospector
	columns      map[string]domain.ColumnSet
	failures     map[string]error
}

// NewSchemaCache creates an empty cache over an introspector.
func NewSchemaCache(introspector driven.SchemaIntrospector) *SchemaCache {
	return &SchemaCache{
		introspector: introspector,
		columns:      make(map[string]domain.ColumnSet),
		failures:     make(map[string]error),
	}
}

// ColumnsFor returns the column set of table. Errors wrap
// domain.ErrSchemaUnavailable and are not retried within the run.
func (c *SchemaCache) ColumnsFor(ctx context.Context, table string) (domain.ColumnSet, error) {
	if cols, ok := c.columns[table]; ok {
		return cols, nil
	}
	if err, ok := c.failures[table]; ok {
		return nil, err
	}

	logger.Debug("Introspecting columns of %s", table)
	cols, err := c.introspector.IntrospectColumns(ctx, table)
	if err == nil && len(cols) == 0 {
		err = fmt.Errorf("table %s has no columns", table)
	}
	if err != nil {
		wrapped := fmt.Errorf("%w: %s: %w", domain.ErrSchemaUnavailable, table, err)
		c.failures[table] = wrapped
		return nil, wrapped
	}

	c.columns[table] = cols
	return cols, nil
}
