package sqlite

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/sink/sqlutil"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

var dialect = sqlutil.Dialect{
	Quote:       sqlutil.QuoteDouble,
	Placeholder: func(int) string { return "?" },
}

// sink implements driven.Sink.
type sink struct {
	store    *Store
	conflict map[string]string

	mu   sync.Mutex
	keys map[string][]string
}

var _ driven.Sink = (*sink)(nil)

// IntrospectColumns lists the table's columns. A table that does not
// exist has no columns and is reported as not found.
func (s *sink) IntrospectColumns(ctx context.Context, table string) (domain.ColumnSet, error) {
	columns, key, err := s.store.tableInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("introspect %s: %w", table, domain.ErrNotFound)
	}

	s.mu.Lock()
	s.keys[table] = key
	s.mu.Unlock()

	return domain.NewColumnSet(columns...), nil
}

// Upsert merges one row on the table's conflict key.
func (s *sink) Upsert(ctx context.Context, table string, row domain.Row) error {
	key, err := s.conflictKey(ctx, table)
	if err != nil {
		return err
	}
	if col, missing := sqlutil.MissingKey(row, key); missing {
		return &domain.RejectedError{Body: "null value in key column " + col}
	}

	columns := row.Keys()
	query, err := dialect.Upsert(dialect.Quote(table), columns, key)
	if err != nil {
		return err
	}
	args, err := sqlutil.Args(row, columns)
	if err != nil {
		return &domain.RejectedError{Body: err.Error()}
	}

	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		if rejected, ok := rejection(err); ok {
			return rejected
		}
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// Close is a no-op; the database is closed through Store.Close.
func (s *sink) Close() error {
	return nil
}

func (s *sink) conflictKey(ctx context.Context, table string) ([]string, error) {
	if cols := s.conflict[table]; cols != "" {
		var key []string
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				key = append(key, c)
			}
		}
		return key, nil
	}

	s.mu.Lock()
	key, ok := s.keys[table]
	s.mu.Unlock()
	if !ok {
		var err error
		if _, key, err = s.store.tableInfo(ctx, table); err != nil {
			return nil, fmt.Errorf("primary key of %s: %w", table, err)
		}
		s.mu.Lock()
		s.keys[table] = key
		s.mu.Unlock()
	}
	if len(key) == 0 {
		return nil, &domain.RejectedError{Body: fmt.Sprintf("table %s has no primary key and no conflict columns configured", table)}
	}
	return key, nil
}
