package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink is an in-memory implementation of driven.Sink.
// It behaves like a strict store: a row with an unknown column or without
// its key columns is rejected with status 400.
type Sink struct {
	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	columns        domain.ColumnSet
	key            []string
	rows           map[string]domain.Row
	payloads       []domain.Row
	introspectErr  error
	introspections int
}

// NewSink creates an empty in-memory sink.
func NewSink() *Sink {
	return &Sink{tables: make(map[string]*table)}
}

// CreateTable declares a table with its columns. key lists the conflict
// columns and must be a subset of columns.
func (s *Sink) CreateTable(name string, key []string, columns ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = &table{
		columns: domain.NewColumnSet(columns...),
		key:     key,
		rows:    make(map[string]domain.Row),
	}
}

// FailIntrospection makes introspection of a table return err.
func (s *Sink) FailIntrospection(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[string]domain.Row)}
		s.tables[name] = t
	}
	t.introspectErr = err
}

// IntrospectColumns returns the columns of a declared table.
func (s *Sink) IntrospectColumns(_ context.Context, name string) (domain.ColumnSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", name, domain.ErrNotFound)
	}
	t.introspections++
	if t.introspectErr != nil {
		return nil, t.introspectErr
	}
	return domain.NewColumnSet(t.columns.Names()...), nil
}

// Upsert merges row into the table on its key columns.
func (s *Sink) Upsert(_ context.Context, name string, row domain.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return &domain.RejectedError{Status: 404, Body: fmt.Sprintf("relation %q does not exist", name)}
	}
	t.payloads = append(t.payloads, copyRow(row))

	for col := range row {
		if !t.columns.Has(col) {
			return &domain.RejectedError{Status: 400, Body: fmt.Sprintf("column %q does not exist", col)}
		}
	}

	parts := make([]string, 0, len(t.key))
	for _, k := range t.key {
		v, ok := row[k]
		if !ok || v == nil {
			return &domain.RejectedError{Status: 400, Body: fmt.Sprintf("null value in column %q", k)}
		}
		parts = append(parts, fmt.Sprint(v))
	}
	id := strings.Join(parts, "|")

	merged, ok := t.rows[id]
	if !ok {
		merged = make(domain.Row, len(row))
	}
	for k, v := range row {
		merged[k] = v
	}
	t.rows[id] = merged
	return nil
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}

// Rows returns the stored rows of a table ordered by key.
func (s *Sink) Rows(name string) []domain.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]domain.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, copyRow(t.rows[id]))
	}
	return rows
}

// Payloads returns every row submitted to a table, rejected ones included.
func (s *Sink) Payloads(name string) []domain.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return append([]domain.Row(nil), t.payloads...)
	}
	return nil
}

// Introspections returns how many times a table was introspected.
func (s *Sink) Introspections(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return t.introspections
	}
	return 0
}

func copyRow(row domain.Row) domain.Row {
	c := make(domain.Row, len(row))
	for k, v := range row {
		c[k] = v
	}
	return c
}
