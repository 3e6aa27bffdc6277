// Package postgres implements driven.Sink over a direct Postgres
// connection.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/sink/sqlutil"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

const (
	// DefaultSchema is the schema tables are looked up in.
	DefaultSchema = "public"

	connectTimeout = 10 * time.Second
	queryTimeout   = 30 * time.Second
)

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

var dialect = sqlutil.Dialect{
	Quote:       pq.QuoteIdentifier,
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// Config configures the sink.
type Config struct {
	// DSN is a lib/pq connection string or postgres:// URL.
	DSN string

	// Schema defaults to DefaultSchema.
	Schema string

	// Conflict maps table to comma separated conflict columns. Tables
	// without an entry merge on their primary key.
	Conflict map[string]string
}

// Sink upserts rows with INSERT ... ON CONFLICT.
type Sink struct {
	db       *sql.DB
	schema   string
	conflict map[string]string

	mu   sync.Mutex
	keys map[string][]string
}

// Open connects and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return New(db, cfg), nil
}

// New wraps an open database handle.
func New(db *sql.DB, cfg Config) *Sink {
	schema := cfg.Schema
	if schema == "" {
		schema = DefaultSchema
	}
	return &Sink{db: db, schema: schema, conflict: cfg.Conflict, keys: make(map[string][]string)}
}

// IntrospectColumns lists the table's columns from information_schema.
func (s *Sink) IntrospectColumns(ctx context.Context, table string) (domain.ColumnSet, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("introspect %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("introspect %s.%s: %w", s.schema, table, domain.ErrNotFound)
	}
	return domain.NewColumnSet(names...), nil
}

// Upsert merges one row on the table's conflict key.
func (s *Sink) Upsert(ctx context.Context, table string, row domain.Row) error {
	key, err := s.conflictKey(ctx, table)
	if err != nil {
		return err
	}
	if col, missing := sqlutil.MissingKey(row, key); missing {
		return &domain.RejectedError{Body: "null value in key column " + col}
	}

	columns := row.Keys()
	query, err := dialect.Upsert(s.qualified(table), columns, key)
	if err != nil {
		return err
	}
	args, err := sqlutil.Args(row, columns)
	if err != nil {
		return &domain.RejectedError{Body: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return &domain.RejectedError{Body: string(pqErr.Code) + ": " + pqErr.Message}
		}
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Sink) Close() error {
	return s.db.Close()
}

// qualified returns the quoted schema.table name.
func (s *Sink) qualified(table string) string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier(table)
}

// conflictKey returns the configured conflict columns or the primary key.
func (s *Sink) conflictKey(ctx context.Context, table string) ([]string, error) {
	if cols := s.conflict[table]; cols != "" {
		return splitColumns(cols), nil
	}

	s.mu.Lock()
	key, ok := s.keys[table]
	s.mu.Unlock()
	if ok {
		return key, nil
	}

	key, err := s.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.keys[table] = key
	s.mu.Unlock()
	return key, nil
}

func (s *Sink) primaryKey(ctx context.Context, table string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", table, err)
	}
	defer rows.Close()

	var key []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("primary key of %s: %w", table, err)
		}
		key = append(key, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", table, err)
	}
	if len(key) == 0 {
		return nil, &domain.RejectedError{Body: fmt.Sprintf("table %s has no primary key and no conflict columns configured", table)}
	}
	return key, nil
}

// splitColumns parses a comma separated column list.
func splitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}
