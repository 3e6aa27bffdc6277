// Package postgrest implements driven.Sink over a PostgREST endpoint such
// as the Supabase REST API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// restPrefix is where PostgREST is mounted on Supabase.
	restPrefix = "/rest/v1"

	// preferUpsert asks for merge-on-conflict without a response body.
	preferUpsert = "resolution=merge-duplicates,return=minimal"

	maxErrorBody = 64 << 10
)

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Config configures the sink.
type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co.
	URL string

	// Key is sent both as apikey and as bearer token.
	Key string

	// Conflict maps table to comma separated on_conflict columns. Tables
	// without an entry merge on their primary key.
	Conflict map[string]string

	// Timeout bounds a single request.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client. Optional.
	HTTPClient *http.Client
}

// Sink uploads rows through PostgREST.
type Sink struct {
	base     string
	key      string
	conflict map[string]string
	http     *http.Client
}

// New creates a PostgREST sink.
func New(cfg Config) (*Sink, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("%w: postgrest url and key are required", domain.ErrInvalidInput)
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: postgrest url: %w", domain.ErrInvalidInput, err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	base := strings.TrimRight(cfg.URL, "/")
	if !strings.HasSuffix(base, restPrefix) {
		base += restPrefix
	}
	return &Sink{base: base, key: cfg.Key, conflict: cfg.Conflict, http: hc}, nil
}

// openAPIRoot is the part of the PostgREST root document we read.
type openAPIRoot struct {
	Definitions map[string]struct {
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"definitions"`
}

// IntrospectColumns reads the table's properties from the OpenAPI root.
func (s *Sink) IntrospectColumns(ctx context.Context, table string) (domain.ColumnSet, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.base+"/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/openapi+json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("introspect %s: status %d: %s", table, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var root openAPIRoot
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return nil, fmt.Errorf("introspect %s: decode: %w", table, err)
	}

	def, ok := root.Definitions[table]
	if !ok {
		return nil, fmt.Errorf("introspect %s: %w", table, domain.ErrNotFound)
	}
	cols := make(domain.ColumnSet, len(def.Properties))
	for name := range def.Properties {
		cols[name] = struct{}{}
	}
	return cols, nil
}

// Upsert posts one row with the merge-duplicates directive.
// Any non-2xx response is returned as *domain.RejectedError.
func (s *Sink) Upsert(ctx context.Context, table string, row domain.Row) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	u := s.base + "/" + url.PathEscape(table)
	if cols := s.conflict[table]; cols != "" {
		u += "?" + url.Values{"on_conflict": {cols}}.Encode()
	}

	req, err := s.newRequest(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", preferUpsert)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.RejectedError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections.
func (s *Sink) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

func (s *Sink) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	return req, nil
}
