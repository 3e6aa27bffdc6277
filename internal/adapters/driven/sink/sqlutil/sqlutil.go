// Package sqlutil builds the upsert statements and bind values shared by
// the database/sql sinks.
package sqlutil

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// Dialect describes how a database quotes identifiers and numbers
// placeholders.
type Dialect struct {
	// Quote quotes an identifier.
	Quote func(name string) string

	// Placeholder returns the bind marker for the 1-based position n.
	Placeholder func(n int) string
}

// Upsert returns an INSERT into target that merges on the key columns.
// target is used as given so callers can schema-qualify it. Non-key
// columns are overwritten from the incoming row. When every column is
// part of the key the conflict is ignored instead.
func (d Dialect) Upsert(target string, columns, key []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: no columns for %s", domain.ErrInvalidInput, target)
	}
	if len(key) == 0 {
		return "", fmt.Errorf("%w: no conflict key for %s", domain.ErrInvalidInput, target)
	}

	quoted := make([]string, len(columns))
	binds := make([]string, len(columns))
	var updates []string
	for i, col := range columns {
		quoted[i] = d.Quote(col)
		binds[i] = d.Placeholder(i + 1)
		if !slices.Contains(key, col) {
			updates = append(updates, quoted[i]+" = EXCLUDED."+quoted[i])
		}
	}

	keyCols := make([]string, len(key))
	for i, k := range key {
		keyCols[i] = d.Quote(k)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		target, strings.Join(quoted, ", "), strings.Join(binds, ", "), strings.Join(keyCols, ", "))
	if len(updates) == 0 {
		sb.WriteString("DO NOTHING")
	} else {
		sb.WriteString("DO UPDATE SET ")
		sb.WriteString(strings.Join(updates, ", "))
	}
	return sb.String(), nil
}

// QuoteDouble quotes an identifier with double quotes, doubling any
// embedded quote.
func QuoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Args returns the bind values of row in columns order.
func Args(row domain.Row, columns []string) ([]any, error) {
	args := make([]any, len(columns))
	for i, col := range columns {
		v, err := Value(row[col])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		args[i] = v
	}
	return args, nil
}

// Value converts a row value to a driver value. Objects and arrays become
// JSON text and json.Number is passed as its literal.
func Value(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t, nil
	case int:
		return int64(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		return t.Float64()
	case map[string]any, domain.SourceRecord, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("%w: unsupported value type %T", domain.ErrInvalidInput, v)
}

// MissingKey reports the first key column that is absent or null in row.
func MissingKey(row domain.Row, key []string) (string, bool) {
	for _, k := range key {
		if row[k] == nil {
			return k, true
		}
	}
	return "", false
}
