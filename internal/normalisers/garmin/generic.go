package garmin

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	c "github.com/custodia-labs/wearsync/internal/normalisers/coerce"
)

// Ensure GenericNormaliser implements the interface.
var _ driven.Normaliser = (*GenericNormaliser)(nil)

// GenericNormaliser flattens documents of kinds without a dedicated field map.
type GenericNormaliser struct {
	kind  domain.RecordKind
	table string
}

// NewGeneric creates a generic normaliser writing kind to table.
func NewGeneric(kind domain.RecordKind, table string) *GenericNormaliser {
	return &GenericNormaliser{kind: kind, table: table}
}

// Kind returns the record kind this normaliser handles.
func (n *GenericNormaliser) Kind() domain.RecordKind { return n.kind }

// Table returns the destination table.
func (n *GenericNormaliser) Table() string { return n.table }

// Normalise flattens the document. A missing calendar_date is filled from
// the processed date when there is one.
func (n *GenericNormaliser) Normalise(doc domain.SourceRecord, date time.Time) []domain.Row {
	row := Generic(doc)
	if row["calendar_date"] == nil && !date.IsZero() {
		row["calendar_date"] = date.Format(domain.DateLayout)
	}
	return []domain.Row{row}
}

// Generic copies the flat fields of doc under snake_case names.
// Objects and arrays are only kept inside the data column.
// When two keys map to the same column, a key that is already snake_case
// wins, otherwise the first key in sorted order.
func Generic(doc domain.SourceRecord) domain.Row {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	row := make(domain.Row, len(doc)+1)
	for _, key := range keys {
		col := c.SnakeCase(key)
		if _, taken := row[col]; taken && key != col {
			continue
		}
		v := doc[key]
		if v == nil {
			row[col] = nil
			continue
		}
		if s := scalar(v); s != nil {
			row[col] = s
		}
	}
	return finish(row, doc)
}

// scalar returns v as a row value, or nil for objects and arrays.
func scalar(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return c.FloatOrNil(t)
	case string, bool, float64:
		return t
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return c.IntOrNil(t)
	case map[string]any, domain.SourceRecord, []any:
		return nil
	}
	if f, ok := c.Float(v); ok {
		return f
	}
	return nil
}
