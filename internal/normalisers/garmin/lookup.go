package garmin

import "github.com/custodia-labs/wearsync/internal/core/domain"

// lookup walks a nested document along path and returns nil as soon as
// a key is missing or a parent is not an object.
func lookup(doc map[string]any, path ...string) any {
	var cur any = doc
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case domain.SourceRecord:
		return m, m != nil
	}
	return nil, false
}

// finish attaches the passthrough column to a row.
func finish(row domain.Row, doc domain.SourceRecord) domain.Row {
	row[domain.DataColumn] = doc
	return row
}
