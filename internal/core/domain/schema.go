package domain

import "sort"

// ColumnSet is the set of column names a destination table accepts.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from column names.
func NewColumnSet(names ...string) ColumnSet {
	set := make(ColumnSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether the column is accepted.
func (s ColumnSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the columns in sorted order.
func (s ColumnSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Filter returns a copy of row keeping only accepted columns.
// Unknown keys are dropped; the row itself is never rejected.
func (s ColumnSet) Filter(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		if s.Has(k) {
			out[k] = v
		}
	}
	return out
}
