package driven

import (
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// Normaliser transforms one provider document into rows of a destination table.
// Implementations are total: missing fields become nil, they never fail.
type Normaliser interface {
	// Kind returns the record kind this normaliser handles.
	Kind() domain.RecordKind

	// Table returns the destination table.
	Table() string

	// Normalise maps a source document to zero or more rows.
	// date is the calendar date being processed (zero for activities).
	Normalise(doc domain.SourceRecord, date time.Time) []domain.Row
}

// NormaliserRegistry selects the normaliser for a record kind.
type NormaliserRegistry interface {
	// Register adds a normaliser, replacing one for the same kind.
	Register(n Normaliser)

	// Get returns the normaliser for a kind, falling back to a generic one.
	Get(kind domain.RecordKind) Normaliser
}
