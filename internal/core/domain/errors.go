package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidWindow indicates a sync window whose start is after its end.
	ErrInvalidWindow = errors.New("invalid sync window")

	// Source Errors.

	// ErrAuthRequired indicates the source client has no usable credentials.
	ErrAuthRequired = errors.New("authentication required")

	// ErrSourceFetch indicates a single call to the provider failed.
	// Recoverable: the call's output is skipped and the run continues.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Sink Errors.

	// ErrSchemaUnavailable indicates the column set of a table could not be
	// introspected. Fatal for that table's uploads for the rest of the run.
	ErrSchemaUnavailable = errors.New("schema unavailable")

	// ErrUploadRejected indicates the sink refused a single row.
	ErrUploadRejected = errors.New("upload rejected")

	// ErrSinkUnsupported indicates an unknown sink kind in the settings.
	ErrSinkUnsupported = errors.New("unsupported sink")

	// Backup Errors.

	// ErrBackupWrite indicates the run archive could not be written.
	// Fatal: the durability fallback of the run depends on it.
	ErrBackupWrite = errors.New("backup write failed")
)

// RejectedError is returned by a sink when it answers an upsert with a
// non-success status. Status is 0 when the sink is not HTTP based.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upload rejected: %s", e.Body)
	}
	return fmt.Sprintf("upload rejected: status %d: %s", e.Status, e.Body)
}

// Is lets errors.Is(err, ErrUploadRejected) match any RejectedError.
func (e *RejectedError) Is(target error) bool {
	return target == ErrUploadRejected
}
