package garmin

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// Garmin-specific errors.
var (
	// ErrNotLoggedIn indicates a fetch before a successful Login.
	ErrNotLoggedIn = errors.New("garmin: client is not logged in")

	// ErrNoDisplayName indicates the profile did not return a display name.
	ErrNoDisplayName = errors.New("garmin: profile has no display name")
)

// APIError represents a non-success Connect response.
type APIError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("garmin: API error %d: %s (URL: %s)", e.StatusCode, e.Body, e.URL)
}

// Unwrap classifies the error against the domain sentinels.
func (e *APIError) Unwrap() []error {
	errs := []error{domain.ErrSourceFetch}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, domain.ErrAuthRequired)
	case http.StatusNotFound:
		errs = append(errs, domain.ErrNotFound)
	}
	return errs
}

// RateLimitError is returned when 429 responses outlast the retries.
type RateLimitError struct {
	RetryAt time.Time
	URL     string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("garmin: rate limit exceeded, retry at %s (URL: %s)", e.RetryAt.Format(time.RFC3339), e.URL)
}

// Unwrap classifies the error against the domain sentinels.
func (e *RateLimitError) Unwrap() []error {
	return []error{domain.ErrRateLimited, domain.ErrSourceFetch}
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
