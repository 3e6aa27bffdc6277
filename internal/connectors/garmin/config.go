package garmin

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Garmin Connect API root.
	DefaultBaseURL = "https://connectapi.garmin.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// DefaultUserAgent identifies the client to Connect.
	DefaultUserAgent = "wearsync"

	// maxBodySize caps the size of a decoded response.
	maxBodySize = 32 << 20
)

// Config configures the client.
type Config struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxRetries bounds retries of 429 and 5xx responses.
	MaxRetries int

	// RetryDelay is the first backoff step; it doubles per attempt.
	RetryDelay time.Duration

	// RateLimit configures proactive throttling.
	RateLimit RateLimitConfig

	// UserAgent is sent with every request.
	UserAgent string

	// HTTPClient is the transport under the bearer token. Optional.
	HTTPClient *http.Client
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: MaxRetries,
		RetryDelay: RetryDelay,
		RateLimit:  DefaultRateLimit,
		UserAgent:  DefaultUserAgent,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit = d.RateLimit
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
