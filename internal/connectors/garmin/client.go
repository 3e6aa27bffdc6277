package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// Connect API paths.
const (
	pathProfile    = "/userprofile-service/socialProfile"
	pathActivities = "/activitylist-service/activities/search/activities"
	pathDaily      = "/usersummary-service/usersummary/daily/"
	pathSleep      = "/wellness-service/wellness/dailySleepData/"
	pathWeight     = "/weight-service/weight/dateRange"
	pathHydration  = "/usersummary-service/usersummary/hydration/daily/"
	pathRestingHR  = "/userstats-service/wellness/daily/"
)

// Ensure Client implements the interface.
var _ driven.SourceClient = (*Client)(nil)

// Client fetches documents from Garmin Connect.
type Client struct {
	cfg         Config
	rateLimiter *RateLimiter

	mu          sync.RWMutex
	http        *http.Client
	displayName string
}

// NewClient creates a Connect client. Login must be called before fetching.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:         cfg,
		rateLimiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Login installs the bearer token and resolves the display name used in
// per-user paths when none was configured.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) error {
	if creds.Token == "" {
		return fmt.Errorf("%w: garmin token is empty", domain.ErrAuthRequired)
	}

	base := c.cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: c.cfg.Timeout}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	hc.Timeout = c.cfg.Timeout

	c.mu.Lock()
	c.http = hc
	c.displayName = creds.DisplayName
	c.mu.Unlock()

	if creds.DisplayName != "" {
		return nil
	}

	var profile struct {
		DisplayName string `json:"displayName"`
	}
	if err := c.getJSON(ctx, pathProfile, nil, &profile); err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile.DisplayName == "" {
		return ErrNoDisplayName
	}

	c.mu.Lock()
	c.displayName = profile.DisplayName
	c.mu.Unlock()
	logger.Debug("Logged in to Garmin Connect as %s", profile.DisplayName)
	return nil
}

// DisplayName returns the account display name resolved at login.
func (c *Client) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

// FetchActivities returns up to limit activities starting at offset.
func (c *Client) FetchActivities(ctx context.Context, offset, limit int) ([]domain.SourceRecord, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var docs []domain.SourceRecord
	if err := c.getJSON(ctx, pathActivities, q, &docs); err != nil {
		return nil, fmt.Errorf("fetch activities %d+%d: %w", offset, limit, err)
	}
	if docs == nil {
		docs = []domain.SourceRecord{}
	}
	return docs, nil
}

// FetchDailyStats returns the daily summary of date.
func (c *Client) FetchDailyStats(ctx context.Context, date time.Time) (domain.SourceRecord, error) {
	q := url.Values{}
	q.Set("calendarDate", date.Format(domain.DateLayout))
	return c.fetchUserDoc(ctx, "daily stats", pathDaily, date, q)
}

// FetchSleep returns the sleep payload of date.
func (c *Client) FetchSleep(ctx context.Context, date time.Time) (domain.SourceRecord, error) {
	q := url.Values{}
	q.Set("date", date.Format(domain.DateLayout))
	q.Set("nonSleepBufferMinutes", "60")
	return c.fetchUserDoc(ctx, "sleep", pathSleep, date, q)
}

// FetchBodyComposition returns the weigh-ins between start and end inclusive.
func (c *Client) FetchBodyComposition(ctx context.Context, start, end time.Time) (domain.SourceRecord, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(domain.DateLayout))
	q.Set("endDate", end.Format(domain.DateLayout))

	var doc domain.SourceRecord
	if err := c.getJSON(ctx, pathWeight, q, &doc); err != nil {
		return nil, fmt.Errorf("fetch body composition %s..%s: %w",
			start.Format(domain.DateLayout), end.Format(domain.DateLayout), err)
	}
	return doc, nil
}

// FetchHydration returns the hydration summary of date.
func (c *Client) FetchHydration(ctx context.Context, date time.Time) (domain.SourceRecord, error) {
	day := date.Format(domain.DateLayout)
	var doc domain.SourceRecord
	if err := c.getJSON(ctx, pathHydration+day, nil, &doc); err != nil {
		return nil, fmt.Errorf("fetch hydration %s: %w", day, err)
	}
	return doc, nil
}

// metricRestingHR selects the resting heart rate series of the wellness
// stats endpoint.
const metricRestingHR = "60"

// FetchRestingHeartRate returns the daily resting heart rate values between
// start and end inclusive.
func (c *Client) FetchRestingHeartRate(ctx context.Context, start, end time.Time) (domain.SourceRecord, error) {
	from, until := start.Format(domain.DateLayout), end.Format(domain.DateLayout)
	name := c.DisplayName()
	if name == "" {
		return nil, fmt.Errorf("fetch resting heart rate %s..%s: %w", from, until, ErrNotLoggedIn)
	}

	q := url.Values{}
	q.Set("fromDate", from)
	q.Set("untilDate", until)
	q.Set("metricId", metricRestingHR)

	var doc domain.SourceRecord
	if err := c.getJSON(ctx, pathRestingHR+url.PathEscape(name), q, &doc); err != nil {
		return nil, fmt.Errorf("fetch resting heart rate %s..%s: %w", from, until, err)
	}
	return doc, nil
}

// fetchUserDoc fetches a per-user, per-date document.
func (c *Client) fetchUserDoc(
	ctx context.Context, what, prefix string, date time.Time, q url.Values,
) (domain.SourceRecord, error) {
	day := date.Format(domain.DateLayout)
	name := c.DisplayName()
	if name == "" {
		return nil, fmt.Errorf("fetch %s %s: %w", what, day, ErrNotLoggedIn)
	}

	var doc domain.SourceRecord
	if err := c.getJSON(ctx, prefix+url.PathEscape(name), q, &doc); err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", what, day, err)
	}
	return doc, nil
}

// getJSON performs a GET with throttling and retries and decodes the body
// into out. An empty or null body leaves out untouched.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	c.mu.RLock()
	hc := c.http
	c.mu.RUnlock()
	if hc == nil {
		return ErrNotLoggedIn
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		body, resp, err := c.do(ctx, hc, u)
		backoff := c.cfg.RetryDelay << attempt
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %w", domain.ErrSourceFetch, err)
			c.rateLimiter.RecordRateLimitError(backoff)
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp, backoff)
			c.rateLimiter.RecordRateLimitError(wait)
			lastErr = &RateLimitError{RetryAt: c.rateLimiter.RetryAt(), URL: u}
		case resp.StatusCode >= 500:
			c.rateLimiter.RecordRateLimitError(backoff)
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(body), URL: u}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return &APIError{StatusCode: resp.StatusCode, Body: string(body), URL: u}
		default:
			return decode(body, out)
		}
		logger.Debug("Garmin request %s failed (attempt %d): %v", path, attempt+1, lastErr)
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, hc *http.Client, u string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("NK", "NT")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	return body, resp, nil
}

// decode parses JSON keeping numbers as json.Number.
func decode(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrSourceFetch, err)
	}
	return nil
}
