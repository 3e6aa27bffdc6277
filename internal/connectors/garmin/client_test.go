package garmin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/core/domain"
)

var day = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func testConfig(url string) Config {
	return Config{
		BaseURL:    url,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		RateLimit:  RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(testConfig(srv.URL))
	require.NoError(t, c.Login(context.Background(), domain.Credentials{Token: "tok", DisplayName: "runner"}))
	return c
}

func TestLogin_EmptyToken(t *testing.T) {
	c := NewClient(DefaultConfig())
	err := c.Login(context.Background(), domain.Credentials{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestLogin_ResolvesDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userprofile-service/socialProfile", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"displayName": "abc-123", "userName": "x"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	require.NoError(t, c.Login(context.Background(), domain.Credentials{Token: "tok"}))
	assert.Equal(t, "abc-123", c.DisplayName())
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	err := c.Login(context.Background(), domain.Credentials{Token: "tok"})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestFetchBeforeLogin(t *testing.T) {
	c := NewClient(DefaultConfig())
	_, err := c.FetchDailyStats(context.Background(), day)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestFetchDailyStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usersummary-service/usersummary/daily/runner", r.URL.Path)
		assert.Equal(t, "2024-01-05", r.URL.Query().Get("calendarDate"))
		_, _ = w.Write([]byte(`{"calendarDate": "2024-01-05", "totalSteps": 9001, "userProfileId": 123456789012345678}`))
	})

	doc, err := c.FetchDailyStats(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", doc["calendarDate"])
	assert.Equal(t, json.Number("9001"), doc["totalSteps"])
	assert.Equal(t, json.Number("123456789012345678"), doc["userProfileId"])
}

func TestFetchSleep(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wellness-service/wellness/dailySleepData/runner", r.URL.Path)
		assert.Equal(t, "2024-01-05", r.URL.Query().Get("date"))
		assert.Equal(t, "60", r.URL.Query().Get("nonSleepBufferMinutes"))
		_, _ = w.Write([]byte(`{"dailySleepDTO": {"calendarDate": "2024-01-05"}}`))
	})

	doc, err := c.FetchSleep(context.Background(), day)
	require.NoError(t, err)
	dto, ok := doc["dailySleepDTO"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-01-05", dto["calendarDate"])
}

func TestFetchActivities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activitylist-service/activities/search/activities", r.URL.Path)
		if r.URL.Query().Get("start") == "0" {
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[{"activityId": 1}, {"activityId": 2}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	docs, err := c.FetchActivities(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, json.Number("2"), docs[1]["activityId"])

	docs, err = c.FetchActivities(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestFetchBodyComposition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weight-service/weight/dateRange", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-01-05", r.URL.Query().Get("endDate"))
		_, _ = w.Write([]byte(`{"dateWeightList": [{"samplePk": 1}]}`))
	})

	doc, err := c.FetchBodyComposition(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), day)
	require.NoError(t, err)
	assert.Len(t, doc["dateWeightList"], 1)
}

func TestFetchHydration(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usersummary-service/usersummary/hydration/daily/2024-01-05", r.URL.Path)
		_, _ = w.Write([]byte(`{"calendarDate": "2024-01-05", "valueInML": 1500}`))
	})

	doc, err := c.FetchHydration(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, json.Number("1500"), doc["valueInML"])
}

func TestFetchRestingHeartRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userstats-service/wellness/daily/runner", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("fromDate"))
		assert.Equal(t, "2024-01-05", r.URL.Query().Get("untilDate"))
		assert.Equal(t, "60", r.URL.Query().Get("metricId"))
		_, _ = w.Write([]byte(`{"allMetrics": {"metricsMap": {"WELLNESS_RESTING_HEART_RATE": [{"value": 52.0, "calendarDate": "2024-01-05"}]}}}`))
	})

	doc, err := c.FetchRestingHeartRate(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), day)
	require.NoError(t, err)
	assert.Contains(t, doc, "allMetrics")
}

func TestFetchRestingHeartRate_NotLoggedIn(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.FetchRestingHeartRate(context.Background(), day, day)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestFetch_NullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	doc, err := c.FetchSleep(context.Background(), day)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	doc, err := c.FetchDailyStats(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, true, doc["ok"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := c.FetchDailyStats(context.Background(), day)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceFetch)
	assert.Contains(t, err.Error(), "daily stats 2024-01-05")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RateLimited(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchSleep(context.Background(), day)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, err, domain.ErrSourceFetch)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "no such day", http.StatusNotFound)
	})

	_, err := c.FetchHydration(context.Background(), day)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Body, "no such day")
}

func TestFetch_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"broken":`))
	})

	_, err := c.FetchDailyStats(context.Background(), day)
	assert.ErrorIs(t, err, domain.ErrSourceFetch)
}

func TestFetch_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchDailyStats(ctx, day)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiter_Backoff(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1})
	r.RecordRateLimitError(20 * time.Millisecond)
	// A shorter backoff does not shorten the window.
	r.RecordRateLimitError(time.Millisecond)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Second, retryAfter(resp, time.Second))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfter(resp, time.Second))

	resp.Header.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	assert.Equal(t, time.Second, retryAfter(resp, time.Second))

	assert.Equal(t, time.Second, retryAfter(nil, time.Second))
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, RetryDelay, cfg.RetryDelay)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
}
