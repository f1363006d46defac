package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/seuss/pkg/redfish"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/redfish/v1/", nil)
	req.RemoteAddr = addr
	return req
}

func TestRequestKeys(t *testing.T) {
	req := requestFrom("10.0.0.7:4242")
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	require.Equal(t, "10.0.0.7", ByRemoteIP(req), "forwarding headers are ignored")
	require.Equal(t, "10.0.0.7", ByPrincipal(req))

	req = req.WithContext(WithPrincipal(req.Context(), "admin"))
	require.Equal(t, "admin@10.0.0.7", ByPrincipal(req))
}

func TestRateLimit_RejectsOnceBurstIsSpent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cfg := RateLimitConfig{RequestsPerWindow: 6, Window: time.Minute, Burst: 2}
	h := rateLimit(cfg, ByRemoteIP, clock.now)(okHandler())

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:1"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:1"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "10", rec.Header().Get("Retry-After"))

	var body redfish.Error
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, redfish.RequestRateExceeded.ID(), body.Error.Code)

	// Another peer has its own bucket.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2:1"))
	require.Equal(t, http.StatusOK, rec.Code)

	// One token is back after Window/RequestsPerWindow.
	clock.advance(11 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:1"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_EmptyKeyIsNotLimited(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}
	h := RateLimit(cfg, func(*http.Request) string { return "" })(okHandler())

	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:1"))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitByPrincipal_SeparatesUsers(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}
	h := RateLimitByPrincipal(cfg)(okHandler())

	as := func(principal string) int {
		req := requestFrom("10.0.0.1:1")
		if principal != "" {
			req = req.WithContext(WithPrincipal(req.Context(), principal))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, as("alice"))
	require.Equal(t, http.StatusTooManyRequests, as("alice"))
	require.Equal(t, http.StatusOK, as("bob"))
	require.Equal(t, http.StatusOK, as(""))
	require.Equal(t, http.StatusTooManyRequests, as(""))
}

func TestBuckets_SweepsIdleKeys(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	b := newBuckets(RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 5})

	ok, _ := b.take("a", start)
	require.True(t, ok)
	ok, _ = b.take("b", start.Add(30*time.Second))
	require.True(t, ok)
	require.Equal(t, 2, b.size())

	// "a" has been idle for a full window, "b" has not.
	ok, _ = b.take("c", start.Add(70*time.Second))
	require.True(t, ok)
	require.Equal(t, 2, b.size())
}

func TestLimitFromEnv(t *testing.T) {
	def := RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Setenv("RATELIMIT_TEST_REQUESTS", "50")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TEST_BURST", "-3")

	got := LimitFromEnv("TEST", def)
	require.Equal(t, 50, got.RequestsPerWindow)
	require.Equal(t, 30*time.Second, got.Window)
	require.Equal(t, 10, got.Burst, "non-positive values are ignored")

	require.Equal(t, def, LimitFromEnv("UNSET", def))
}

func TestRateLimitConfig_ZeroWindowIsUnlimited(t *testing.T) {
	b := newBuckets(RateLimitConfig{Burst: 1})
	now := time.Unix(1_700_000_000, 0)
	for range 10 {
		ok, _ := b.take("k", now)
		require.True(t, ok)
	}
}
