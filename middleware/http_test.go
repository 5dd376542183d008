package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redilimit/redilimit"
	"github.com/redilimit/redilimit/middleware"
	"github.com/redilimit/redilimit/store/memory"
)

func newLimiter(t *testing.T, maxRequests int) *redilimit.Limiter {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { _ = s.Close() })

	rl, err := redilimit.New(s, redilimit.WithStrategy(redilimit.StrategyIP))
	require.NoError(t, err)
	limiter, err := rl.Limiter(redilimit.Options{MaxRequests: maxRequests, WindowSeconds: 60})
	require.NoError(t, err)
	return limiter
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsWithinQuota(t *testing.T) {
	handler := middleware.RateLimit(newLimiter(t, 2))(okHandler())

	rec := doRequest(handler, "1.2.3.4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimit_DeniesOverQuota(t *testing.T) {
	handler := middleware.RateLimit(newLimiter(t, 1))(okHandler())

	rec := doRequest(handler, "1.2.3.4")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(handler, "1.2.3.4")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, float64(60), body["window_seconds"])
	assert.NotNil(t, body["reset_time"])
	assert.Equal(t, float64(60), body["retry_after"])

	// A different identity still gets through.
	rec = doRequest(handler, "5.6.7.8")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type errorChecker struct{}

func (errorChecker) Check(context.Context, *redilimit.Request) (*redilimit.Result, error) {
	return nil, &redilimit.BackendError{Key: "k", Err: context.DeadlineExceeded}
}

func TestRateLimit_BackendFailureIs500(t *testing.T) {
	handler := middleware.RateLimit(errorChecker{})(okHandler())

	rec := doRequest(handler, "1.2.3.4")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// Generic message only; store internals are never leaked.
	assert.NotContains(t, body["error"], "k")
	assert.NotEmpty(t, body["error"])
}

func TestRateLimit_AutoRaiseDisabled(t *testing.T) {
	autoRaise := false
	var seen *redilimit.Result

	handler := middleware.RateLimitWithConfig(middleware.Config{
		Limiter:   newLimiter(t, 1),
		AutoRaise: &autoRaise,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.ResultFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(handler, "1.2.3.4")
	rec := doRequest(handler, "1.2.3.4")

	// Denied result reaches the handler instead of being raised.
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.False(t, seen.Allowed)
}

func TestRateLimit_ExcludePaths(t *testing.T) {
	handler := middleware.RateLimitWithConfig(middleware.Config{
		Limiter:      newLimiter(t, 1),
		ExcludePaths: map[string]bool{"/health": true},
	})(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitWithConfig_RequiresLimiter(t *testing.T) {
	assert.Panics(t, func() {
		middleware.RateLimitWithConfig(middleware.Config{})
	})
}
