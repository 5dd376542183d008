package ginmw_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redilimit/redilimit"
	"github.com/redilimit/redilimit/middleware/ginmw"
)

type stubChecker struct {
	result *redilimit.Result
	err    error
}

func (s *stubChecker) Check(context.Context, *redilimit.Request) (*redilimit.Result, error) {
	return s.result, s.err
}

func newRouter(checker redilimit.Checker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ginmw.RateLimit(checker))
	r.GET("/api", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func perform(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "1.2.3.4:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_Allowed(t *testing.T) {
	r := newRouter(&stubChecker{result: &redilimit.Result{
		Allowed:         true,
		CurrentRequests: 1,
		Limit:           10,
		WindowSeconds:   60,
		ResetTime:       1700000060,
	}})

	rec := perform(r, "/api")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_Denied(t *testing.T) {
	retryAfter := int64(60)
	r := newRouter(&stubChecker{result: &redilimit.Result{
		Allowed:         false,
		CurrentRequests: 11,
		Limit:           10,
		WindowSeconds:   60,
		ResetTime:       1700000060,
		RetryAfter:      &retryAfter,
	}})

	rec := perform(r, "/api")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])
}

func TestRateLimit_BackendError(t *testing.T) {
	r := newRouter(&stubChecker{err: errors.New("store down")})

	rec := perform(r, "/api")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "store down")
}

func TestRateLimit_ExcludePaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ginmw.RateLimitWithConfig(ginmw.Config{
		Limiter:      &stubChecker{err: errors.New("should not be called")},
		ExcludePaths: map[string]bool{"/health": true},
	}))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := perform(r, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}
