package fibermw_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redilimit/redilimit"
	"github.com/redilimit/redilimit/middleware/fibermw"
)

type stubChecker struct {
	result *redilimit.Result
	err    error
}

func (s *stubChecker) Check(context.Context, *redilimit.Request) (*redilimit.Result, error) {
	return s.result, s.err
}

func newApp(checker redilimit.Checker) *fiber.App {
	app := fiber.New()
	app.Use(fibermw.RateLimit(checker))
	app.Get("/api", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func perform(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRateLimit_Allowed(t *testing.T) {
	app := newApp(&stubChecker{result: &redilimit.Result{
		Allowed:         true,
		CurrentRequests: 1,
		Limit:           10,
		WindowSeconds:   60,
		ResetTime:       1700000060,
	}})

	resp := perform(t, app)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestRateLimit_Denied(t *testing.T) {
	retryAfter := int64(60)
	app := newApp(&stubChecker{result: &redilimit.Result{
		Allowed:       false,
		Limit:         10,
		WindowSeconds: 60,
		ResetTime:     1700000060,
		RetryAfter:    &retryAfter,
	}})

	resp := perform(t, app)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])
}

func TestRateLimit_BackendError(t *testing.T) {
	app := newApp(&stubChecker{err: errors.New("store down")})

	resp := perform(t, app)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "store down")
}

func TestRateLimit_ExcludePaths(t *testing.T) {
	app := fiber.New()
	app.Use(fibermw.RateLimitWithConfig(fibermw.Config{
		Limiter:      &stubChecker{err: errors.New("should not be called")},
		ExcludePaths: map[string]bool{"/health": true},
	}))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
