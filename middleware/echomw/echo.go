// Package echomw provides Echo middleware for rate limiting.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in github.com/labstack/echo.
//
// Usage:
//
//	limiter, _ := rl.Limiter(redilimit.Options{MaxRequests: 100, WindowSeconds: 60})
//	e := echo.New()
//	e.Use(echomw.RateLimit(limiter))
package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/redilimit/redilimit"
)

// DeniedHandler is called when a request is rate limited.
type DeniedHandler func(c echo.Context, result *redilimit.Result) error

// ErrorHandler is called when the limiter returns an error.
type ErrorHandler func(c echo.Context, err error) error

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter redilimit.Checker

	// AutoRaise controls whether a denied request is rejected here.
	// When false, the result is stored on the Echo context under
	// ResultKey and the handler runs regardless. Default: true.
	AutoRaise *bool

	// DeniedHandler is called on denial. Default: 429 JSON details.
	DeniedHandler DeniedHandler

	// ErrorHandler is called on limiter error. Default: 500 generic JSON.
	ErrorHandler ErrorHandler

	// ExcludePaths are request paths that bypass rate limiting.
	ExcludePaths map[string]bool

	// Headers controls whether X-RateLimit-* headers are set.
	// Default: true.
	Headers *bool
}

// ResultKey is the Echo context key under which the check result is stored.
const ResultKey = "redilimit.result"

// RateLimit creates Echo middleware with default settings.
func RateLimit(limiter redilimit.Checker) echo.MiddlewareFunc {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates Echo middleware with full configuration control.
func RateLimitWithConfig(cfg Config) echo.MiddlewareFunc {
	if cfg.Limiter == nil {
		panic("echomw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = defaultDeniedHandler
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	autoRaise := cfg.AutoRaise == nil || *cfg.AutoRaise
	sendHeaders := cfg.Headers == nil || *cfg.Headers

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.ExcludePaths != nil && cfg.ExcludePaths[c.Request().URL.Path] {
				return next(c)
			}

			result, err := cfg.Limiter.Check(c.Request().Context(), redilimit.FromHTTP(c.Request()))
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}

			if sendHeaders {
				setHeaders(c, result)
			}

			if !result.Allowed && autoRaise {
				return cfg.DeniedHandler(c, result)
			}

			c.Set(ResultKey, result)
			return next(c)
		}
	}
}

// ─── Internals ───────────────────────────────────────────────────────────────

func setHeaders(c echo.Context, result *redilimit.Result) {
	h := c.Response().Header()
	for name, value := range result.Headers() {
		h.Set(name, value)
	}
}

func defaultDeniedHandler(c echo.Context, result *redilimit.Result) error {
	return c.JSON(http.StatusTooManyRequests, result.Details())
}

func defaultErrorHandler(c echo.Context, _ error) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "An issue occurred while checking rate limits. Please try again later.",
	})
}
