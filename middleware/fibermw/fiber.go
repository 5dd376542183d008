// Package fibermw provides Fiber middleware for rate limiting.
//
// Fiber uses fasthttp (not net/http), so this adapter rebuilds the
// framework-neutral redilimit.Request from the fasthttp context before
// resolving the caller's identity.
//
// Usage:
//
//	limiter, _ := rl.Limiter(redilimit.Options{MaxRequests: 100, WindowSeconds: 60})
//	app := fiber.New()
//	app.Use(fibermw.RateLimit(limiter))
package fibermw

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/redilimit/redilimit"
)

// DeniedHandler is called when a request is rate limited.
type DeniedHandler func(c *fiber.Ctx, result *redilimit.Result) error

// ErrorHandler is called when the limiter returns an error.
type ErrorHandler func(c *fiber.Ctx, err error) error

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter redilimit.Checker

	// AutoRaise controls whether a denied request is rejected here.
	// When false, the result is stored in ctx locals under ResultKey
	// and the handler runs regardless. Default: true.
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

// ResultKey is the locals key under which the check result is stored.
const ResultKey = "redilimit.result"

// RateLimit creates Fiber middleware with default settings.
func RateLimit(limiter redilimit.Checker) fiber.Handler {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates Fiber middleware with full configuration control.
func RateLimitWithConfig(cfg Config) fiber.Handler {
	if cfg.Limiter == nil {
		panic("fibermw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = defaultDeniedHandler
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	autoRaise := cfg.AutoRaise == nil || *cfg.AutoRaise
	sendHeaders := cfg.Headers == nil || *cfg.Headers

	return func(c *fiber.Ctx) error {
		if cfg.ExcludePaths != nil && cfg.ExcludePaths[c.Path()] {
			return c.Next()
		}

		result, err := cfg.Limiter.Check(c.UserContext(), requestFromCtx(c))
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if sendHeaders {
			setHeaders(c, result)
		}

		if !result.Allowed && autoRaise {
			return cfg.DeniedHandler(c, result)
		}

		c.Locals(ResultKey, result)
		return c.Next()
	}
}

// ─── Internals ───────────────────────────────────────────────────────────────

// requestFromCtx copies the fasthttp headers and peer address into the
// framework-neutral request the identity resolver reads.
func requestFromCtx(c *fiber.Ctx) *redilimit.Request {
	header := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	return &redilimit.Request{
		Header:     header,
		RemoteAddr: c.Context().RemoteAddr().String(),
	}
}

func setHeaders(c *fiber.Ctx, result *redilimit.Result) {
	for name, value := range result.Headers() {
		c.Set(name, value)
	}
}

func defaultDeniedHandler(c *fiber.Ctx, result *redilimit.Result) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(result.Details())
}

func defaultErrorHandler(c *fiber.Ctx, _ error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An issue occurred while checking rate limits. Please try again later.",
	})
}
