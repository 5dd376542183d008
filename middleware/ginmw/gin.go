// Package ginmw provides Gin middleware for rate limiting.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in github.com/gin-gonic/gin.
//
// Usage:
//
//	limiter, _ := rl.Limiter(redilimit.Options{MaxRequests: 100, WindowSeconds: 60})
//	r := gin.Default()
//	r.Use(ginmw.RateLimit(limiter))
package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/redilimit/redilimit"
)

// DeniedHandler is called when a request is rate limited.
type DeniedHandler func(c *gin.Context, result *redilimit.Result)

// ErrorHandler is called when the limiter returns an error.
type ErrorHandler func(c *gin.Context, err error)

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter redilimit.Checker

	// AutoRaise controls whether a denied request is rejected here.
	// When false, the result is stored on the Gin context under
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

// ResultKey is the Gin context key under which the check result is stored.
const ResultKey = "redilimit.result"

// RateLimit creates Gin middleware with default settings.
func RateLimit(limiter redilimit.Checker) gin.HandlerFunc {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates Gin middleware with full configuration control.
func RateLimitWithConfig(cfg Config) gin.HandlerFunc {
	if cfg.Limiter == nil {
		panic("ginmw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = defaultDeniedHandler
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	autoRaise := cfg.AutoRaise == nil || *cfg.AutoRaise
	sendHeaders := cfg.Headers == nil || *cfg.Headers

	return func(c *gin.Context) {
		if cfg.ExcludePaths != nil && cfg.ExcludePaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		result, err := cfg.Limiter.Check(c.Request.Context(), redilimit.FromHTTP(c.Request))
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}

		if sendHeaders {
			setHeaders(c, result)
		}

		if !result.Allowed && autoRaise {
			cfg.DeniedHandler(c, result)
			return
		}

		c.Set(ResultKey, result)
		c.Next()
	}
}

// ─── Internals ───────────────────────────────────────────────────────────────

func setHeaders(c *gin.Context, result *redilimit.Result) {
	for name, value := range result.Headers() {
		c.Header(name, value)
	}
}

func defaultDeniedHandler(c *gin.Context, result *redilimit.Result) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, result.Details())
}

func defaultErrorHandler(c *gin.Context, _ error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "An issue occurred while checking rate limits. Please try again later.",
	})
}
