// Package middleware provides net/http middleware that enforces rate
// limits at the request boundary.
//
// Denied requests receive a 429 with a JSON body and the standard
// X-RateLimit-* headers. Backend failures map to a 500 with a generic
// message; store internals are never leaked to clients.
//
// Usage with net/http:
//
//	mux := http.NewServeMux()
//	mux.Handle("/api/", middleware.RateLimit(limiter)(handler))
//
// Usage with chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RateLimit(limiter))
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/redilimit/redilimit"
)

// ErrorHandler is called when the limiter returns an error.
// Default behavior: 500 with a generic JSON body.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DeniedHandler is called when a request is rate limited.
// Default behavior: 429 with the result's JSON details.
type DeniedHandler func(w http.ResponseWriter, r *http.Request, result *redilimit.Result)

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter redilimit.Checker

	// AutoRaise controls whether a denied request is rejected here.
	// When false, the result is stashed in the request context
	// (see ResultFromContext) and the handler runs regardless.
	// Default: true.
	AutoRaise *bool

	// ErrorHandler is called when the limiter returns an error.
	// Default: responds with 500.
	ErrorHandler ErrorHandler

	// DeniedHandler is called when a request is denied.
	// Default: responds with 429, rate limit headers, and JSON details.
	DeniedHandler DeniedHandler

	// ExcludePaths are request paths that bypass rate limiting.
	ExcludePaths map[string]bool

	// Headers controls whether X-RateLimit-* headers are set on responses.
	// Default: true.
	Headers *bool
}

// RateLimit creates HTTP middleware with default settings: denied
// requests get a 429 with retry guidance, backend failures a generic 500.
func RateLimit(limiter redilimit.Checker) func(http.Handler) http.Handler {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates HTTP middleware with full configuration control.
func RateLimitWithConfig(cfg Config) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		panic("redilimit/middleware: Limiter is required")
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = defaultDeniedHandler
	}
	autoRaise := cfg.AutoRaise == nil || *cfg.AutoRaise
	sendHeaders := cfg.Headers == nil || *cfg.Headers

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.ExcludePaths != nil && cfg.ExcludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.Check(r.Context(), redilimit.FromHTTP(r))
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			if sendHeaders {
				setRateLimitHeaders(w, result)
			}

			if !result.Allowed && autoRaise {
				cfg.DeniedHandler(w, r, result)
				return
			}

			next.ServeHTTP(w, r.WithContext(withResult(r.Context(), result)))
		})
	}
}

// ─── Result context ──────────────────────────────────────────────────────────

type contextKey struct{}

func withResult(ctx context.Context, result *redilimit.Result) context.Context {
	return context.WithValue(ctx, contextKey{}, result)
}

// ResultFromContext returns the rate limit result recorded for this
// request, if the middleware ran for it.
func ResultFromContext(ctx context.Context) (*redilimit.Result, bool) {
	result, ok := ctx.Value(contextKey{}).(*redilimit.Result)
	return result, ok
}

// ─── Headers ─────────────────────────────────────────────────────────────────

func setRateLimitHeaders(w http.ResponseWriter, result *redilimit.Result) {
	for name, value := range result.Headers() {
		w.Header().Set(name, value)
	}
}

// ─── Default Handlers ────────────────────────────────────────────────────────

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "An issue occurred while checking rate limits. Please try again later.",
	})
}

func defaultDeniedHandler(w http.ResponseWriter, _ *http.Request, result *redilimit.Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(result.Details())
}
