package redilimit

import "strconv"

// Result is the outcome of a single rate limit check. It is constructed
// fresh per check and never mutated afterwards.
type Result struct {
	// Allowed reports whether the request is within quota.
	Allowed bool

	// CurrentRequests is the number of requests recorded in the active
	// window, including the one just checked.
	CurrentRequests int64

	// Limit is the configured quota.
	Limit int64

	// WindowSeconds is the effective window width in seconds
	// (base seconds plus the hour component).
	WindowSeconds int64

	// ResetTime is the unix timestamp at which the current window is
	// expected to fully expire.
	ResetTime int64

	// RetryAfter is the number of seconds until the client may retry.
	// Present only when Allowed is false.
	RetryAfter *int64
}

// Remaining is the quota left in the active window, floored at zero.
func (r *Result) Remaining() int64 {
	if rem := r.Limit - r.CurrentRequests; rem > 0 {
		return rem
	}
	return 0
}

// Headers returns the response headers describing this result:
// X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, and
// Retry-After when the request was denied.
func (r *Result) Headers() map[string]string {
	headers := map[string]string{
		"X-RateLimit-Limit":     strconv.FormatInt(r.Limit, 10),
		"X-RateLimit-Remaining": strconv.FormatInt(r.Remaining(), 10),
		"X-RateLimit-Reset":     strconv.FormatInt(r.ResetTime, 10),
	}
	if r.RetryAfter != nil {
		headers["Retry-After"] = strconv.FormatInt(*r.RetryAfter, 10)
	}
	return headers
}

// Details returns the response body fields for a denied request.
func (r *Result) Details() map[string]any {
	details := map[string]any{
		"error":          "Rate limit exceeded",
		"allowed":        r.Allowed,
		"window_seconds": r.WindowSeconds,
		"reset_time":     r.ResetTime,
	}
	if r.RetryAfter != nil {
		details["retry_after"] = *r.RetryAfter
	} else {
		details["retry_after"] = nil
	}
	return details
}
