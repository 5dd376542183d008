package redilimit

import (
	"errors"
	"fmt"
)

// Configuration errors, surfaced at construction time. A limiter that
// fails construction must not serve protected routes.
var (
	// ErrInvalidOptions marks quota/window values that fail validation.
	ErrInvalidOptions = errors.New("redilimit: invalid options")

	// ErrNilStore is returned by New when no store is supplied.
	ErrNilStore = errors.New("redilimit: store is required")

	// ErrMissingKeyGenerator is returned by New when StrategyCustom is
	// selected without a KeyGenerator.
	ErrMissingKeyGenerator = errors.New("redilimit: custom strategy requires a key generator")

	// ErrUnknownStrategy is returned by New for a strategy outside the
	// supported set.
	ErrUnknownStrategy = errors.New("redilimit: unknown strategy")
)

// ErrBackendUnavailable marks a check that could not be completed because
// the store transaction failed or returned a malformed result. It is never
// converted into an allow or deny decision: silently allowing traffic
// defeats the limiter, silently denying it causes outages unrelated to
// the store.
var ErrBackendUnavailable = errors.New("redilimit: rate limit backend unavailable")

// BackendError wraps the store-level cause of a failed check. It matches
// errors.Is(err, ErrBackendUnavailable) so callers can alert on store
// outages separately from normal throttling.
type BackendError struct {
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%v: key %q: %v", ErrBackendUnavailable, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports equivalence with ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool { return target == ErrBackendUnavailable }
