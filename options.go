package redilimit

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied to zero-valued Options fields, mirroring the
// configuration surface exposed to callers.
const (
	DefaultMaxRequests   = 100
	DefaultWindowSeconds = 60
	DefaultKeyPrefix     = "ratelimit"
)

// Options configures a single Limiter instance: the quota and the width
// of its sliding window. The effective window is
// WindowSeconds + WindowHours*3600 seconds.
//
// Zero values take the documented defaults (100 requests per 60 seconds).
// Negative values are configuration errors and fail Limiter construction.
type Options struct {
	// MaxRequests is the quota: the maximum number of requests allowed
	// within the window. A request landing exactly at the quota is still
	// allowed; only the next one past it is denied.
	MaxRequests int

	// WindowSeconds is the base window width in seconds.
	WindowSeconds int

	// WindowHours is additional window width in hours, added on top of
	// WindowSeconds for long-horizon limits.
	WindowHours int
}

func (o Options) withDefaults() Options {
	if o.MaxRequests == 0 {
		o.MaxRequests = DefaultMaxRequests
	}
	if o.WindowSeconds == 0 {
		o.WindowSeconds = DefaultWindowSeconds
	}
	return o
}

// Validate reports whether the options describe a usable limiter.
// Defaults are not applied here; callers normally go through
// RateLimiter.Limiter, which fills defaults first.
func (o Options) Validate() error {
	if o.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidOptions, o.MaxRequests)
	}
	if o.WindowSeconds <= 0 {
		return fmt.Errorf("%w: window seconds must be positive, got %d", ErrInvalidOptions, o.WindowSeconds)
	}
	if o.WindowHours < 0 {
		return fmt.Errorf("%w: window hours must be non-negative, got %d", ErrInvalidOptions, o.WindowHours)
	}
	return nil
}

// TotalSeconds is the effective sliding window width in seconds.
func (o Options) TotalSeconds() int {
	return o.WindowSeconds + o.WindowHours*3600
}

// config holds process-wide limiter configuration assembled by New.
type config struct {
	strategy     Strategy
	keyPrefix    string
	keyGenerator KeyGenerator
	hashTag      bool
	now          func() time.Time
	logger       zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		strategy:  StrategyClient,
		keyPrefix: DefaultKeyPrefix,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
}

// Option configures a RateLimiter.
type Option func(*config)

// WithStrategy selects the identity strategy used to derive per-caller
// keys. Default: StrategyClient.
func WithStrategy(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithKeyPrefix sets the prefix prepended to all store keys.
// Default: "ratelimit". Distinct limiter deployments sharing one Redis
// should use distinct prefixes.
func WithKeyPrefix(prefix string) Option {
	return func(c *config) { c.keyPrefix = prefix }
}

// WithKeyGenerator supplies a custom key generator and implies
// StrategyCustom. The generator owns key uniqueness; colliding keys
// share one window.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(c *config) {
		c.strategy = StrategyCustom
		c.keyGenerator = g
	}
}

// WithHashTag wraps the key suffix in {braces} so that Redis Cluster
// hashes all keys for one identity to the same slot.
func WithHashTag() Option {
	return func(c *config) { c.hashTag = true }
}

// WithClock overrides the wall-clock source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithLogger sets the logger used to report backend failures.
// Default: a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// formatKey builds the store key for an identity suffix, applying the
// configured prefix and optional cluster hash tag.
//
//	formatKey("ip:1.2.3.4")            → "ratelimit:ip:1.2.3.4"
//	formatKey("ip:1.2.3.4") (HashTag)  → "ratelimit:{ip:1.2.3.4}"
func (c *config) formatKey(suffix string) string {
	if c.hashTag {
		return c.keyPrefix + ":{" + suffix + "}"
	}
	return c.keyPrefix + ":" + suffix
}
