package redilimit

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/redilimit/redilimit/store"
	redisstore "github.com/redilimit/redilimit/store/redis"
)

// Builder provides a fluent API for constructing a Limiter.
//
//	limiter, err := redilimit.NewBuilder().
//	    Redis(client).
//	    Strategy(redilimit.StrategyClient).
//	    MaxRequests(100).
//	    Window(60*time.Second, 0).
//	    Build()
type Builder struct {
	store store.Store
	opts  []Option
	limit Options
}

// NewBuilder returns a new Builder with default options.
func NewBuilder() *Builder {
	return &Builder{}
}

// ─── Store selectors ─────────────────────────────────────────────────────────

// Redis sets the Redis backend. Accepts any redis.UniversalClient.
func (b *Builder) Redis(client redis.UniversalClient) *Builder {
	b.store = redisstore.New(client)
	return b
}

// Store sets a custom store.Store backend.
func (b *Builder) Store(s store.Store) *Builder {
	b.store = s
	return b
}

// ─── Identity configuration ──────────────────────────────────────────────────

// Strategy selects the identity strategy.
func (b *Builder) Strategy(s Strategy) *Builder {
	b.opts = append(b.opts, WithStrategy(s))
	return b
}

// KeyPrefix sets the prefix prepended to all store keys.
func (b *Builder) KeyPrefix(prefix string) *Builder {
	b.opts = append(b.opts, WithKeyPrefix(prefix))
	return b
}

// KeyGenerator supplies a custom key generator and implies StrategyCustom.
func (b *Builder) KeyGenerator(g KeyGenerator) *Builder {
	b.opts = append(b.opts, WithKeyGenerator(g))
	return b
}

// HashTag enables Redis Cluster hash-tag wrapping on keys.
func (b *Builder) HashTag() *Builder {
	b.opts = append(b.opts, WithHashTag())
	return b
}

// Logger sets the logger used to report backend failures.
func (b *Builder) Logger(l zerolog.Logger) *Builder {
	b.opts = append(b.opts, WithLogger(l))
	return b
}

// Clock overrides the wall-clock source. Intended for tests.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.opts = append(b.opts, WithClock(now))
	return b
}

// ─── Window configuration ────────────────────────────────────────────────────

// MaxRequests sets the quota per window.
func (b *Builder) MaxRequests(n int) *Builder {
	b.limit.MaxRequests = n
	return b
}

// Window sets the window width: a base duration (truncated to whole
// seconds) plus additional hours.
func (b *Builder) Window(base time.Duration, hours int) *Builder {
	b.limit.WindowSeconds = int(base.Seconds())
	b.limit.WindowHours = hours
	return b
}

// ─── Build ───────────────────────────────────────────────────────────────────

// Build validates the configuration and returns the configured Limiter.
func (b *Builder) Build() (*Limiter, error) {
	rl, err := b.BuildRateLimiter()
	if err != nil {
		return nil, err
	}
	return rl.Limiter(b.limit)
}

// BuildRateLimiter returns the process-wide RateLimiter without binding
// a window, for callers deriving several route-level limiters from one
// store connection.
func (b *Builder) BuildRateLimiter() (*RateLimiter, error) {
	return New(b.store, b.opts...)
}
