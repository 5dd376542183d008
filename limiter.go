package redilimit

import (
	"context"

	"github.com/redilimit/redilimit/cache"
	"github.com/redilimit/redilimit/store"
)

// Checker is the per-request decision surface. Limiter implements it;
// decorators (e.g. metrics.Wrap) compose around it.
type Checker interface {
	Check(ctx context.Context, req *Request) (*Result, error)
}

// RateLimiter binds a store connection to an identity strategy. It is
// constructed once per process, then shared: all fields are immutable
// after New, so concurrent use needs no locking.
//
// Limiters for individual routes are derived via Limiter.
type RateLimiter struct {
	store   store.Store
	cfg     *config
	keyGen  KeyGenerator
	uaCache *cache.Cache[ClientUserAgent]
}

// New creates a RateLimiter over the given store. Configuration errors
// (nil store, custom strategy without a generator, unknown strategy) are
// returned here, never deferred to request time.
func New(s store.Store, opts ...Option) (*RateLimiter, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	rl := &RateLimiter{
		store:   s,
		cfg:     cfg,
		uaCache: cache.New[ClientUserAgent](),
	}
	keyGen, err := rl.newKeyGenerator()
	if err != nil {
		return nil, err
	}
	rl.keyGen = keyGen
	return rl, nil
}

// Strategy returns the configured identity strategy.
func (rl *RateLimiter) Strategy() Strategy {
	return rl.cfg.strategy
}

// Key resolves the identity key for a request without checking any limit.
func (rl *RateLimiter) Key(ctx context.Context, req *Request) (string, error) {
	return rl.keyGen(ctx, req)
}

// Limiter derives a route-level limiter with the given quota and window.
// Zero-valued fields take defaults; invalid values fail here.
func (rl *RateLimiter) Limiter(opts Options) (*Limiter, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{rl: rl, opts: opts}, nil
}

// Limiter checks requests against one quota/window configuration.
// Immutable after construction and safe for concurrent use; correctness
// under concurrency rests entirely on the store-side transaction.
type Limiter struct {
	rl   *RateLimiter
	opts Options
}

var _ Checker = (*Limiter)(nil)

// Options returns the limiter's validated configuration.
func (l *Limiter) Options() Options {
	return l.opts
}

// Check resolves the request's identity key and runs the sliding-window
// transaction. A *BackendError (errors.Is ErrBackendUnavailable) means
// the decision could not be made; it is never mapped to allow or deny.
func (l *Limiter) Check(ctx context.Context, req *Request) (*Result, error) {
	key, err := l.rl.keyGen(ctx, req)
	if err != nil {
		return nil, err
	}
	return l.CheckKey(ctx, key)
}

// Reset clears the recorded window for the request's identity.
func (l *Limiter) Reset(ctx context.Context, req *Request) error {
	key, err := l.rl.keyGen(ctx, req)
	if err != nil {
		return err
	}
	return l.ResetKey(ctx, key)
}

// ResetKey clears the recorded window for an identity key.
func (l *Limiter) ResetKey(ctx context.Context, key string) error {
	return l.rl.store.Del(ctx, key)
}
