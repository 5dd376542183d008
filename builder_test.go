package redilimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redilimit/redilimit/store/memory"
)

func TestBuilder_Build(t *testing.T) {
	s := memory.New()
	defer s.Close()

	limiter, err := NewBuilder().
		Store(s).
		Strategy(StrategyIP).
		KeyPrefix("myapp").
		MaxRequests(2).
		Window(30*time.Second, 0).
		Build()
	require.NoError(t, err)

	assert.Equal(t, Options{MaxRequests: 2, WindowSeconds: 30}, limiter.Options())

	r, err := limiter.Check(context.Background(), newRequest("1.2.3.4:80", nil))
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(2), r.Limit)
}

func TestBuilder_Defaults(t *testing.T) {
	s := memory.New()
	defer s.Close()

	limiter, err := NewBuilder().Store(s).Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRequests, limiter.Options().MaxRequests)
	assert.Equal(t, DefaultWindowSeconds, limiter.Options().WindowSeconds)
}

func TestBuilder_MissingStore(t *testing.T) {
	_, err := NewBuilder().MaxRequests(10).Window(time.Minute, 0).Build()
	require.ErrorIs(t, err, ErrNilStore)
}

func TestBuilder_CustomWithoutGenerator(t *testing.T) {
	s := memory.New()
	defer s.Close()

	_, err := NewBuilder().Store(s).Strategy(StrategyCustom).Build()
	require.ErrorIs(t, err, ErrMissingKeyGenerator)
}

func TestBuilder_InvalidWindow(t *testing.T) {
	s := memory.New()
	defer s.Close()

	_, err := NewBuilder().Store(s).MaxRequests(-1).Build()
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestBuilder_RateLimiterReuse(t *testing.T) {
	s := memory.New()
	defer s.Close()

	rl, err := NewBuilder().Store(s).Strategy(StrategyIP).BuildRateLimiter()
	require.NoError(t, err)

	strict, err := rl.Limiter(Options{MaxRequests: 1, WindowSeconds: 60})
	require.NoError(t, err)
	relaxed, err := rl.Limiter(Options{MaxRequests: 1000, WindowSeconds: 60})
	require.NoError(t, err)

	assert.NotEqual(t, strict.Options().MaxRequests, relaxed.Options().MaxRequests)
}
