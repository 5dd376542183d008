// Package store defines the backend contract for rate limit state.
//
// A window record is a sorted set of request timestamps per identity key.
// The primary implementation is RedisStore (in store/redis), which works
// against standalone Redis, Redis Cluster, and Redis Sentinel via
// redis.UniversalClient. A MemoryStore (in store/memory) serves tests and
// single-process deployments.
package store

import (
	"context"
	"time"
)

// Store abstracts the shared backend holding window records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Pipeline returns a Pipeline whose queued commands execute as one
	// indivisible unit. This is the only way window records are mutated.
	Pipeline() Pipeline

	// ZAdd adds a member with score to the sorted set at key.
	// An existing member is rescored, not duplicated.
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZCard returns the number of members in the sorted set at key.
	ZCard(ctx context.Context, key string) (int64, error)

	// ZRemRangeByScore removes members with scores in [min, max].
	ZRemRangeByScore(ctx context.Context, key, min, max string) error

	// Expire sets a TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL returns the remaining TTL for a key.
	// Returns -1s if the key has no TTL, -2s if the key doesn't exist.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) error

	// Close releases any resources held by the store.
	Close() error
}

// Pipeline batches sorted-set commands into a single atomic round-trip.
// Exec returns one int64 reply per queued command, in queue order:
// removed count for ZRemRangeByScore, added count for ZAdd, cardinality
// for ZCard, and 0/1 for Expire. No other transaction may interleave
// between the queued commands.
type Pipeline interface {
	ZRemRangeByScore(ctx context.Context, key, min, max string)
	ZAdd(ctx context.Context, key string, score float64, member string)
	ZCard(ctx context.Context, key string)
	Expire(ctx context.Context, key string, ttl time.Duration)
	Exec(ctx context.Context) ([]int64, error)
}
