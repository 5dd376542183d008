// Package redis provides a Redis-backed implementation of store.Store.
//
// It wraps redis.UniversalClient, which supports Redis standalone,
// Redis Cluster, and Redis Sentinel out of the box.
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//
// Pipelines execute as MULTI/EXEC transactions, so the window-slide
// sequence is atomic with respect to every other client of the same key.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/redilimit/redilimit/store"
)

// Store implements store.Store backed by Redis.
type Store struct {
	client goredis.UniversalClient
}

var _ store.Store = (*Store)(nil)

// New creates a Redis-backed Store from any UniversalClient
// (standalone *redis.Client, *redis.ClusterClient, or *redis.Ring).
func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.UniversalClient {
	return s.client
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, goredis.Z{Score: score, Member: member}).Err()
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

func (s *Store) ZRemRangeByScore(ctx context.Context, key, min, max string) error {
	return s.client.ZRemRangeByScore(ctx, key, min, max).Err()
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) Pipeline() store.Pipeline {
	return &txPipeline{pipe: s.client.TxPipeline()}
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─── Pipeline ────────────────────────────────────────────────────────────────

// txPipeline queues commands on a Redis MULTI/EXEC transaction.
type txPipeline struct {
	pipe goredis.Pipeliner
}

func (p *txPipeline) ZRemRangeByScore(ctx context.Context, key, min, max string) {
	p.pipe.ZRemRangeByScore(ctx, key, min, max)
}

func (p *txPipeline) ZAdd(ctx context.Context, key string, score float64, member string) {
	p.pipe.ZAdd(ctx, key, goredis.Z{Score: score, Member: member})
}

func (p *txPipeline) ZCard(ctx context.Context, key string) {
	p.pipe.ZCard(ctx, key)
}

func (p *txPipeline) Expire(ctx context.Context, key string, ttl time.Duration) {
	p.pipe.Expire(ctx, key, ttl)
}

func (p *txPipeline) Exec(ctx context.Context) ([]int64, error) {
	cmds, err := p.pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}
	replies := make([]int64, 0, len(cmds))
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case *goredis.IntCmd:
			replies = append(replies, c.Val())
		case *goredis.BoolCmd:
			if c.Val() {
				replies = append(replies, 1)
			} else {
				replies = append(replies, 0)
			}
		default:
			replies = append(replies, 0)
		}
	}
	return replies, nil
}
