// Package memory provides an in-memory implementation of store.Store.
//
// This is useful for tests and single-process deployments that don't need
// distributed state. Pipelines execute under a single lock hold, giving
// the same atomicity the Redis backend gets from MULTI/EXEC.
//
//	s := memory.New()
//	defer s.Close()
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redilimit/redilimit/store"
)

// Store implements store.Store with in-memory sorted sets.
// All operations are thread-safe.
type Store struct {
	mu      sync.Mutex
	sets    map[string]*zset
	closeCh chan struct{}
	closed  bool
}

type zset struct {
	entries  []zentry // ascending by score
	expireAt time.Time
}

type zentry struct {
	score  float64
	member string
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory Store.
func New() *Store {
	s := &Store{
		sets:    make(map[string]*zset),
		closeCh: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.closeCh:
			return
		}
	}
}

func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, z := range s.sets {
		if !z.expireAt.IsZero() && now.After(z.expireAt) {
			delete(s.sets, k)
		}
	}
}

// set returns the live sorted set for key, dropping it first if expired.
// Callers must hold s.mu.
func (s *Store) set(key string) *zset {
	z, ok := s.sets[key]
	if !ok {
		return nil
	}
	if !z.expireAt.IsZero() && time.Now().After(z.expireAt) {
		delete(s.sets, key)
		return nil
	}
	return z
}

func (s *Store) ZAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zadd(key, score, member)
	return nil
}

// zadd inserts or rescores a member. Callers must hold s.mu.
// Returns 1 when a new member was added, 0 on rescore.
func (s *Store) zadd(key string, score float64, member string) int64 {
	z := s.set(key)
	if z == nil {
		z = &zset{}
		s.sets[key] = z
	}

	added := int64(1)
	for i, e := range z.entries {
		if e.member == member {
			z.entries = append(z.entries[:i], z.entries[i+1:]...)
			added = 0
			break
		}
	}
	z.entries = append(z.entries, zentry{score: score, member: member})
	sort.Slice(z.entries, func(i, j int) bool {
		return z.entries[i].score < z.entries[j].score
	})
	return added
}

func (s *Store) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zcard(key), nil
}

func (s *Store) zcard(key string) int64 {
	z := s.set(key)
	if z == nil {
		return 0
	}
	return int64(len(z.entries))
}

func (s *Store) ZRemRangeByScore(_ context.Context, key, min, max string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zremRangeByScore(key, min, max)
	return nil
}

// zremRangeByScore removes members with scores in [min, max], returning
// the removed count. Callers must hold s.mu.
func (s *Store) zremRangeByScore(key, min, max string) int64 {
	z := s.set(key)
	if z == nil {
		return 0
	}

	minF := parseScore(min, 0)
	maxF := parseScore(max, 0)

	var removed int64
	kept := z.entries[:0]
	for _, e := range z.entries {
		if e.score >= minF && e.score <= maxF {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	z.entries = kept
	return removed
}

func parseScore(raw string, fallback float64) float64 {
	switch raw {
	case "-inf":
		return -1 << 62
	case "+inf":
		return 1 << 62
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key, ttl)
	return nil
}

// expire sets the TTL, returning 1 if the key exists. Callers must hold s.mu.
func (s *Store) expire(key string, ttl time.Duration) int64 {
	z := s.set(key)
	if z == nil {
		return 0
	}
	z.expireAt = time.Now().Add(ttl)
	return 1
}

func (s *Store) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := s.set(key)
	if z == nil {
		return -2 * time.Second, nil
	}
	if z.expireAt.IsZero() {
		return -1 * time.Second, nil
	}
	return time.Until(z.expireAt), nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.sets, k)
	}
	return nil
}

func (s *Store) Pipeline() store.Pipeline {
	return &pipeline{store: s}
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closeCh)
	}
	return nil
}

// ─── Pipeline ────────────────────────────────────────────────────────────────

// pipeline queues commands and executes them under a single lock hold,
// so no other caller can interleave between them.
type pipeline struct {
	store *Store
	ops   []func() int64
}

func (p *pipeline) ZRemRangeByScore(_ context.Context, key, min, max string) {
	p.ops = append(p.ops, func() int64 { return p.store.zremRangeByScore(key, min, max) })
}

func (p *pipeline) ZAdd(_ context.Context, key string, score float64, member string) {
	p.ops = append(p.ops, func() int64 { return p.store.zadd(key, score, member) })
}

func (p *pipeline) ZCard(_ context.Context, key string) {
	p.ops = append(p.ops, func() int64 { return p.store.zcard(key) })
}

func (p *pipeline) Expire(_ context.Context, key string, ttl time.Duration) {
	p.ops = append(p.ops, func() int64 { return p.store.expire(key, ttl) })
}

func (p *pipeline) Exec(_ context.Context) ([]int64, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	replies := make([]int64, 0, len(p.ops))
	for _, op := range p.ops {
		replies = append(replies, op())
	}
	p.ops = nil
	return replies, nil
}
