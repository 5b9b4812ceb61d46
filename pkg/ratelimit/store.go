package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists rate limit state.
type Store interface {
	Load(ctx context.Context) (*RateLimitState, error)
	Save(ctx context.Context, state *RateLimitState) error
}

// MemoryStore keeps state for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	state RateLimitState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load(ctx context.Context) (*RateLimitState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	return &state, nil
}

// Save replaces the stored state.
func (m *MemoryStore) Save(ctx context.Context, state *RateLimitState) error {
	if state == nil {
		return fmt.Errorf("rate limit state cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *state
	return nil
}

// RedisStore shares state between processes through Redis.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis backed store. Keys expire after ttl without
// updates; ttl <= 0 uses DefaultStateTTL.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Load retrieves the current rate limit state from Redis.
// Missing keys yield a zero (healthy) state.
func (s *RedisStore) Load(ctx context.Context) (*RateLimitState, error) {
	count, err := s.redis.Get(ctx, RedisKeyRateLimitedCount).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get rate limited count: %w", err)
	}

	cooldownMillis, err := s.redis.Get(ctx, RedisKeyCooldownUntil).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get cooldown: %w", err)
	}

	lastUpdateStr, err := s.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	state := &RateLimitState{RateLimitedCount: count}
	if cooldownMillis > 0 {
		state.CooldownUntil = time.UnixMilli(cooldownMillis)
	}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return state, nil
}

// Save stores the state atomically.
func (s *RedisStore) Save(ctx context.Context, state *RateLimitState) error {
	if state == nil {
		return fmt.Errorf("rate limit state cannot be nil")
	}

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	var cooldownMillis int64
	if !state.CooldownUntil.IsZero() {
		cooldownMillis = state.CooldownUntil.UnixMilli()
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRateLimitedCount, state.RateLimitedCount, s.ttl)
	pipe.Set(ctx, RedisKeyCooldownUntil, cooldownMillis, s.ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	return nil
}
