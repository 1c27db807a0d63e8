package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore claims submission keys so a retried request cannot commit twice.
type IdempotencyStore interface {
	// TryLock claims key within scope. It returns false when the key is already claimed.
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Complete records the order committed under a claimed key.
	Complete(ctx context.Context, scope, key, orderID string) error
	// Lookup returns the order committed under key, or "" while the claim is pending or absent.
	Lookup(ctx context.Context, scope, key string) (string, error)
	// Release frees a key whose submission did not commit.
	Release(ctx context.Context, scope, key string) error
}

const pendingClaim = "pending"

func idempotencyKey(scope, key string) string {
	return "idemp:" + scope + ":" + key
}

// RedisIdempotencyStore keeps claims in Redis so they hold across instances
type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisIdempotencyStore creates a store whose claims expire after ttl
func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

// TryLock claims the key with SETNX
func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, idempotencyKey(scope, key), pendingClaim, s.ttl).Result()
}

// Complete stores the order id under an existing claim, keeping its expiry
func (s *RedisIdempotencyStore) Complete(ctx context.Context, scope, key, orderID string) error {
	err := s.rdb.SetArgs(ctx, idempotencyKey(scope, key), orderID, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		// the claim expired meanwhile
		return nil
	}
	return err
}

// Lookup returns the order id stored under the key
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, scope, key string) (string, error) {
	v, err := s.rdb.Get(ctx, idempotencyKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) || v == pendingClaim {
		return "", nil
	}
	return v, err
}

// Release deletes the claim
func (s *RedisIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, idempotencyKey(scope, key)).Err()
}

const sweepInterval = time.Minute

type claim struct {
	expires time.Time
	orderID string
}

// MemoryIdempotencyStore is the single-process fallback when no Redis is configured
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	keys      map[string]claim
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryIdempotencyStore creates a store whose claims expire after ttl. A ttl of zero
// keeps claims until released.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{ttl: ttl, keys: make(map[string]claim), now: time.Now}
}

func (s *MemoryIdempotencyStore) live(k string, now time.Time) (claim, bool) {
	c, ok := s.keys[k]
	if !ok || (s.ttl > 0 && !now.Before(c.expires)) {
		return claim{}, false
	}
	return c, true
}

// TryLock claims the key unless a live claim holds it
func (s *MemoryIdempotencyStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	k := idempotencyKey(scope, key)
	if _, ok := s.live(k, now); ok {
		return false, nil
	}
	s.keys[k] = claim{expires: now.Add(s.ttl)}
	s.sweep(now)
	return true, nil
}

// sweep drops expired claims, at most once per sweepInterval.
func (s *MemoryIdempotencyStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for k, c := range s.keys {
		if !now.Before(c.expires) {
			delete(s.keys, k)
		}
	}
}

// Complete stores the order id under a live claim
func (s *MemoryIdempotencyStore) Complete(_ context.Context, scope, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idempotencyKey(scope, key)
	if c, ok := s.live(k, s.now()); ok {
		c.orderID = orderID
		s.keys[k] = c
	}
	return nil
}

// Lookup returns the order id of a live claim
func (s *MemoryIdempotencyStore) Lookup(_ context.Context, scope, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.live(idempotencyKey(scope, key), s.now())
	return c.orderID, nil
}

// Release drops the claim
func (s *MemoryIdempotencyStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, idempotencyKey(scope, key))
	return nil
}

var (
	_ IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ IdempotencyStore = (*MemoryIdempotencyStore)(nil)
)
