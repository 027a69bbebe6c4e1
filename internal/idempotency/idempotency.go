// Package idempotency remembers the response to a request carrying an
// Idempotency-Key so a client retry gets the same answer instead of a second
// reservation.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotel-pms-backend/internal/logger"

	"github.com/go-redis/redis/v8"
)

var ErrInProgress = errors.New("a request with this idempotency key is still in progress")

const pending = "pending"

// Record is a completed response.
type Record struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

type Store interface {
	// Begin claims key. It returns the stored record when an earlier request
	// already completed, ErrInProgress while one is running, and nil, nil
	// when the caller now owns the key.
	Begin(ctx context.Context, key string) (*Record, error)
	Complete(ctx context.Context, key string, rec Record) error
	// Abort releases a claimed key so the request can be retried.
	Abort(ctx context.Context, key string) error
}

// redisClient is the part of *redis.Client the store needs.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	client  redisClient
	prefix  string
	lockTTL time.Duration
	ttl     time.Duration
}

// NewRedisClient connects the way the rest of the services do: address,
// password and database number.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisStore(client redisClient, prefix string, lockTTL, ttl time.Duration) Store {
	return &redisStore{client: client, prefix: prefix, lockTTL: lockTTL, ttl: ttl}
}

func (s *redisStore) key(k string) string { return s.prefix + k }

func (s *redisStore) Begin(ctx context.Context, key string) (*Record, error) {
	claimed, err := s.client.SetNX(ctx, s.key(key), pending, s.lockTTL).Result()
	if err != nil {
		logger.ExternalServiceResult("redis", "SETNX", err, "key", key)
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; the caller may simply retry.
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if val == pending {
		return nil, ErrInProgress
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("corrupt idempotency record: %w", err)
	}
	return &rec, nil
}

func (s *redisStore) Complete(ctx context.Context, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}

func (s *redisStore) Abort(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore keeps records for the life of the process.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]*Record)}
}

func (s *memoryStore) Begin(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		s.records[key] = nil
		return nil, nil
	}
	if rec == nil {
		return nil, ErrInProgress
	}
	return rec, nil
}

func (s *memoryStore) Complete(ctx context.Context, key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = &rec
	return nil
}

func (s *memoryStore) Abort(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
