package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the few commands the store uses over a map.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func str(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = str(value)
	f.ttls[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = str(value)
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	rec, err := s.Begin(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.Begin(ctx, "abc")
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, s.Complete(ctx, "abc", Record{StatusCode: 201, Body: []byte(`{"id":7}`)}))
	rec, err = s.Begin(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 201, rec.StatusCode)
	assert.JSONEq(t, `{"id":7}`, string(rec.Body))

	rec, err = s.Begin(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, s.Abort(ctx, "other"))
	rec, err = s.Begin(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisStore(t *testing.T) {
	fake := newFakeRedis()
	exerciseStore(t, NewRedisStore(fake, "idem:", 30*time.Second, 24*time.Hour))
	assert.Equal(t, 24*time.Hour, fake.ttls["idem:abc"])
	assert.Equal(t, 30*time.Second, fake.ttls["idem:other"])
}

func TestRedisStore_ClientError(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	_, err := NewRedisStore(fake, "idem:", time.Second, time.Hour).Begin(context.Background(), "k")
	assert.ErrorContains(t, err, "connection refused")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}
