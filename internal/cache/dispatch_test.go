package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the handful of commands DispatchState issues against
// an in-memory map. Eval mirrors the compare-and-delete semantics of the
// release script.
type fakeRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	data   map[string]string
	hashes map[string]map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data:   make(map[string]string),
		hashes: make(map[string]map[string]string),
	}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.data[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(keys) == 1 && len(args) == 1 && f.data[keys[0]] == fmt.Sprint(args[0]) {
		delete(f.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.hashes[key]
	if !ok {
		fields = make(map[string]string)
		f.hashes[key] = fields
	}
	for _, value := range values {
		if pairs, ok := value.(map[string]interface{}); ok {
			for k, v := range pairs {
				fields[k] = fmt.Sprint(v)
			}
		}
	}
	return redis.NewIntResult(int64(len(fields)), nil)
}

func (f *fakeRedis) lockValue() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, held := f.data[lockKey]
	return value, held
}

func TestAcquireLockIsExclusive(t *testing.T) {
	rdb := newFakeRedis()
	first := NewDispatchState(rdb, time.Second)
	second := NewDispatchState(rdb, time.Second)
	ctx := context.Background()

	acquired, err := first.AcquireLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = second.AcquireLock(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, first.ReleaseLock(ctx))

	acquired, err = second.AcquireLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestReleaseLockOnlyRemovesOwnToken(t *testing.T) {
	rdb := newFakeRedis()
	stale := NewDispatchState(rdb, time.Second)
	ctx := context.Background()

	acquired, err := stale.AcquireLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// The stale run's TTL expires and a fresh run claims the lock.
	rdb.mu.Lock()
	delete(rdb.data, lockKey)
	rdb.mu.Unlock()

	fresh := NewDispatchState(rdb, time.Second)
	acquired, err = fresh.AcquireLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, stale.ReleaseLock(ctx))

	_, held := rdb.lockValue()
	assert.True(t, held, "fresh run's lock must survive the stale release")

	require.NoError(t, fresh.ReleaseLock(ctx))
	_, held = rdb.lockValue()
	assert.False(t, held)
}

func TestReleaseLockWithoutHoldIsNoop(t *testing.T) {
	state := NewDispatchState(newFakeRedis(), time.Second)
	require.NoError(t, state.ReleaseLock(context.Background()))
}

func TestRecordSent(t *testing.T) {
	rdb := newFakeRedis()
	state := NewDispatchState(rdb, time.Second)
	id := uuid.New()
	sentAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, state.RecordSent(context.Background(), id, sentAt))

	fields := rdb.hashes["dispatched_message:"+id.String()]
	require.NotNil(t, fields)
	assert.Equal(t, id.String(), fields["message_id"])
	assert.Equal(t, sentAt.Format(time.RFC3339Nano), fields["sent_at"])
}
