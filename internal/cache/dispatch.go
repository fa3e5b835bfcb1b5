package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKey = "dispatch:leader"

// releaseLockScript deletes the leader lock only when it still carries the
// releasing run's token. A run whose lock expired must not delete the lock a
// later run acquired in the meantime.
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// DispatchState keeps dispatch coordination data in Redis: a leader lock so
// overlapping batch runs cannot double-send the same messages, and metadata
// about issued sends.
type DispatchState struct {
	redis   redis.Cmdable
	lockTTL time.Duration

	mu    sync.Mutex
	token string
}

// NewDispatchState builds a DispatchState.
func NewDispatchState(client redis.Cmdable, lockTTL time.Duration) *DispatchState {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &DispatchState{redis: client, lockTTL: lockTTL}
}

// AcquireLock claims the dispatch leader lock. Returns false when another run
// already holds it. The TTL bounds how long a crashed run can block others.
func (d *DispatchState) AcquireLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	acquired, err := d.redis.SetNX(ctx, lockKey, token, d.lockTTL).Result()
	if err != nil || !acquired {
		return acquired, err
	}

	d.mu.Lock()
	d.token = token
	d.mu.Unlock()
	return true, nil
}

// ReleaseLock frees the dispatch leader lock, but only if this instance still
// owns it. A no-op when no lock was acquired or the token no longer matches.
func (d *DispatchState) ReleaseLock(ctx context.Context) error {
	d.mu.Lock()
	token := d.token
	d.token = ""
	d.mu.Unlock()

	if token == "" {
		return nil
	}
	return d.redis.Eval(ctx, releaseLockScript, []string{lockKey}, token).Err()
}

// RecordSent stores metadata about an issued send.
func (d *DispatchState) RecordSent(ctx context.Context, messageID uuid.UUID, sentAt time.Time) error {
	key := fmt.Sprintf("dispatched_message:%s", messageID)
	values := map[string]interface{}{
		"message_id": messageID.String(),
		"sent_at":    sentAt.Format(time.RFC3339Nano),
	}
	return d.redis.HSet(ctx, key, values).Err()
}
