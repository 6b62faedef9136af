package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("trainer lock not acquired")
)

// Locker serializes schedule mutations per trainer. Create and reschedule
// are check-then-write sequences; without this lock two concurrent
// requests for overlapping times could both pass the conflict check.
type Locker interface {
	WithTrainerLock(ctx context.Context, trainerID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisTrainerLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTrainerLocker creates a locker that uses a per trainer Redis key
func NewRedisTrainerLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisTrainerLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisTrainerLocker) WithTrainerLock(ctx context.Context, trainerID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:trainer:%s", trainerID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire trainer lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisTrainerLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release trainer lock: %w", err)
	}
	return nil
}
