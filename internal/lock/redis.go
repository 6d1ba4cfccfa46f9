package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix     = "autopilot:lock:"
	retryInterval = 50 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process pointing at the same Redis.
// Each key expires after ttl so a crashed holder cannot block bookings
// forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Lock acquires every key or none; keys already taken by this call are
// released before the error is returned.
func (r *Redis) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	token := uuid.NewString()
	var held []string

	release := func() {
		// Release must not depend on the caller's possibly cancelled context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(releaseCtx, r.client, []string{held[i]}, token).Err(); err != nil {
				r.logger.Warn("Failed to release lock", zap.String("key", held[i]), zap.Error(err))
			}
		}
	}

	for _, key := range normalize(keys) {
		full := keyPrefix + key
		if err := r.acquire(ctx, full, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, full)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		}
	}
}
