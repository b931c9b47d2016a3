package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	leaseTTL      = 30 * time.Second
	retryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lease only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisManager implements Manager with a Redis lease per key, so advancement
// stays serialized across multiple engine instances. The lease carries a TTL in
// case a holder dies without releasing.
type RedisManager struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisManager creates a new Redis-backed lock manager.
func NewRedisManager(client *redis.Client, logger *slog.Logger) *RedisManager {
	return &RedisManager{
		client: client,
		logger: logger.With("module", "lock"),
	}
}

// Acquire polls SET NX until the lease is granted or ctx is done.
func (m *RedisManager) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	leaseKey := "agentor:lease:" + key

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := m.client.SetNX(ctx, leaseKey, token, leaseTTL).Result()
		if err != nil {
			return nil, err
		}

		if acquired {
			release := func() {
				_, err := releaseScript.Run(context.WithoutCancel(ctx), m.client, []string{leaseKey}, token).Result()
				if err != nil {
					m.logger.Error("Failed to release lease", "key", key, "error", err)
				}
			}

			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
