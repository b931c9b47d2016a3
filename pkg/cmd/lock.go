package cmd

import (
	"log/slog"

	"github.com/agentorhq/agentor/pkg/lock"
	"github.com/redis/go-redis/v9"
)

// NewLockManager creates a lock manager. A non-empty redisURL selects the
// Redis-backed lease manager for multi-instance deployments; otherwise locking
// stays in-process.
func NewLockManager(redisURL string, logger *slog.Logger) lock.Manager {
	if redisURL == "" {
		return lock.NewMemoryManager()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic("Invalid Redis URL: " + err.Error())
	}

	return lock.NewRedisManager(redis.NewClient(opts), logger)
}
