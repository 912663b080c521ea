package redis

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

var (
	Client *redis.Client
	Ctx    = context.Background()
)

// InitRedis connects the shared client backing the per-professional
// booking locks. Callers fall back to in-process locking when no
// REDIS_ADDR is configured.
func InitRedis() error {
	Client = redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
		DB:   0,
	})

	if _, err := Client.Ping(Ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	fmt.Println("✅ Connected to Redis")
	return nil
}
