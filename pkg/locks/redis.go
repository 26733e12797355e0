package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard implements RunGuard on a shared Redis instance so deduplication
// holds across service replicas.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(redisURL string) (*RedisGuard, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &RedisGuard{
		client: redis.NewClient(opts),
		ttl:    DefaultTTL,
	}, nil
}

func (g *RedisGuard) key(automationID string) string {
	return "driveline:run:" + automationID
}

func (g *RedisGuard) Acquire(ctx context.Context, automationID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(automationID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run guard: %w", err)
	}

	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, automationID string) error {
	err := g.client.Del(ctx, g.key(automationID)).Err()
	if err != nil {
		return fmt.Errorf("failed to release run guard: %w", err)
	}

	return nil
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}
