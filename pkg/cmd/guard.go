package cmd

import (
	"fmt"

	"github.com/aferraz/driveline/pkg/locks"
)

// NewRunGuard returns a Redis-backed guard when a URL is configured, so
// duplicate resume callbacks are serialized across replicas. Without Redis
// the in-process guard is enough for a single instance.
func NewRunGuard(redisURL string) locks.RunGuard {
	if redisURL == "" {
		return locks.NewMemoryGuard()
	}

	guard, err := locks.NewRedisGuard(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return guard
}
