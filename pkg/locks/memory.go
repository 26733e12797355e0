package locks

import (
	"context"
	"sync"
)

// MemoryGuard implements RunGuard for single-process deployments and tests.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, automationID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[automationID]; ok {
		return false, nil
	}

	g.held[automationID] = struct{}{}

	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, automationID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.held, automationID)

	return nil
}
