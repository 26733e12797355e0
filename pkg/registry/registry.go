// Package registry maps step kinds to the integration adapters that execute
// them.
package registry

import (
	"context"
	"log/slog"

	"github.com/aferraz/driveline/pkg/models"
)

// Adapter executes one step kind against an external integration.
type Adapter interface {
	// Kind returns the step kind this adapter handles.
	Kind() models.StepKind
	// Configured reports whether the automation carries a complete config for
	// this adapter. Unconfigured steps are skipped, not attempted.
	Configured(automation *models.Automation) bool
	// Execute performs the integration call for one step.
	Execute(ctx context.Context, automation *models.Automation, event map[string]any) error
}

// Registry holds the registered adapters, keyed by step kind.
type Registry struct {
	logger   *slog.Logger
	adapters map[models.StepKind]Adapter
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		adapters: make(map[models.StepKind]Adapter),
	}
}

func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Kind()] = adapter
	r.logger.Info("Registered adapter", "kind", adapter.Kind())
}

// Adapter returns the adapter for kind, or false when none is registered.
// Wait steps have no adapter: suspension is handled by the engine itself.
func (r *Registry) Adapter(kind models.StepKind) (Adapter, bool) {
	adapter, ok := r.adapters[kind]

	return adapter, ok
}

// Kinds returns the registered step kinds.
func (r *Registry) Kinds() []models.StepKind {
	kinds := make([]models.StepKind, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}

	return kinds
}
