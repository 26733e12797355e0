// Package persistence provides the data storage abstraction for accounts,
// automations and execution records.
package persistence

import (
	"context"
	"time"

	"github.com/aferraz/driveline/pkg/models"
)

// Persistence is the root storage handle, one implementation per backend.
type Persistence interface {
	AutomationRepository() AutomationRepository
	ExecutionRepository() ExecutionRepository
	AccountRepository() AccountRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// AutomationRepository stores automation definitions and the engine-owned
// suspension state.
type AutomationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Automation, error)
	// ListPublishedByAccount returns only automations the engine may execute.
	ListPublishedByAccount(ctx context.Context, accountID string) ([]*models.Automation, error)
	Save(ctx context.Context, automation *models.Automation) error
	Delete(ctx context.Context, id string) error

	// SetRemainingPath persists the suspended tail of a step list. A nil path
	// clears the suspension state; an empty non-nil path is a valid pending
	// no-op resume.
	SetRemainingPath(ctx context.Context, id string, path []models.StepKind) error
	SetPublished(ctx context.Context, id string, published bool) error
}

// ListExecutionsOptions filters and paginates the execution query surface.
type ListExecutionsOptions struct {
	AccountID    string
	AutomationID string
	Status       *models.ExecutionStatus
	Limit        int
	Offset       int
}

// ExecutionRepository is append-only: records are never updated or deleted.
type ExecutionRepository interface {
	Append(ctx context.Context, record *models.ExecutionRecord) error
	// List returns records ordered by start time descending, plus the total
	// count matching the filters.
	List(ctx context.Context, opts ListExecutionsOptions) ([]*models.ExecutionRecord, int64, error)
	CountByStatus(ctx context.Context, accountID string) (map[models.ExecutionStatus]int64, error)
	// ListRecent returns records for an account started at or after since,
	// newest first.
	ListRecent(ctx context.Context, accountID string, since time.Time) ([]*models.ExecutionRecord, error)
}

// AccountRepository stores accounts and owns the credit ledger mutation.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// GetByResourceID looks an account up by its storage-provider watch
	// channel id, the identifier change notifications carry.
	GetByResourceID(ctx context.Context, resourceID string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error

	// ConsumeCredit debits one credit via a single conditional update, never
	// read-then-write: the balance can never go negative under concurrent
	// runs. Unlimited accounts are left untouched. Returns the post-debit
	// balance, or ErrInsufficientCredits when the balance is already
	// exhausted.
	ConsumeCredit(ctx context.Context, accountID string) (models.Credits, error)
}
