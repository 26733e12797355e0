package file

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/google/uuid"
)

const automationsDir = "automations"

// AutomationRepository handles automation file operations.
type AutomationRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getLocked(id)
}

func (r *AutomationRepository) getLocked(id string) (*models.Automation, error) {
	var automation models.Automation

	err := readEntity(r.root, automationsDir, id, &automation)
	if err != nil {
		if notExist(err) {
			return nil, persistence.NewAutomationError("GetByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, persistence.NewAutomationError("GetByID", id, err)
	}

	return &automation, nil
}

func (r *AutomationRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Automation, error) {
	return r.list(ctx, accountID, false)
}

func (r *AutomationRepository) ListPublishedByAccount(ctx context.Context, accountID string) ([]*models.Automation, error) {
	return r.list(ctx, accountID, true)
}

func (r *AutomationRepository) list(_ context.Context, accountID string, publishedOnly bool) ([]*models.Automation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := listEntityIDs(r.root, automationsDir)
	if err != nil {
		return nil, err
	}

	automations := make([]*models.Automation, 0, len(ids))

	for _, id := range ids {
		automation, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}

		if automation.AccountID != accountID {
			continue
		}

		if publishedOnly && !automation.Published {
			continue
		}

		automations = append(automations, automation)
	}

	sort.Slice(automations, func(i, j int) bool {
		return automations[i].CreatedAt.Before(automations[j].CreatedAt)
	})

	return automations, nil
}

func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	if automation.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate automation ID: %w", err)
		}

		automation.ID = id.String()
	}

	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	return writeEntity(r.root, automationsDir, automation.ID, automation)
}

func (r *AutomationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(entityPath(r.root, automationsDir, id))
	if err != nil {
		if notExist(err) {
			return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
		}

		return persistence.NewAutomationError("Delete", id, err)
	}

	return nil
}

func (r *AutomationRepository) SetRemainingPath(_ context.Context, id string, path []models.StepKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	automation, err := r.getLocked(id)
	if err != nil {
		return err
	}

	automation.RemainingPath = path
	automation.UpdatedAt = time.Now().UTC()

	return writeEntity(r.root, automationsDir, id, automation)
}

func (r *AutomationRepository) SetPublished(_ context.Context, id string, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	automation, err := r.getLocked(id)
	if err != nil {
		return err
	}

	automation.Published = published
	automation.UpdatedAt = time.Now().UTC()

	return writeEntity(r.root, automationsDir, id, automation)
}
