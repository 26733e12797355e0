package file

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/google/uuid"
)

const executionsDir = "executions"

// ExecutionRepository handles execution record file operations. Records are
// append-only.
type ExecutionRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *ExecutionRepository) Append(_ context.Context, record *models.ExecutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		record.ID = id.String()
	}

	return writeEntity(r.root, executionsDir, record.ID, record)
}

func (r *ExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.ExecutionRecord, int64, error) {
	all, err := r.loadAll(ctx, opts.AccountID)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]*models.ExecutionRecord, 0, len(all))

	for _, record := range all {
		if opts.AutomationID != "" && record.AutomationID != opts.AutomationID {
			continue
		}

		if opts.Status != nil && record.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, record)
	}

	totalCount := int64(len(filtered))

	start := opts.Offset
	if start >= len(filtered) {
		return make([]*models.ExecutionRecord, 0), totalCount, nil
	}

	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return filtered[start:end], totalCount, nil
}

func (r *ExecutionRepository) CountByStatus(ctx context.Context, accountID string) (map[models.ExecutionStatus]int64, error) {
	all, err := r.loadAll(ctx, accountID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ExecutionStatus]int64)
	for _, record := range all {
		counts[record.Status]++
	}

	return counts, nil
}

func (r *ExecutionRepository) ListRecent(ctx context.Context, accountID string, since time.Time) ([]*models.ExecutionRecord, error) {
	all, err := r.loadAll(ctx, accountID)
	if err != nil {
		return nil, err
	}

	recent := make([]*models.ExecutionRecord, 0, len(all))

	for _, record := range all {
		if record.StartedAt.Before(since) {
			continue
		}

		recent = append(recent, record)
	}

	return recent, nil
}

// loadAll returns every record for the account, newest first.
func (r *ExecutionRepository) loadAll(_ context.Context, accountID string) ([]*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := listEntityIDs(r.root, executionsDir)
	if err != nil {
		return nil, err
	}

	records := make([]*models.ExecutionRecord, 0, len(ids))

	for _, id := range ids {
		var record models.ExecutionRecord

		err := readEntity(r.root, executionsDir, id, &record)
		if err != nil {
			return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
		}

		if accountID != "" && record.AccountID != accountID {
			continue
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	return records, nil
}
