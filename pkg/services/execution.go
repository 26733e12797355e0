package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 100
	defaultRecentDays = 7
)

// Execution is the read-only query surface over execution records.
type Execution struct {
	persistence persistence.Persistence
}

func NewExecution(p persistence.Persistence) *Execution {
	return &Execution{persistence: p}
}

// ListExecutionsRequest filters and paginates the execution history.
type ListExecutionsRequest struct {
	AccountID    string
	AutomationID string
	Status       string
	Limit        int
	Offset       int
}

// ListExecutionsResponse carries one page of records plus the total count
// matching the filters.
type ListExecutionsResponse struct {
	Executions []*models.ExecutionRecord `json:"executions"`
	TotalCount int64                     `json:"total_count"`
	Limit      int                       `json:"limit"`
	Offset     int                       `json:"offset"`
}

func (s *Execution) List(ctx context.Context, req ListExecutionsRequest) (*ListExecutionsResponse, error) {
	if req.AccountID == "" {
		return nil, ErrEmptyAccountID
	}

	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}

	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	opts := persistence.ListExecutionsOptions{
		AccountID:    req.AccountID,
		AutomationID: req.AutomationID,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}

	if req.Status != "" {
		status := models.ExecutionStatus(req.Status)

		switch status {
		case models.ExecutionStatusSuccess, models.ExecutionStatusPartial, models.ExecutionStatusFailed:
			opts.Status = &status
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
		}
	}

	records, total, err := s.persistence.ExecutionRepository().List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return &ListExecutionsResponse{
		Executions: records,
		TotalCount: total,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}, nil
}

// Stats aggregates record counts by status for one account.
func (s *Execution) Stats(ctx context.Context, accountID string) (*models.ExecutionStats, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	counts, err := s.persistence.ExecutionRepository().CountByStatus(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	stats := &models.ExecutionStats{
		Successful: counts[models.ExecutionStatusSuccess],
		Failed:     counts[models.ExecutionStatusFailed],
		Partial:    counts[models.ExecutionStatusPartial],
	}
	stats.Total = stats.Successful + stats.Failed + stats.Partial

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total) * 100
	}

	return stats, nil
}

// Recent returns records started within the last days days, newest first.
func (s *Execution) Recent(ctx context.Context, accountID string, days int) ([]*models.ExecutionRecord, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	if days <= 0 {
		days = defaultRecentDays
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	records, err := s.persistence.ExecutionRepository().ListRecent(ctx, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent executions: %w", err)
	}

	return records, nil
}
