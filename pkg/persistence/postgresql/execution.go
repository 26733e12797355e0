package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/google/uuid"
)

// ExecutionRepository stores immutable execution records. There is no update
// path on purpose.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionColumns = `
	id
  , automation_id
  , account_id
  , status
  , trigger_kind
  , results
  , error
  , started_at
  , completed_at
  , duration_ms
`

func (r *ExecutionRepository) Append(ctx context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		record.ID = id.String()
	}

	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal step results: %w", err)
	}

	query := `
		INSERT INTO executions (id, automation_id, account_id, status, trigger_kind,
			results, error, started_at, completed_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.AutomationID,
		record.AccountID,
		record.Status,
		record.TriggerKind,
		resultsJSON,
		record.Error,
		record.StartedAt,
		record.CompletedAt,
		record.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to append execution record: %w", err)
	}

	return nil
}

func (r *ExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.ExecutionRecord, int64, error) {
	where := `WHERE account_id = $1`
	args := []any{opts.AccountID}

	if opts.AutomationID != "" {
		args = append(args, opts.AutomationID)
		where += fmt.Sprintf(" AND automation_id = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, *opts.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count execution records: %w", err)
	}

	query := `SELECT ` + executionColumns + ` FROM executions ` + where + ` ORDER BY started_at DESC`

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	records, err := r.queryExecutions(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *ExecutionRepository) CountByStatus(ctx context.Context, accountID string) (map[models.ExecutionStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM executions WHERE account_id = $1 GROUP BY status`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions by status: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	counts := make(map[models.ExecutionStatus]int64)

	for rows.Next() {
		var (
			status models.ExecutionStatus
			count  int64
		)

		err = rows.Scan(&status, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}

		counts[status] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

func (r *ExecutionRepository) ListRecent(ctx context.Context, accountID string, since time.Time) ([]*models.ExecutionRecord, error) {
	query := `SELECT ` + executionColumns + `
		FROM executions
		WHERE account_id = $1 AND started_at >= $2
		ORDER BY started_at DESC`

	return r.queryExecutions(ctx, query, accountID, since)
}

func (r *ExecutionRepository) queryExecutions(ctx context.Context, query string, args ...any) ([]*models.ExecutionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		var (
			record      models.ExecutionRecord
			resultsJSON []byte
		)

		err = rows.Scan(
			&record.ID,
			&record.AutomationID,
			&record.AccountID,
			&record.Status,
			&record.TriggerKind,
			&resultsJSON,
			&record.Error,
			&record.StartedAt,
			&record.CompletedAt,
			&record.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		if resultsJSON != nil {
			err = json.Unmarshal(resultsJSON, &record.Results)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal step results: %w", err)
			}
		}

		records = append(records, &record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution records: %w", err)
	}

	return records, nil
}
