package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/google/uuid"
)

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const automationColumns = `
	id
  , account_id
  , name
  , description
  , nodes
  , edges
  , discord_config
  , slack_config
  , notion_config
  , published
  , remaining_path
  , created_at
  , updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE id = $1`

	automation, err := scanAutomation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewAutomationError("GetByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, persistence.NewAutomationError("GetByID", id, err)
	}

	return automation, nil
}

func (r *AutomationRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE account_id = $1 ORDER BY created_at`

	return r.queryAutomations(ctx, query, accountID)
}

func (r *AutomationRepository) ListPublishedByAccount(ctx context.Context, accountID string) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE account_id = $1 AND published ORDER BY created_at`

	return r.queryAutomations(ctx, query, accountID)
}

func (r *AutomationRepository) queryAutomations(ctx context.Context, query string, args ...any) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	return automations, nil
}

func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	now := time.Now().UTC()

	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	if automation.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate automation ID: %w", err)
		}

		automation.ID = id.String()
	}

	nodesJSON, err := json.Marshal(automation.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(automation.Edges)
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	discordJSON, err := marshalNullable(automation.Discord)
	if err != nil {
		return fmt.Errorf("failed to marshal discord config: %w", err)
	}

	slackJSON, err := marshalNullable(automation.Slack)
	if err != nil {
		return fmt.Errorf("failed to marshal slack config: %w", err)
	}

	notionJSON, err := marshalNullable(automation.Notion)
	if err != nil {
		return fmt.Errorf("failed to marshal notion config: %w", err)
	}

	remainingJSON, err := marshalRemainingPath(automation.RemainingPath)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automations (id, account_id, name, description, nodes, edges,
			discord_config, slack_config, notion_config, published, remaining_path,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			discord_config = EXCLUDED.discord_config,
			slack_config = EXCLUDED.slack_config,
			notion_config = EXCLUDED.notion_config,
			published = EXCLUDED.published,
			remaining_path = EXCLUDED.remaining_path,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		automation.ID,
		automation.AccountID,
		automation.Name,
		automation.Description,
		nodesJSON,
		edgesJSON,
		discordJSON,
		slackJSON,
		notionJSON,
		automation.Published,
		remainingJSON,
		automation.CreatedAt,
		automation.UpdatedAt,
	)
	if err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return persistence.NewAutomationError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAutomationError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
	}

	return nil
}

func (r *AutomationRepository) SetRemainingPath(ctx context.Context, id string, path []models.StepKind) error {
	remainingJSON, err := marshalRemainingPath(path)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE automations SET remaining_path = $2, updated_at = NOW() WHERE id = $1`,
		id, remainingJSON)
	if err != nil {
		return persistence.NewAutomationError("SetRemainingPath", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAutomationError("SetRemainingPath", id, err)
	}

	if affected == 0 {
		return persistence.NewAutomationError("SetRemainingPath", id, persistence.ErrAutomationNotFound)
	}

	return nil
}

func (r *AutomationRepository) SetPublished(ctx context.Context, id string, published bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE automations SET published = $2, updated_at = NOW() WHERE id = $1`,
		id, published)
	if err != nil {
		return persistence.NewAutomationError("SetPublished", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAutomationError("SetPublished", id, err)
	}

	if affected == 0 {
		return persistence.NewAutomationError("SetPublished", id, persistence.ErrAutomationNotFound)
	}

	return nil
}

func scanAutomation(row rowScanner) (*models.Automation, error) {
	var (
		automation    models.Automation
		nodesJSON     []byte
		edgesJSON     []byte
		discordJSON   []byte
		slackJSON     []byte
		notionJSON    []byte
		remainingJSON []byte
	)

	err := row.Scan(
		&automation.ID,
		&automation.AccountID,
		&automation.Name,
		&automation.Description,
		&nodesJSON,
		&edgesJSON,
		&discordJSON,
		&slackJSON,
		&notionJSON,
		&automation.Published,
		&remainingJSON,
		&automation.CreatedAt,
		&automation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodesJSON, &automation.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	if err := json.Unmarshal(edgesJSON, &automation.Edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	if discordJSON != nil {
		if err := json.Unmarshal(discordJSON, &automation.Discord); err != nil {
			return nil, fmt.Errorf("failed to unmarshal discord config: %w", err)
		}
	}

	if slackJSON != nil {
		if err := json.Unmarshal(slackJSON, &automation.Slack); err != nil {
			return nil, fmt.Errorf("failed to unmarshal slack config: %w", err)
		}
	}

	if notionJSON != nil {
		if err := json.Unmarshal(notionJSON, &automation.Notion); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notion config: %w", err)
		}
	}

	if remainingJSON != nil {
		if err := json.Unmarshal(remainingJSON, &automation.RemainingPath); err != nil {
			return nil, fmt.Errorf("failed to unmarshal remaining path: %w", err)
		}

		// JSON "[]" must round-trip to an empty, non-nil pending path.
		if automation.RemainingPath == nil {
			automation.RemainingPath = []models.StepKind{}
		}
	}

	return &automation, nil
}

// marshalNullable keeps absent configs as SQL NULL instead of JSON null.
func marshalNullable(config any) ([]byte, error) {
	switch c := config.(type) {
	case *models.DiscordConfig:
		if c == nil {
			return nil, nil
		}
	case *models.SlackConfig:
		if c == nil {
			return nil, nil
		}
	case *models.NotionConfig:
		if c == nil {
			return nil, nil
		}
	}

	return json.Marshal(config)
}

func marshalRemainingPath(path []models.StepKind) ([]byte, error) {
	if path == nil {
		return nil, nil
	}

	data, err := json.Marshal(path)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal remaining path: %w", err)
	}

	return data, nil
}
