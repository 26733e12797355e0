package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aferraz/driveline/pkg/flow"
	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

// Automation manages stored automation definitions. Execution is the
// engine's job, this service only touches definitions.
type Automation struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAutomation(p persistence.Persistence) *Automation {
	return &Automation{
		persistence: p,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Automation) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and stores a new automation. New automations always start
// unpublished; the suspension state is engine-owned and never set here.
func (s *Automation) Create(ctx context.Context, automation *models.Automation) error {
	if automation == nil {
		return ErrAutomationNil
	}

	err := s.validator.Struct(automation)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	automation.ID = ""
	automation.Published = false
	automation.RemainingPath = nil

	return s.persistence.AutomationRepository().Save(ctx, automation)
}

func (s *Automation) Get(ctx context.Context, id string) (*models.Automation, error) {
	return s.persistence.AutomationRepository().GetByID(ctx, id)
}

func (s *Automation) List(ctx context.Context, accountID string) ([]*models.Automation, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	return s.persistence.AutomationRepository().ListByAccount(ctx, accountID)
}

func (s *Automation) Delete(ctx context.Context, id string) error {
	return s.persistence.AutomationRepository().Delete(ctx, id)
}

// UpdateGraph replaces the stored editor graph. The document is the decoded
// JSON body of a graph save request and is schema-checked before anything is
// written.
func (s *Automation) UpdateGraph(ctx context.Context, id string, document map[string]any) (*models.Automation, error) {
	err := flow.ValidateGraph(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	automation, err := s.persistence.AutomationRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Round-trip through JSON so the document decodes with the same rules as
	// any other payload.
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	var graph struct {
		Nodes []models.GraphNode `json:"nodes"`
		Edges []models.GraphEdge `json:"edges"`
	}

	err = json.Unmarshal(raw, &graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	automation.Nodes = graph.Nodes
	automation.Edges = graph.Edges

	err = s.persistence.AutomationRepository().Save(ctx, automation)
	if err != nil {
		return nil, err
	}

	return automation, nil
}

// UpdateConfigs replaces the integration configs that are present in the
// request. A nil field leaves the stored config untouched.
func (s *Automation) UpdateConfigs(
	ctx context.Context,
	id string,
	discord *models.DiscordConfig,
	slack *models.SlackConfig,
	notion *models.NotionConfig,
) (*models.Automation, error) {
	automation, err := s.persistence.AutomationRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if discord != nil {
		automation.Discord = discord
	}

	if slack != nil {
		automation.Slack = slack
	}

	if notion != nil {
		automation.Notion = notion
	}

	err = s.persistence.AutomationRepository().Save(ctx, automation)
	if err != nil {
		return nil, err
	}

	return automation, nil
}

// SetPublished flips the execution gate.
func (s *Automation) SetPublished(ctx context.Context, id string, published bool) error {
	return s.persistence.AutomationRepository().SetPublished(ctx, id, published)
}
