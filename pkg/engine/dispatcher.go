package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aferraz/driveline/pkg/flow"
	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
)

// ErrQuotaExceeded rejects a triggering event whose account balance is
// already exhausted. Nothing runs for that event.
var ErrQuotaExceeded = errors.New("account credits exhausted")

// AutomationOutcome summarizes one automation's run for the event response.
type AutomationOutcome struct {
	AutomationID string                 `json:"automation_id"`
	Name         string                 `json:"name"`
	ExecutionID  string                 `json:"execution_id,omitempty"`
	Status       models.ExecutionStatus `json:"status"`
	Results      []models.StepResult    `json:"results"`
	Error        string                 `json:"error,omitempty"`
}

// EventSummary is the structured response for one change event.
type EventSummary struct {
	ResourceID string              `json:"resource_id"`
	AccountID  string              `json:"account_id"`
	Outcomes   []AutomationOutcome `json:"outcomes"`
	Credits    string              `json:"credits"`
}

// Dispatcher turns storage-provider change events into automation runs.
type Dispatcher struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *Engine
}

func NewDispatcher(logger *slog.Logger, p persistence.Persistence, e *Engine) *Dispatcher {
	return &Dispatcher{
		logger:      logger,
		persistence: p,
		engine:      e,
	}
}

// HandleChangeEvent runs every published automation of the account watching
// resourceID. The quota gate is checked once, up front: an exhausted balance
// rejects the whole event before anything runs. Automations run
// concurrently; a panic in one never takes down the others.
func (d *Dispatcher) HandleChangeEvent(ctx context.Context, resourceID string) (*EventSummary, error) {
	account, err := d.persistence.AccountRepository().GetByResourceID(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if account.Credits.Exhausted() {
		d.logger.WarnContext(ctx, "Event rejected, credits exhausted",
			"resource_id", resourceID, "account_id", account.ID)

		return nil, ErrQuotaExceeded
	}

	automations, err := d.persistence.AutomationRepository().ListPublishedByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}

	event := map[string]any{
		"resource_id": resourceID,
		"account_id":  account.ID,
		"trigger":     string(models.TriggerKindDriveActivity),
	}

	outcomes := make([]AutomationOutcome, len(automations))

	var wg sync.WaitGroup

	for i, automation := range automations {
		wg.Add(1)

		go func(i int, automation *models.Automation) {
			defer wg.Done()

			outcomes[i] = d.runOne(ctx, automation, event)
		}(i, automation)
	}

	wg.Wait()

	summary := &EventSummary{
		ResourceID: resourceID,
		AccountID:  account.ID,
		Outcomes:   outcomes,
		Credits:    account.Credits.String(),
	}

	// Reload the balance so the response reflects the debits just taken.
	refreshed, err := d.persistence.AccountRepository().GetByID(ctx, account.ID)
	if err == nil {
		summary.Credits = refreshed.Credits.String()
	}

	return summary, nil
}

func (d *Dispatcher) runOne(ctx context.Context, automation *models.Automation, event map[string]any) (outcome AutomationOutcome) {
	outcome = AutomationOutcome{
		AutomationID: automation.ID,
		Name:         automation.Name,
		Results:      []models.StepResult{},
	}

	defer func() {
		if r := recover(); r != nil {
			panicErr := fmt.Errorf("automation run panicked: %v", r)
			d.logger.ErrorContext(ctx, "Automation run panicked",
				"automation_id", automation.ID, "panic", r)

			record := d.engine.RecordFailure(ctx, automation.ID, automation.AccountID,
				models.TriggerKindDriveActivity, panicErr)
			outcome.ExecutionID = record.ID
			outcome.Status = models.ExecutionStatusFailed
			outcome.Error = panicErr.Error()
		}
	}()

	steps := flow.Resolve(automation)

	record, err := d.engine.Run(ctx, automation, steps, models.TriggerKindDriveActivity, event)
	if err != nil {
		record = d.engine.RecordFailure(ctx, automation.ID, automation.AccountID,
			models.TriggerKindDriveActivity, err)
		outcome.ExecutionID = record.ID
		outcome.Status = models.ExecutionStatusFailed
		outcome.Error = err.Error()

		return outcome
	}

	outcome.ExecutionID = record.ID
	outcome.Status = record.Status
	outcome.Results = record.Results

	return outcome
}
