// Package engine runs published automations: it walks the resolved step
// list, dispatches integration adapters, handles Wait suspension and writes
// one immutable execution record per run segment.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/aferraz/driveline/pkg/eventbus"
	"github.com/aferraz/driveline/pkg/events"
	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/otelhelper"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/aferraz/driveline/pkg/registry"
	"github.com/aferraz/driveline/pkg/scheduler"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Engine executes run segments. It never mutates automations beyond the
// suspension state and never updates an execution record once written.
type Engine struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	scheduler   scheduler.Scheduler
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
}

func NewEngine(
	logger *slog.Logger,
	p persistence.Persistence,
	r *registry.Registry,
	s scheduler.Scheduler,
	bus eventbus.EventPublisher,
	tracer trace.Tracer,
) *Engine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("driveline")
	}

	return &Engine{
		logger:      logger,
		persistence: p,
		registry:    r,
		scheduler:   s,
		eventBus:    bus,
		tracer:      tracer,
	}
}

// Run executes one segment of steps for an automation and appends its
// execution record. The returned record is already persisted.
//
// A Wait step suspends the run: the tail after the Wait is persisted and the
// loop stops. A Wait whose callback registration fails is recorded as a
// failed step and the loop continues, the tail is not touched.
func (e *Engine) Run(
	ctx context.Context,
	automation *models.Automation,
	steps []models.StepKind,
	triggerKind models.TriggerKind,
	event map[string]any,
) (*models.ExecutionRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.run",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.AccountIDKey, automation.AccountID),
		attribute.String(otelhelper.TriggerKindKey, string(triggerKind)),
	)
	defer span.End()

	e.publishTriggered(ctx, automation, triggerKind, event)

	record := &models.ExecutionRecord{
		AutomationID: automation.ID,
		AccountID:    automation.AccountID,
		TriggerKind:  triggerKind,
		Results:      make([]models.StepResult, 0, len(steps)),
		StartedAt:    time.Now().UTC(),
	}

	suspended := false

	for index, kind := range steps {
		result, stop := e.runStep(ctx, automation, steps, index, kind, event)
		record.Results = append(record.Results, result)

		if stop {
			suspended = true

			break
		}
	}

	// A fully drained resume segment releases the suspension state.
	if !suspended && automation.Suspended() {
		err := e.persistence.AutomationRepository().SetRemainingPath(ctx, automation.ID, nil)
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to clear remaining path",
				"automation_id", automation.ID, "error", err)
		}
	}

	record.Status = aggregateStatus(record.Results)
	record.Finalize(time.Now().UTC())

	err := e.persistence.ExecutionRepository().Append(ctx, record)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	// One debit per logical run: the trigger segment pays, resume segments
	// are already covered.
	if triggerKind != models.TriggerKindResume {
		e.debitCredit(ctx, automation.AccountID)
	}
	e.publishFinished(ctx, automation, record)

	e.logger.InfoContext(ctx, "Run segment completed",
		"automation_id", automation.ID,
		"execution_id", record.ID,
		"status", record.Status,
		"steps", len(record.Results),
		"suspended", suspended)

	return record, nil
}

// runStep executes one step and returns its result. stop is true only for a
// Wait step whose callback was registered, which suspends the segment.
func (e *Engine) runStep(
	ctx context.Context,
	automation *models.Automation,
	steps []models.StepKind,
	index int,
	kind models.StepKind,
	event map[string]any,
) (models.StepResult, bool) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.step",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.StepKindKey, string(kind)),
	)
	defer span.End()

	if kind == models.StepKindWait {
		return e.suspend(ctx, automation, steps, index)
	}

	adapter, ok := e.registry.Adapter(kind)
	if !ok {
		return models.FailedResult(kind, models.ReasonUnknownNodeType, ""), false
	}

	if !adapter.Configured(automation) {
		return models.FailedResult(kind, models.ReasonMissingConfig, ""), false
	}

	err := adapter.Execute(ctx, automation, event)
	if err != nil {
		otelhelper.SetError(span, err)
		e.logger.WarnContext(ctx, "Step failed",
			"automation_id", automation.ID, "kind", kind, "error", err)

		return models.FailedResult(kind, models.ReasonExecutionError, err.Error()), false
	}

	return models.SuccessResult(kind), false
}

// suspend registers the resume callback, then persists the tail. Ordering
// matters: a tail without a callback would strand the automation, a callback
// without a tail resolves as a benign no-op resume.
func (e *Engine) suspend(
	ctx context.Context,
	automation *models.Automation,
	steps []models.StepKind,
	index int,
) (models.StepResult, bool) {
	err := e.scheduler.ScheduleResume(ctx, automation.ID, index+1)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to schedule resume",
			"automation_id", automation.ID, "error", err)

		return models.FailedResult(models.StepKindWait, models.ReasonCronScheduleFailed, err.Error()), false
	}

	// The tail must be non-nil even when empty: empty means suspended with
	// nothing left to run.
	tail := make([]models.StepKind, len(steps)-index-1)
	copy(tail, steps[index+1:])

	err = e.persistence.AutomationRepository().SetRemainingPath(ctx, automation.ID, tail)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist remaining path",
			"automation_id", automation.ID, "error", err)

		return models.FailedResult(models.StepKindWait, models.ReasonCronScheduleFailed, err.Error()), false
	}

	automation.RemainingPath = tail

	e.publishResumeScheduled(ctx, automation, index+1, len(tail))

	return models.ScheduledResult(), true
}

// Resume continues a suspended automation from its persisted tail. A resume
// for an automation that is not suspended returns (nil, nil): the callback
// fires every minute and duplicate deliveries are expected.
func (e *Engine) Resume(ctx context.Context, automationID string) (*models.ExecutionRecord, error) {
	automation, err := e.persistence.AutomationRepository().GetByID(ctx, automationID)
	if err != nil {
		return nil, err
	}

	if !automation.Suspended() {
		return nil, nil
	}

	steps := automation.RemainingPath
	event := map[string]any{
		"automation_id": automation.ID,
		"trigger":       string(models.TriggerKindResume),
	}

	return e.Run(ctx, automation, steps, models.TriggerKindResume, event)
}

// RecordFailure writes a failed record for a run that aborted before any
// step could be attempted.
func (e *Engine) RecordFailure(
	ctx context.Context,
	automationID, accountID string,
	triggerKind models.TriggerKind,
	runErr error,
) *models.ExecutionRecord {
	now := time.Now().UTC()
	record := &models.ExecutionRecord{
		AutomationID: automationID,
		AccountID:    accountID,
		Status:       models.ExecutionStatusFailed,
		TriggerKind:  triggerKind,
		Results:      []models.StepResult{},
		Error:        runErr.Error(),
		StartedAt:    now,
	}
	record.Finalize(now)

	err := e.persistence.ExecutionRepository().Append(ctx, record)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to append failure record",
			"automation_id", automationID, "error", err)
	}

	return record
}

// debitCredit consumes one credit for the segment. The debit is best-effort
// after the fact: an exhausted balance blocks future triggering events, it
// never unwinds a completed run.
func (e *Engine) debitCredit(ctx context.Context, accountID string) {
	_, err := e.persistence.AccountRepository().ConsumeCredit(ctx, accountID)
	if err != nil && !persistence.IsInsufficientCredits(err) {
		e.logger.ErrorContext(ctx, "Failed to consume credit",
			"account_id", accountID, "error", err)
	}
}

// aggregateStatus folds step results into the segment status. An empty
// segment is a success; any non-success result, including a scheduled Wait,
// downgrades the segment to partial.
func aggregateStatus(results []models.StepResult) models.ExecutionStatus {
	for _, result := range results {
		if result.Outcome != models.StepOutcomeSuccess {
			return models.ExecutionStatusPartial
		}
	}

	return models.ExecutionStatusSuccess
}

func (e *Engine) publishTriggered(ctx context.Context, automation *models.Automation, triggerKind models.TriggerKind, event map[string]any) {
	if e.eventBus == nil {
		return
	}

	resourceID, _ := event["resource_id"].(string)

	err := e.eventBus.Publish(ctx, automation.ID, events.AutomationTriggered{
		BaseEvent:   e.baseEvent(events.AutomationTriggeredEvent, automation),
		TriggerKind: triggerKind,
		ResourceID:  resourceID,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish triggered event", "error", err)
	}
}

func (e *Engine) publishFinished(ctx context.Context, automation *models.Automation, record *models.ExecutionRecord) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, automation.ID, events.ExecutionFinished{
		BaseEvent:   e.baseEvent(events.ExecutionFinishedEvent, automation),
		ExecutionID: record.ID,
		Status:      record.Status,
		StepCount:   len(record.Results),
		DurationMs:  record.DurationMs,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish finished event", "error", err)
	}
}

func (e *Engine) publishResumeScheduled(ctx context.Context, automation *models.Automation, nextIndex, remainingLen int) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, automation.ID, events.ResumeScheduled{
		BaseEvent:    e.baseEvent(events.ResumeScheduledEvent, automation),
		NextIndex:    nextIndex,
		RemainingLen: remainingLen,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish resume scheduled event", "error", err)
	}
}

func (e *Engine) baseEvent(eventType events.EventType, automation *models.Automation) events.BaseEvent {
	var id string
	if bus, ok := e.eventBus.(eventbus.EventBus); ok {
		id = bus.GenerateID()
	}

	return events.BaseEvent{
		ID:           id,
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		AutomationID: automation.ID,
		AccountID:    automation.AccountID,
	}
}
