// Package events defines the lifecycle notifications published while
// automations execute.
package events

import (
	"time"

	"github.com/aferraz/driveline/pkg/models"
)

type EventType string

// Topic is the single stream all lifecycle events are published to.
const Topic = "driveline.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	AutomationTriggeredEvent EventType = "automation.triggered"
	ExecutionFinishedEvent   EventType = "execution.finished"
	ResumeScheduledEvent     EventType = "resume.scheduled"
)

type BaseEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	AutomationID string    `json:"automation_id"`
	AccountID    string    `json:"account_id"`
}

// AutomationTriggered is published when a run segment starts.
type AutomationTriggered struct {
	BaseEvent

	TriggerKind models.TriggerKind `json:"trigger_kind"`
	ResourceID  string             `json:"resource_id,omitempty"`
}

func (e AutomationTriggered) GetType() EventType {
	return AutomationTriggeredEvent
}

// ExecutionFinished is published after a run segment's record is appended.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	Status      models.ExecutionStatus `json:"status"`
	StepCount   int                    `json:"step_count"`
	DurationMs  int64                  `json:"duration_ms"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

// ResumeScheduled is published when a Wait step registers its callback.
type ResumeScheduled struct {
	BaseEvent

	NextIndex    int `json:"next_index"`
	RemainingLen int `json:"remaining_len"`
}

func (e ResumeScheduled) GetType() EventType {
	return ResumeScheduledEvent
}
