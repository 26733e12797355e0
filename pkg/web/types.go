// Package web provides the HTTP handlers for trigger ingress, resume
// callbacks, automation management, and the execution query surface.
package web

import "github.com/aferraz/driveline/pkg/models"

// CreateAutomationRequest is the request body for creating a new automation.
// Graphs and integration configs are attached through their own endpoints.
type CreateAutomationRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	Name      string `json:"name"       validate:"required,min=3"`
}

// UpdateConfigsRequest carries the integration configs to replace. Omitted
// fields leave the stored config untouched.
type UpdateConfigsRequest struct {
	Discord *models.DiscordConfig `json:"discord,omitempty"`
	Slack   *models.SlackConfig   `json:"slack,omitempty"`
	Notion  *models.NotionConfig  `json:"notion,omitempty"`
}

// ResumeResponse reports the outcome of one resume callback. ExecutionID and
// Results are empty when the callback was a no-op.
type ResumeResponse struct {
	AutomationID string              `json:"automation_id"`
	ExecutionID  string              `json:"execution_id,omitempty"`
	Status       string              `json:"status,omitempty"`
	Results      []models.StepResult `json:"results,omitempty"`
	Message      string              `json:"message,omitempty"`
}
