// Package models defines the core domain models for trigger-driven automations.
package models

import "time"

// GraphNode is one node of the stored editor graph. Only the type matters at
// execution time, positions and card data stay with the editor.
type GraphNode struct {
	ID   string `json:"id"   validate:"required"`
	Type string `json:"type" validate:"required"`
}

// GraphEdge connects two graph nodes. Edge array order is significant: the
// flow resolver emits step kinds in exactly this order.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// DiscordConfig is the chat-webhook integration config for one automation.
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
	Template   string `json:"template"`
}

// Complete reports whether the config carries everything the adapter needs.
func (c *DiscordConfig) Complete() bool {
	return c != nil && c.WebhookURL != "" && c.Template != ""
}

// SlackConfig is the channel-message integration config for one automation.
type SlackConfig struct {
	AccessToken string   `json:"access_token"`
	Channels    []string `json:"channels"`
	Template    string   `json:"template"`
}

func (c *SlackConfig) Complete() bool {
	return c != nil && c.AccessToken != "" && c.Template != "" && len(c.Channels) > 0
}

// NotionConfig is the document-database integration config for one automation.
// Template holds the structured page content as a JSON document.
type NotionConfig struct {
	AccessToken string `json:"access_token"`
	DatabaseID  string `json:"database_id"`
	Template    string `json:"template"`
}

func (c *NotionConfig) Complete() bool {
	return c != nil && c.AccessToken != "" && c.DatabaseID != "" && c.Template != ""
}

// Automation is a stored, user-authored definition mapping a trigger to an
// ordered set of action steps. Integration configuration is keyed by step
// kind: one config per kind per automation, which means two steps of the
// same kind share a config. That is a known limitation of the model, not
// something the engine works around.
type Automation struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"  validate:"required"`
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description"`

	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`

	Discord *DiscordConfig `json:"discord,omitempty"`
	Slack   *SlackConfig   `json:"slack,omitempty"`
	Notion  *NotionConfig  `json:"notion,omitempty"`

	// Published gates execution: unpublished automations are never run.
	Published bool `json:"published"`

	// RemainingPath is the persisted tail of a step list interrupted by a
	// Wait step. Non-nil only while the automation is suspended; set and
	// cleared exclusively by the execution engine. The distinction between
	// nil (not suspended) and empty (suspended with nothing left to run)
	// matters, so no omitempty.
	RemainingPath []StepKind `json:"remaining_path"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Suspended reports whether a resume callback is pending for this automation.
func (a *Automation) Suspended() bool {
	return a.RemainingPath != nil
}

// Account owns automations and a credit balance. DriveResourceID is the
// opaque watch-channel identifier the storage provider sends with change
// notifications.
type Account struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	DriveResourceID string    `json:"drive_resource_id"`
	Credits         Credits   `json:"credits"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
