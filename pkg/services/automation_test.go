package services

import (
	"context"
	"testing"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/aferraz/driveline/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAutomationService(t *testing.T) (*Automation, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return NewAutomation(p), p
}

func TestAutomation_Create(t *testing.T) {
	ctx := context.Background()
	service, _ := newAutomationService(t)

	automation := &models.Automation{
		AccountID: "acct-1",
		Name:      "Notify team",
		// Client-supplied execution state must be discarded.
		Published:     true,
		RemainingPath: []models.StepKind{models.StepKindNotion},
	}

	require.NoError(t, service.Create(ctx, automation))
	require.NotEmpty(t, automation.ID)
	assert.False(t, automation.Published)
	assert.Nil(t, automation.RemainingPath)
}

func TestAutomation_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	service, _ := newAutomationService(t)

	err := service.Create(ctx, &models.Automation{AccountID: "acct-1"})
	assert.True(t, IsValidationError(err))

	err = service.Create(ctx, &models.Automation{Name: "no account"})
	assert.True(t, IsValidationError(err))

	err = service.Create(ctx, nil)
	assert.True(t, IsValidationError(err))
}

func TestAutomation_UpdateGraph(t *testing.T) {
	ctx := context.Background()
	service, _ := newAutomationService(t)

	automation := &models.Automation{AccountID: "acct-1", Name: "a"}
	require.NoError(t, service.Create(ctx, automation))

	updated, err := service.UpdateGraph(ctx, automation.ID, map[string]any{
		"nodes": []any{
			map[string]any{"id": "trigger", "type": "Trigger"},
			map[string]any{"id": "n1", "type": "Slack"},
		},
		"edges": []any{
			map[string]any{"source": "trigger", "target": "n1"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Nodes, 2)
	require.Len(t, updated.Edges, 1)
	assert.Equal(t, "n1", updated.Edges[0].Target)
}

func TestAutomation_UpdateGraph_Invalid(t *testing.T) {
	ctx := context.Background()
	service, _ := newAutomationService(t)

	automation := &models.Automation{AccountID: "acct-1", Name: "a"}
	require.NoError(t, service.Create(ctx, automation))

	// A node without a type fails the schema check before anything is saved.
	_, err := service.UpdateGraph(ctx, automation.ID, map[string]any{
		"nodes": []any{map[string]any{"id": "n1"}},
		"edges": []any{},
	})
	assert.True(t, IsValidationError(err))

	loaded, err := service.Get(ctx, automation.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Nodes)
}

func TestAutomation_UpdateConfigs(t *testing.T) {
	ctx := context.Background()
	service, _ := newAutomationService(t)

	automation := &models.Automation{
		AccountID: "acct-1",
		Name:      "a",
		Discord:   &models.DiscordConfig{WebhookURL: "https://old.example", Template: "old"},
	}
	require.NoError(t, service.Create(ctx, automation))

	updated, err := service.UpdateConfigs(ctx, automation.ID,
		nil,
		&models.SlackConfig{AccessToken: "xoxb", Channels: []string{"C1"}, Template: "t"},
		nil,
	)
	require.NoError(t, err)

	// Untouched configs survive, the provided one is replaced.
	require.NotNil(t, updated.Discord)
	assert.Equal(t, "https://old.example", updated.Discord.WebhookURL)
	require.NotNil(t, updated.Slack)
	assert.Equal(t, []string{"C1"}, updated.Slack.Channels)
}

func TestAutomation_SetPublished(t *testing.T) {
	ctx := context.Background()
	service, _ := newAutomationService(t)

	automation := &models.Automation{AccountID: "acct-1", Name: "a"}
	require.NoError(t, service.Create(ctx, automation))

	require.NoError(t, service.SetPublished(ctx, automation.ID, true))

	loaded, err := service.Get(ctx, automation.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Published)
}

func TestAutomation_List_RequiresAccount(t *testing.T) {
	service, _ := newAutomationService(t)

	_, err := service.List(context.Background(), "")
	assert.True(t, IsValidationError(err))
}
