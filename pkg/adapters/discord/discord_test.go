package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Execute(t *testing.T) {
	var received map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	automation := &models.Automation{
		Discord: &models.DiscordConfig{
			WebhookURL: server.URL,
			Template:   "change on {{.resource_id}}",
		},
	}

	err := NewAdapter().Execute(context.Background(), automation, map[string]any{"resource_id": "res-1"})
	require.NoError(t, err)
	assert.Equal(t, "change on res-1", received["content"])
}

func TestAdapter_Execute_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid webhook", http.StatusNotFound)
	}))
	defer server.Close()

	automation := &models.Automation{
		Discord: &models.DiscordConfig{WebhookURL: server.URL, Template: "hi"},
	}

	err := NewAdapter().Execute(context.Background(), automation, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAdapter_Execute_IncompleteConfig(t *testing.T) {
	automation := &models.Automation{Discord: &models.DiscordConfig{Template: "hi"}}

	assert.False(t, NewAdapter().Configured(automation))
	assert.Error(t, NewAdapter().Execute(context.Background(), automation, nil))
}

func TestAdapter_Configured_NilConfig(t *testing.T) {
	assert.False(t, NewAdapter().Configured(&models.Automation{}))
}
