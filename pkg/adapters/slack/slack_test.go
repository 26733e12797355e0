package slack

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

func TestAdapter_Execute_PostsToEveryChannel(t *testing.T) {
	var (
		channels []string
		tokens   []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		channels = append(channels, payload["channel"])
		tokens = append(tokens, r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	automation := &models.Automation{
		Slack: &models.SlackConfig{
			AccessToken: "xoxb-1",
			Channels:    []string{"C1", "C2"},
			Template:    "file changed",
		},
	}

	err := NewAdapterWithURL(server.URL).Execute(context.Background(), automation, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, channels)
	assert.Equal(t, []string{"Bearer xoxb-1", "Bearer xoxb-1"}, tokens)
}

func TestAdapter_Execute_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Errors come back inside a 200 response.
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer server.Close()

	automation := &models.Automation{
		Slack: &models.SlackConfig{
			AccessToken: "xoxb-1",
			Channels:    []string{"C1"},
			Template:    "file changed",
		},
	}

	err := NewAdapterWithURL(server.URL).Execute(context.Background(), automation, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestAdapter_Configured(t *testing.T) {
	adapter := NewAdapter()

	assert.False(t, adapter.Configured(&models.Automation{}))
	assert.False(t, adapter.Configured(&models.Automation{
		Slack: &models.SlackConfig{AccessToken: "xoxb-1", Template: "t"},
	}))
	assert.True(t, adapter.Configured(&models.Automation{
		Slack: &models.SlackConfig{AccessToken: "xoxb-1", Channels: []string{"C1"}, Template: "t"},
	}))
}
