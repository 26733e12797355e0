package notion

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
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Notion-Version"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	automation := &models.Automation{
		Notion: &models.NotionConfig{
			AccessToken: "secret-token",
			DatabaseID:  "db-1",
			Template:    "change on {{.resource_id}}",
		},
	}

	err := NewAdapterWithURL(server.URL).Execute(context.Background(), automation, map[string]any{"resource_id": "res-1"})
	require.NoError(t, err)

	parent, ok := payload["parent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "db-1", parent["database_id"])
}

func TestAdapter_Execute_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"database not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	automation := &models.Automation{
		Notion: &models.NotionConfig{AccessToken: "t", DatabaseID: "db", Template: "x"},
	}

	err := NewAdapterWithURL(server.URL).Execute(context.Background(), automation, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestAdapter_Configured(t *testing.T) {
	adapter := NewAdapter()

	assert.False(t, adapter.Configured(&models.Automation{}))
	assert.True(t, adapter.Configured(&models.Automation{
		Notion: &models.NotionConfig{AccessToken: "t", DatabaseID: "db", Template: "x"},
	}))
}
