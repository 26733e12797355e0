package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aferraz/driveline/pkg/cmd"
	"github.com/aferraz/driveline/pkg/locks"
	"github.com/aferraz/driveline/pkg/persistence/file"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(tempDir string) *fiber.App {
	persistence := file.NewPersistence(tempDir)

	api := NewAPI(
		slog.Default(),
		persistence,
		cmd.NewRegistry(slog.Default()),
		nil,
		locks.NewMemoryGuard(),
		nil,
	)

	return api.App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(tempDir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Driveline API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(tempDir)

	for _, path := range []string{"/livez", "/readyz", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAPI_ResumeRequiresFlowID(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(tempDir)

	req := httptest.NewRequest(http.MethodGet, "/cron/resume", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
