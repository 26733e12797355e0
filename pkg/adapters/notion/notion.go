// Package notion creates pages in a document database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/template"
)

// DefaultBaseURL is the API root for page creation.
const DefaultBaseURL = "https://api.notion.com"

const (
	requestTimeout = 30 * time.Second
	apiVersion     = "2022-06-28"
)

// Adapter executes Notion steps by creating a page in the configured
// database. The template renders to the page title.
type Adapter struct {
	client  *http.Client
	baseURL string
}

func NewAdapter() *Adapter {
	return NewAdapterWithURL(DefaultBaseURL)
}

// NewAdapterWithURL overrides the API root, used by tests.
func NewAdapterWithURL(baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
	}
}

func (a *Adapter) Kind() models.StepKind {
	return models.StepKindNotion
}

func (a *Adapter) Configured(automation *models.Automation) bool {
	return automation.Notion.Complete()
}

func (a *Adapter) Execute(ctx context.Context, automation *models.Automation, event map[string]any) error {
	config := automation.Notion
	if !config.Complete() {
		return errors.New("notion config is incomplete")
	}

	title, err := template.Render(config.Template, event)
	if err != nil {
		return fmt.Errorf("failed to render page title: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"parent": map[string]string{"database_id": config.DatabaseID},
		"properties": map[string]any{
			"title": map[string]any{
				"title": []map[string]any{
					{"text": map[string]string{"content": title}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal page payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/pages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.AccessToken)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("API returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
