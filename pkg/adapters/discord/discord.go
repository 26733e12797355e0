// Package discord posts rendered messages to a chat webhook.
package discord

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

const requestTimeout = 30 * time.Second

// Adapter executes Discord steps by posting the rendered template to the
// automation's webhook URL.
type Adapter struct {
	client *http.Client
}

func NewAdapter() *Adapter {
	return &Adapter{
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (a *Adapter) Kind() models.StepKind {
	return models.StepKindDiscord
}

func (a *Adapter) Configured(automation *models.Automation) bool {
	return automation.Discord.Complete()
}

func (a *Adapter) Execute(ctx context.Context, automation *models.Automation, event map[string]any) error {
	config := automation.Discord
	if !config.Complete() {
		return errors.New("discord config is incomplete")
	}

	content, err := template.Render(config.Template, event)
	if err != nil {
		return fmt.Errorf("failed to render message: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
