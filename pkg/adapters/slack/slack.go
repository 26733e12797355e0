// Package slack sends rendered messages to one or more workspace channels.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/template"
)

// DefaultAPIURL is the chat.postMessage endpoint.
const DefaultAPIURL = "https://slack.com/api/chat.postMessage"

const requestTimeout = 30 * time.Second

// Adapter executes Slack steps by posting the rendered template to every
// configured channel. The first channel that fails aborts the step.
type Adapter struct {
	client *http.Client
	apiURL string
}

func NewAdapter() *Adapter {
	return NewAdapterWithURL(DefaultAPIURL)
}

// NewAdapterWithURL overrides the API endpoint, used by tests.
func NewAdapterWithURL(apiURL string) *Adapter {
	return &Adapter{
		client: &http.Client{Timeout: requestTimeout},
		apiURL: apiURL,
	}
}

func (a *Adapter) Kind() models.StepKind {
	return models.StepKindSlack
}

func (a *Adapter) Configured(automation *models.Automation) bool {
	return automation.Slack.Complete()
}

func (a *Adapter) Execute(ctx context.Context, automation *models.Automation, event map[string]any) error {
	config := automation.Slack
	if !config.Complete() {
		return errors.New("slack config is incomplete")
	}

	content, err := template.Render(config.Template, event)
	if err != nil {
		return fmt.Errorf("failed to render message: %w", err)
	}

	for _, channel := range config.Channels {
		err = a.postMessage(ctx, config.AccessToken, channel, content)
		if err != nil {
			return fmt.Errorf("failed to post to channel %s: %w", channel, err)
		}
	}

	return nil
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (a *Adapter) postMessage(ctx context.Context, token, channel, text string) error {
	payload, err := json.Marshal(map[string]string{
		"channel": channel,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API returned HTTP %d", resp.StatusCode)
	}

	// The API reports errors inside a 200 response.
	var result postMessageResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("API error: %s", result.Error)
	}

	return nil
}
