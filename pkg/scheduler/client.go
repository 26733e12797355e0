package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const requestTimeout = 30 * time.Second

// Client schedules resume callbacks through a hosted cron service. The
// service calls the given URL every minute until the resume endpoint
// completes the run and the job is disabled.
type Client struct {
	client    *http.Client
	apiURL    string
	apiKey    string
	publicURL string
}

// NewClient builds a remote scheduler. apiURL is the cron service API root,
// publicURL is this service's externally reachable base URL.
func NewClient(apiURL, apiKey, publicURL string) *Client {
	return &Client{
		client:    &http.Client{Timeout: requestTimeout},
		apiURL:    apiURL,
		apiKey:    apiKey,
		publicURL: publicURL,
	}
}

type jobSchedule struct {
	Timezone  string   `json:"timezone"`
	ExpiresAt int      `json:"expiresAt"`
	Hours     []int    `json:"hours"`
	MDays     []int    `json:"mdays"`
	Minutes   []string `json:"minutes"`
	Months    []int    `json:"months"`
	WDays     []int    `json:"wdays"`
}

type job struct {
	URL      string      `json:"url"`
	Enabled  string      `json:"enabled"`
	Schedule jobSchedule `json:"schedule"`
}

func (c *Client) ScheduleResume(ctx context.Context, automationID string, nextIndex int) error {
	callback := c.publicURL + "/cron/resume?" + url.Values{
		"flow_id":       []string{automationID},
		"current_index": []string{strconv.Itoa(nextIndex)},
	}.Encode()

	payload, err := json.Marshal(map[string]job{
		"job": {
			URL:     callback,
			Enabled: "true",
			Schedule: jobSchedule{
				Timezone:  "UTC",
				ExpiresAt: 0,
				Hours:     []int{-1},
				MDays:     []int{-1},
				Minutes:   []string{"*****"},
				Months:    []int{-1},
				WDays:     []int{-1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.apiURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create job request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("job request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("cron service returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
