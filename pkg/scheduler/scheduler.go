// Package scheduler registers resume callbacks for suspended automations
// with an external cron service, or a local cron runner for development.
package scheduler

import "context"

// Scheduler registers a one-shot resume callback for a suspended automation.
// The callback hits the resume endpoint with the automation id; nextIndex is
// carried for observability only, resumed segments always start at the head
// of the persisted tail.
type Scheduler interface {
	ScheduleResume(ctx context.Context, automationID string, nextIndex int) error
}
