// Package locks guards resume callbacks against concurrent delivery. The
// external cron service fires every minute until a job is disabled, so the
// same callback can arrive twice; the guard ensures only one segment runs.
package locks

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a guard entry can outlive a crashed run.
const DefaultTTL = 2 * time.Minute

// RunGuard serializes run segments per automation.
type RunGuard interface {
	// Acquire claims the automation for one run segment. Returns false when
	// another segment already holds the claim.
	Acquire(ctx context.Context, automationID string) (bool, error)
	// Release frees the claim.
	Release(ctx context.Context, automationID string) error
}
