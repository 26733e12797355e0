package models

import "time"

// ExecutionStatus is the aggregated outcome of one run segment.
type ExecutionStatus string

const (
	// ExecutionStatusSuccess means every recorded step result succeeded,
	// including the empty no-op run.
	ExecutionStatusSuccess ExecutionStatus = "success"
	// ExecutionStatusPartial means at least one step failed, was skipped for
	// missing config, or the run suspended before draining the list.
	ExecutionStatusPartial ExecutionStatus = "partial"
	// ExecutionStatusFailed means the run aborted before any step could be
	// attempted, for example when the automation could not be loaded.
	ExecutionStatusFailed ExecutionStatus = "failed"
)

// TriggerKind identifies what started a run segment.
type TriggerKind string

const (
	TriggerKindDriveActivity TriggerKind = "drive_activity"
	TriggerKindResume        TriggerKind = "resume"
	TriggerKindManual        TriggerKind = "manual"
)

// ExecutionRecord is the immutable audit entry for one run segment. A
// suspended-then-resumed automation produces two records, one per segment;
// records are never updated after being written.
type ExecutionRecord struct {
	ID           string          `json:"id"`
	AutomationID string          `json:"automation_id"`
	AccountID    string          `json:"account_id"`
	Status       ExecutionStatus `json:"status"`
	TriggerKind  TriggerKind     `json:"trigger_kind"`
	Results      []StepResult    `json:"results"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  time.Time       `json:"completed_at"`
	DurationMs   int64           `json:"duration_ms"`
}

// Finalize stamps the completion time and duration. Idempotent once called.
func (r *ExecutionRecord) Finalize(completedAt time.Time) {
	r.CompletedAt = completedAt
	r.DurationMs = completedAt.Sub(r.StartedAt).Milliseconds()
}

// ExecutionStats aggregates record counts by status for one account.
type ExecutionStats struct {
	Total       int64   `json:"total"`
	Successful  int64   `json:"successful"`
	Failed      int64   `json:"failed"`
	Partial     int64   `json:"partial"`
	SuccessRate float64 `json:"success_rate"`
}
