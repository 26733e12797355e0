package models

// StepKind is the category of one automation action. The set is closed:
// adding a kind means adding a constant here and an adapter for it, the
// engine loop never changes.
type StepKind string

const (
	StepKindDiscord StepKind = "Discord" // post a rendered template to a chat webhook
	StepKindSlack   StepKind = "Slack"   // send a rendered template to one or more channels
	StepKindNotion  StepKind = "Notion"  // create a page in a document database
	StepKindWait    StepKind = "Wait"    // suspend until an external scheduler calls back
)

// Known reports whether the kind belongs to the recognized set. Unrecognized
// kinds still flow through execution as failed steps, they never abort a run.
func (k StepKind) Known() bool {
	switch k {
	case StepKindDiscord, StepKindSlack, StepKindNotion, StepKindWait:
		return true
	default:
		return false
	}
}

// StepOutcome is the terminal state of one step attempt.
type StepOutcome string

const (
	StepOutcomeSuccess   StepOutcome = "success"
	StepOutcomeFailed    StepOutcome = "failed"
	StepOutcomeScheduled StepOutcome = "scheduled"
)

// Failure reasons recorded on step results.
const (
	ReasonMissingConfig      = "missing_config"
	ReasonExecutionError     = "execution_error"
	ReasonUnknownNodeType    = "unknown_node_type"
	ReasonCronScheduleFailed = "cron_schedule_failed"
)

// StepResult is the immutable outcome of a single step attempt. Exactly one
// is appended per attempted step, in execution order.
type StepResult struct {
	Kind    StepKind    `json:"node"`
	Outcome StepOutcome `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResult builds a success result for the given kind.
func SuccessResult(kind StepKind) StepResult {
	return StepResult{Kind: kind, Outcome: StepOutcomeSuccess}
}

// FailedResult builds a failed result with a machine-readable reason and an
// optional error message.
func FailedResult(kind StepKind, reason, errMessage string) StepResult {
	return StepResult{Kind: kind, Outcome: StepOutcomeFailed, Reason: reason, Error: errMessage}
}

// ScheduledResult builds the result recorded for a Wait step whose resume
// callback was registered successfully.
func ScheduledResult() StepResult {
	return StepResult{Kind: StepKindWait, Outcome: StepOutcomeScheduled}
}
