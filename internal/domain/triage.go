package domain

import "time"

// TriageJobState tracks a pipeline run.
type TriageJobState string

const (
	TriageJobPending   TriageJobState = "PENDING"
	TriageJobRunning   TriageJobState = "RUNNING"
	TriageJobSucceeded TriageJobState = "SUCCEEDED"
	TriageJobFailed    TriageJobState = "FAILED"
)

// TriageJob records one triage run. MessageID is the idempotency key: a second
// trigger for the same message finds the existing row and does not run.
type TriageJob struct {
	ID          string
	MessageID   string
	TicketID    string
	State       TriageJobState
	Error       *string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NextAction is the generator's suggestion for how the workflow should proceed.
type NextAction string

const (
	NextActionClose           NextAction = "close"
	NextActionWaitForCustomer NextAction = "wait_for_customer"
	NextActionEscalate        NextAction = "escalate"
	NextActionFollowUp        NextAction = "follow_up"
	NextActionNone            NextAction = "none"
)

// AgentResult is the structured output of the response generator. It is never
// persisted as its own entity, only its derived effects are.
type AgentResult struct {
	Response          string
	ConfidenceScore   float64
	NeedsHumanReview  bool
	HumanReviewReason *string
	NextAction        NextAction
}
