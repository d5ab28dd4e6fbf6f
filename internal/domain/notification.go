package domain

import "time"

// NotificationType enumerates staff-facing notification kinds.
type NotificationType string

const (
	NotificationHighPriority        NotificationType = "HIGH_PRIORITY"
	NotificationHumanReviewRequired NotificationType = "HUMAN_REVIEW_REQUIRED"
	NotificationProcessingError     NotificationType = "PROCESSING_ERROR"
)

// Notification is an org-scoped alert raised by the triage pipeline.
type Notification struct {
	ID             string
	OrganizationID string
	Type           NotificationType
	TicketID       *string
	MessageID      *string
	Title          string
	Content        string
	Read           bool
	CreatedAt      time.Time
}
