package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// RegisterUserRequest is the customer signup body.
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is shared by user and staff login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest asks for a reset token.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest consumes a reset token.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePasswordRequest updates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AttachmentRequest references an uploaded file.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// CreateTicketRequest opens a ticket.
type CreateTicketRequest struct {
	OrganizationID string              `json:"organization_id"`
	Subject        string              `json:"subject"`
	Description    string              `json:"description"`
	Priority       string              `json:"priority"`
	Tags           []string            `json:"tags"`
	Attachments    []AttachmentRequest `json:"attachments"`
}

// AddMessageRequest appends a message to a ticket.
type AddMessageRequest struct {
	Body        string              `json:"body"`
	MessageType string              `json:"message_type"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// UpdateStatusRequest moves a ticket's status.
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// UpdatePriorityRequest changes a ticket's priority.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignTicketRequest routes a ticket.
type AssignTicketRequest struct {
	TeamID     *string `json:"team_id"`
	AssigneeID *string `json:"assignee_staff_id"`
}

// CreateStaffRequest registers a staff member.
type CreateStaffRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	TeamID   *string `json:"team_id"`
}

// CreateTeamRequest creates a team.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateOrganizationRequest provisions a tenant.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// IngestKnowledgeRequest adds a knowledge passage.
type IngestKnowledgeRequest struct {
	SourceType string         `json:"source_type"`
	SourceID   string         `json:"source_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
}

// SearchKnowledgeRequest runs a similarity query.
type SearchKnowledgeRequest struct {
	Query string `json:"query"`
}

// ParsePriority validates a priority string, empty meaning "use default".
func ParsePriority(raw string) (domain.TicketPriority, bool) {
	switch domain.TicketPriority(raw) {
	case "":
		return "", true
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
		return domain.TicketPriority(raw), true
	default:
		return "", false
	}
}

// ParseStatus validates a status string.
func ParseStatus(raw string) (domain.TicketStatus, bool) {
	switch domain.TicketStatus(raw) {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusWaitingOnCustomer,
		domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled:
		return domain.TicketStatus(raw), true
	default:
		return "", false
	}
}
