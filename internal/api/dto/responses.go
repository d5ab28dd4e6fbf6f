package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AuthResponse returns an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	SubjectID string    `json:"subject_id"`
	Subject   string    `json:"subject"`
	Role      *string   `json:"role,omitempty"`
}

// UserResponse is the public view of a customer account.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketResponse is the API view of a ticket.
type TicketResponse struct {
	ID             string     `json:"id"`
	ExternalKey    string     `json:"external_key"`
	OrganizationID string     `json:"organization_id"`
	RequesterID    string     `json:"requester_id"`
	TeamID         *string    `json:"team_id,omitempty"`
	AssigneeID     *string    `json:"assignee_staff_id,omitempty"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Tags           []string   `json:"tags,omitempty"`
	Revision       int64      `json:"revision"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// MessageResponse is the API view of a ticket message.
type MessageResponse struct {
	ID              string               `json:"id"`
	TicketID        string               `json:"ticket_id"`
	AuthorType      string               `json:"author_type"`
	AuthorID        *string              `json:"author_id,omitempty"`
	MessageType     string               `json:"message_type"`
	Body            string               `json:"body"`
	IsAIGenerated   bool                 `json:"is_ai_generated"`
	AgentHasRead    bool                 `json:"agent_has_read"`
	CustomerHasRead bool                 `json:"customer_has_read"`
	Attachments     []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// AttachmentResponse describes a stored attachment reference.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID            string         `json:"id"`
	ChangedByType string         `json:"changed_by_type"`
	ChangedByID   *string        `json:"changed_by_id,omitempty"`
	ChangeType    string         `json:"change_type"`
	OldValue      map[string]any `json:"old_value,omitempty"`
	NewValue      map[string]any `json:"new_value,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// StaffResponse is the public view of a staff member.
type StaffResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	TeamID         *string   `json:"team_id,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationResponse is one staff notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TicketID  *string   `json:"ticket_id,omitempty"`
	MessageID *string   `json:"message_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// PassageResponse is a stored knowledge passage without the embedding.
type PassageResponse struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type"`
	SourceID   string         `json:"source_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MatchResponse is one similarity-search hit.
type MatchResponse struct {
	SourceType string         `json:"source_type"`
	SourceID   string         `json:"source_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// TriageJobResponse reports one pipeline run record.
type TriageJobResponse struct {
	ID          string     `json:"id"`
	MessageID   string     `json:"message_id"`
	TicketID    string     `json:"ticket_id"`
	State       string     `json:"state"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TeamResponse is the public view of a team.
type TeamResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganizationResponse is the public view of a tenant.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// FromUser maps a domain user.
func FromUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

// FromTicket maps a domain ticket.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		ExternalKey:    t.ExternalKey,
		OrganizationID: t.OrganizationID,
		RequesterID:    t.RequesterID,
		TeamID:         t.TeamID,
		AssigneeID:     t.AssigneeID,
		Subject:        t.Subject,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Tags:           t.Tags,
		Revision:       t.Revision,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ClosedAt:       t.ClosedAt,
	}
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}

// FromMessage maps a domain message with its attachments.
func FromMessage(m *domain.TicketMessage) MessageResponse {
	attachments := make([]AttachmentResponse, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:        a.ID,
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
		})
	}
	return MessageResponse{
		ID:              m.ID,
		TicketID:        m.TicketID,
		AuthorType:      string(m.AuthorType),
		AuthorID:        m.AuthorID,
		MessageType:     string(m.MessageType),
		Body:            m.Body,
		IsAIGenerated:   m.IsAIGenerated,
		AgentHasRead:    m.AgentHasRead,
		CustomerHasRead: m.CustomerHasRead,
		Attachments:     attachments,
		CreatedAt:       m.CreatedAt,
	}
}

// FromMessages maps a slice of messages.
func FromMessages(messages []domain.TicketMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, FromMessage(&messages[i]))
	}
	return out
}

// FromHistory maps audit entries.
func FromHistory(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			ID:            e.ID,
			ChangedByType: string(e.ChangedByType),
			ChangedByID:   e.ChangedByID,
			ChangeType:    string(e.ChangeType),
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}

// FromStaff maps a staff member.
func FromStaff(m *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Email:          m.Email,
		Role:           string(m.Role),
		TeamID:         m.TeamID,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
	}
}

// FromNotifications maps notifications.
func FromNotifications(list []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			TicketID:  n.TicketID,
			MessageID: n.MessageID,
			Title:     n.Title,
			Content:   n.Content,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

// FromPassage maps a knowledge passage.
func FromPassage(p *domain.KnowledgePassage) PassageResponse {
	return PassageResponse{
		ID:         p.ID,
		SourceType: string(p.SourceType),
		SourceID:   p.SourceID,
		Content:    p.Content,
		Metadata:   p.Metadata,
		CreatedAt:  p.CreatedAt,
	}
}

// FromMatches maps similarity hits.
func FromMatches(matches []domain.PassageMatch) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchResponse{
			SourceType: string(m.SourceType),
			SourceID:   m.SourceID,
			Content:    m.Content,
			Metadata:   m.Metadata,
			Similarity: m.Similarity,
		})
	}
	return out
}

// FromTeam maps a team.
func FromTeam(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Name:           t.Name,
		Description:    t.Description,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
	}
}

// FromTeams maps a slice of teams.
func FromTeams(teams []domain.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for i := range teams {
		out = append(out, FromTeam(&teams[i]))
	}
	return out
}

// FromOrganization maps a tenant.
func FromOrganization(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Slug:      o.Slug,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
	}
}

// FromOrganizations maps a slice of tenants.
func FromOrganizations(orgs []domain.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		out = append(out, FromOrganization(&orgs[i]))
	}
	return out
}

// FromTriageJob maps a job record.
func FromTriageJob(j *domain.TriageJob) TriageJobResponse {
	return TriageJobResponse{
		ID:          j.ID,
		MessageID:   j.MessageID,
		TicketID:    j.TicketID,
		State:       string(j.State),
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
