package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// allowedTransitions defines which manual status moves staff may perform.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:              {domain.TicketStatusInProgress, domain.TicketStatusWaitingOnCustomer, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress:        {domain.TicketStatusWaitingOnCustomer, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusWaitingOnCustomer: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusResolved:          {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:            {},
	domain.TicketStatusCancelled:         {},
}

// TicketDependencies wires collaborators for TicketService.
type TicketDependencies struct {
	Tickets       repository.TicketRepository
	Messages      repository.TicketMessageRepository
	Attachments   repository.AttachmentRepository
	History       repository.TicketHistoryRepository
	Organizations repository.OrganizationRepository
	Staff         repository.StaffRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// TicketService implements ticket lifecycle operations for customers and staff.
type TicketService struct {
	tickets       repository.TicketRepository
	messages      repository.TicketMessageRepository
	attachments   repository.AttachmentRepository
	history       repository.TicketHistoryRepository
	organizations repository.OrganizationRepository
	staff         repository.StaffRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.Tickets,
		messages:      deps.Messages,
		attachments:   deps.Attachments,
		history:       deps.History,
		organizations: deps.Organizations,
		staff:         deps.Staff,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// CreateTicketInput captures a new customer ticket.
type CreateTicketInput struct {
	OrganizationID string
	Subject        string
	Description    string
	Priority       domain.TicketPriority
	Tags           []string
	Attachments    []AttachmentInput
}

// AttachmentInput references an uploaded file to link to a message.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// CreateTicket opens a new ticket with the description as its first message.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}

	org, err := s.organizations.GetByID(ctx, input.OrganizationID)
	if err != nil {
		return nil, apperrors.NewNotFound("organization", nil)
	}
	if !org.IsActive {
		return nil, apperrors.NewValidationError("organization is not active", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	ticket := &domain.Ticket{
		ExternalKey:    generateTicketKey(),
		OrganizationID: org.ID,
		RequesterID:    userID,
		Subject:        strings.TrimSpace(input.Subject),
		Description:    input.Description,
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
		Tags:           input.Tags,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	message := &domain.TicketMessage{
		TicketID:        ticket.ID,
		AuthorType:      domain.AuthorTypeUser,
		AuthorID:        &userID,
		MessageType:     domain.MessageTypePublicReply,
		Body:            input.Description,
		CustomerHasRead: true,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.attachInputs(ctx, message.ID, input.Attachments)

	actor := events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
	s.publish(ctx, events.EventTicketCreated, ticket.ID, actor, events.TicketCreatedPayload{
		OrganizationID: ticket.OrganizationID,
		TeamID:         ticket.TeamID,
		Priority:       ticket.Priority,
		Subject:        ticket.Subject,
	})
	s.publish(ctx, events.EventTicketMessageAdded, ticket.ID, actor, events.TicketMessageAddedPayload{
		MessageID:   message.ID,
		MessageType: message.MessageType,
		AuthorType:  message.AuthorType,
		AuthorID:    message.AuthorID,
		BodyPreview: preview(message.Body),
	})

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("external_key", ticket.ExternalKey),
		zap.String("organization_id", ticket.OrganizationID))
	return ticket, nil
}

// GetTicketForUser returns a ticket owned by the user.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.RequesterID != userID {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

// ListUserTickets lists the caller's tickets.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListMessagesForUser returns the public thread of a user's ticket and marks
// the agent-side replies as read by the customer.
func (s *TicketService) ListMessagesForUser(ctx context.Context, userID, ticketID string) ([]domain.TicketMessage, error) {
	if _, err := s.GetTicketForUser(ctx, userID, ticketID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := make([]domain.TicketMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.MessageType == domain.MessageTypeInternalNote {
			continue
		}
		visible = append(visible, msg)
	}
	if err := s.messages.MarkCustomerRead(ctx, ticketID); err != nil {
		s.logger.Warn("mark customer read", zap.Error(err), zap.String("ticket_id", ticketID))
	}
	return visible, nil
}

// AddUserMessage appends a customer reply and announces it, which starts an
// AI triage run for the message.
func (s *TicketService) AddUserMessage(ctx context.Context, userID, ticketID, body string, attachments []AttachmentInput) (*domain.TicketMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}

	ticket, err := s.GetTicketForUser(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed || ticket.Status == domain.TicketStatusCancelled {
		return nil, apperrors.NewValidationError("ticket is closed", nil)
	}

	message := &domain.TicketMessage{
		TicketID:        ticket.ID,
		AuthorType:      domain.AuthorTypeUser,
		AuthorID:        &userID,
		MessageType:     domain.MessageTypePublicReply,
		Body:            body,
		CustomerHasRead: true,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.attachInputs(ctx, message.ID, attachments)

	s.publish(ctx, events.EventTicketMessageAdded, ticket.ID,
		events.Actor{Type: domain.SubjectTypeUser, UserID: &userID},
		events.TicketMessageAddedPayload{
			MessageID:   message.ID,
			MessageType: message.MessageType,
			AuthorType:  message.AuthorType,
			AuthorID:    message.AuthorID,
			BodyPreview: preview(message.Body),
		})
	return message, nil
}

// CloseTicketAsUser lets a requester close their own ticket.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicketForUser(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed || ticket.Status == domain.TicketStatusCancelled {
		return ticket, nil
	}

	status := domain.TicketStatusClosed
	now := time.Now()
	updated, err := s.tickets.UpdateWorkflow(ctx, ticket.ID, repository.WorkflowUpdate{
		Status:   &status,
		ClosedAt: &now,
		Revision: ticket.Revision,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
	s.recordStatusChange(ctx, updated.ID, domain.AuthorTypeUser, &userID, ticket.Status, status)
	s.publish(ctx, events.EventTicketStatusChanged, updated.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: ticket.Status,
		NewStatus: status,
	})
	return updated, nil
}

// ListTicketsForStaff lists tickets visible to the staff member, always scoped
// to their organization.
func (s *TicketService) ListTicketsForStaff(ctx context.Context, staffID string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	filter.OrganizationID = &member.OrganizationID
	filter.Limit = normalizeLimit(filter.Limit)
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicketForStaff returns a ticket the staff member may access.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staffID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.authorizeStaff(ctx, staffID, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListMessagesForStaff returns the full thread including internal notes. The
// agent_has_read flag is left untouched so unread AI replies stay visible
// until the explicit mark-read call.
func (s *TicketService) ListMessagesForStaff(ctx context.Context, staffID, ticketID string) ([]domain.TicketMessage, error) {
	if _, err := s.GetTicketForStaff(ctx, staffID, ticketID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return messages, nil
}

// AddStaffMessage appends a staff reply or internal note.
func (s *TicketService) AddStaffMessage(ctx context.Context, staffID, ticketID, body string, messageType domain.TicketMessageType) (*domain.TicketMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}
	if messageType != domain.MessageTypePublicReply && messageType != domain.MessageTypeInternalNote {
		return nil, apperrors.NewValidationError("invalid message type", nil)
	}

	ticket, err := s.GetTicketForStaff(ctx, staffID, ticketID)
	if err != nil {
		return nil, err
	}

	message := &domain.TicketMessage{
		TicketID:     ticket.ID,
		AuthorType:   domain.AuthorTypeStaff,
		AuthorID:     &staffID,
		MessageType:  messageType,
		Body:         body,
		AgentHasRead: true,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketMessageAdded, ticket.ID,
		events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID},
		events.TicketMessageAddedPayload{
			MessageID:   message.ID,
			MessageType: message.MessageType,
			AuthorType:  message.AuthorType,
			AuthorID:    message.AuthorID,
			BodyPreview: preview(message.Body),
		})
	return message, nil
}

// MarkMessagesReadForStaff marks the ticket's thread as seen by the agent
// side, clearing the unread marker AI replies carry.
func (s *TicketService) MarkMessagesReadForStaff(ctx context.Context, staffID, ticketID string) error {
	if _, err := s.GetTicketForStaff(ctx, staffID, ticketID); err != nil {
		return err
	}
	if err := s.messages.MarkAgentRead(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// UpdateStatus performs a manual status transition with the revision guard.
func (s *TicketService) UpdateStatus(ctx context.Context, staffID, ticketID string, target domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.GetTicketForStaff(ctx, staffID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == target {
		return ticket, nil
	}
	if !transitionAllowed(ticket.Status, target) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("cannot transition from %s to %s", ticket.Status, target), nil)
	}

	update := repository.WorkflowUpdate{Status: &target, Revision: ticket.Revision}
	if target == domain.TicketStatusClosed || target == domain.TicketStatusCancelled {
		now := time.Now()
		update.ClosedAt = &now
	}
	updated, err := s.tickets.UpdateWorkflow(ctx, ticket.ID, update)
	if err != nil {
		if err == repository.ErrStaleTicket {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	actor := events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
	s.recordStatusChange(ctx, updated.ID, domain.AuthorTypeStaff, &staffID, ticket.Status, target)
	s.publish(ctx, events.EventTicketStatusChanged, updated.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: ticket.Status,
		NewStatus: target,
		Comment:   comment,
	})
	return updated, nil
}

// UpdatePriority changes the ticket priority with the revision guard.
func (s *TicketService) UpdatePriority(ctx context.Context, staffID, ticketID string, target domain.TicketPriority) (*domain.Ticket, error) {
	ticket, err := s.GetTicketForStaff(ctx, staffID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Priority == target {
		return ticket, nil
	}

	updated, err := s.tickets.UpdateWorkflow(ctx, ticket.ID, repository.WorkflowUpdate{
		Priority: &target,
		Revision: ticket.Revision,
	})
	if err != nil {
		if err == repository.ErrStaleTicket {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:      updated.ID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   &staffID,
		ChangeType:    domain.ChangeTypePriority,
		OldValue:      map[string]any{"priority": string(ticket.Priority)},
		NewValue:      map[string]any{"priority": string(target)},
	})
	s.publish(ctx, events.EventTicketPriorityChanged, updated.ID,
		events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID},
		events.TicketPriorityChangedPayload{
			OldPriority: ticket.Priority,
			NewPriority: target,
		})
	return updated, nil
}

// History returns the audit trail for a ticket the staff member may access.
func (s *TicketService) History(ctx context.Context, staffID, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicketForStaff(ctx, staffID, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// authorizeStaff checks organization scope and, for agents, team scope.
func (s *TicketService) authorizeStaff(ctx context.Context, staffID string, ticket *domain.Ticket) error {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if member.OrganizationID != ticket.OrganizationID {
		return apperrors.NewNotFound("ticket", nil)
	}
	if member.Role == domain.StaffRoleAgent {
		assignedToMe := ticket.AssigneeID != nil && *ticket.AssigneeID == member.ID
		inMyTeam := ticket.TeamID != nil && member.TeamID != nil && *ticket.TeamID == *member.TeamID
		unrouted := ticket.TeamID == nil && ticket.AssigneeID == nil
		if !assignedToMe && !inMyTeam && !unrouted {
			return apperrors.NewForbidden("ticket outside your team")
		}
	}
	return nil
}

func (s *TicketService) attachInputs(ctx context.Context, messageID string, inputs []AttachmentInput) {
	if len(inputs) == 0 {
		return
	}
	refs := make([]domain.AttachmentReference, len(inputs))
	for i, in := range inputs {
		refs[i] = domain.AttachmentReference{
			StorageKey: in.StorageKey,
			FileName:   in.FileName,
			MimeType:   in.MimeType,
			SizeBytes:  in.SizeBytes,
		}
	}
	if err := s.attachments.CreateForMessage(ctx, messageID, refs); err != nil {
		s.logger.Warn("attach file references", zap.Error(err), zap.String("message_id", messageID))
	}
}

func (s *TicketService) recordStatusChange(ctx context.Context, ticketID string, byType domain.MessageAuthorType, byID *string, from, to domain.TicketStatus) {
	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: byType,
		ChangedByID:   byID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": string(from)},
		NewValue:      map[string]any{"status": string(to)},
	})
}

func (s *TicketService) recordHistory(ctx context.Context, entry *domain.TicketHistory) {
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record ticket history", zap.Error(err), zap.String("ticket_id", entry.TicketID))
	}
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID string, actor events.Actor, payload interface{}) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.Error(err), zap.String("event_type", string(eventType)))
	}
}

func transitionAllowed(from, to domain.TicketStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func generateTicketKey() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("TCK-%d-%s", time.Now().Unix(), strings.ToUpper(hex.EncodeToString(buf)))
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func preview(body string) string {
	const max = 140
	if len(body) <= max {
		return body
	}
	// back off to a rune boundary so the cut never splits a multi-byte rune
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}
