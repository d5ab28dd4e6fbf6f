package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AssignmentDependencies wires collaborators for AssignmentService.
type AssignmentDependencies struct {
	Tickets    repository.TicketRepository
	Staff      repository.StaffRepository
	Teams      repository.TeamRepository
	History    repository.TicketHistoryRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AssignmentService routes tickets to teams and staff members.
type AssignmentService struct {
	tickets    repository.TicketRepository
	staff      repository.StaffRepository
	teams      repository.TeamRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.Tickets,
		staff:      deps.Staff,
		teams:      deps.Teams,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AssignInput describes a routing change. Nil fields clear the assignment.
type AssignInput struct {
	TeamID     *string
	AssigneeID *string
}

// Assign routes a ticket to a team and/or staff member. The actor and any
// assignee must belong to the ticket's organization; an assignee with a team
// must match the target team.
func (s *AssignmentService) Assign(ctx context.Context, actorStaffID, ticketID string, input AssignInput) (*domain.Ticket, error) {
	actor, err := s.staff.GetByID(ctx, actorStaffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.OrganizationID != ticket.OrganizationID {
		return nil, apperrors.NewNotFound("ticket", nil)
	}

	if input.TeamID != nil {
		team, err := s.teams.GetByID(ctx, *input.TeamID)
		if err != nil {
			return nil, apperrors.NewNotFound("team", nil)
		}
		if team.OrganizationID != ticket.OrganizationID || !team.IsActive {
			return nil, apperrors.NewValidationError("team is not available", nil)
		}
	}
	if input.AssigneeID != nil {
		assignee, err := s.staff.GetByID(ctx, *input.AssigneeID)
		if err != nil {
			return nil, apperrors.NewNotFound("staff member", nil)
		}
		if assignee.OrganizationID != ticket.OrganizationID || !assignee.Active {
			return nil, apperrors.NewValidationError("staff member is not available", nil)
		}
		if input.TeamID != nil && assignee.TeamID != nil && *assignee.TeamID != *input.TeamID {
			return nil, apperrors.NewValidationError("assignee does not belong to the target team", nil)
		}
	}

	oldTeam := ticket.TeamID
	oldAssignee := ticket.AssigneeID
	ticket.TeamID = input.TeamID
	ticket.AssigneeID = input.AssigneeID
	if ticket.Status == domain.TicketStatusOpen && input.AssigneeID != nil {
		ticket.Status = domain.TicketStatusInProgress
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   &actorStaffID,
		ChangeType:    domain.ChangeTypeAssignee,
		OldValue:      map[string]any{"team_id": strPtrValue(oldTeam), "assignee_staff_id": strPtrValue(oldAssignee)},
		NewValue:      map[string]any{"team_id": strPtrValue(ticket.TeamID), "assignee_staff_id": strPtrValue(ticket.AssigneeID)},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record assignment history", zap.Error(err), zap.String("ticket_id", ticket.ID))
	}

	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorStaffID},
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AssigneeStaffID: ticket.AssigneeID,
			TeamID:          ticket.TeamID,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish assignment event", zap.Error(err), zap.String("ticket_id", ticket.ID))
	}
	return ticket, nil
}

func strPtrValue(ptr *string) any {
	if ptr == nil {
		return nil
	}
	return *ptr
}
