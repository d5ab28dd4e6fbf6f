package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TriageDependencies wires collaborators for TriageService.
type TriageDependencies struct {
	Jobs     repository.TriageJobRepository
	Messages repository.TicketMessageRepository
	Tickets  repository.TicketRepository
	Staff    repository.StaffRepository
	Logger   *zap.Logger
}

// TriageService exposes read access to triage job records for staff.
type TriageService struct {
	jobs     repository.TriageJobRepository
	messages repository.TicketMessageRepository
	tickets  repository.TicketRepository
	staff    repository.StaffRepository
	logger   *zap.Logger
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		jobs:     deps.Jobs,
		messages: deps.Messages,
		tickets:  deps.Tickets,
		staff:    deps.Staff,
		logger:   deps.Logger,
	}
}

// JobForMessage returns the triage job for a message, scoped to the staff
// member's organization.
func (s *TriageService) JobForMessage(ctx context.Context, staffID, messageID string) (*domain.TriageJob, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperrors.NewNotFound("message", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, msg.TicketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.OrganizationID != member.OrganizationID {
		return nil, apperrors.NewNotFound("message", nil)
	}

	job, err := s.jobs.GetByMessage(ctx, messageID)
	if err != nil {
		return nil, apperrors.NewNotFound("triage job", nil)
	}
	return job, nil
}
