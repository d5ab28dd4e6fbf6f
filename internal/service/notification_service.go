package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// NotificationDependencies wires collaborators for NotificationService.
type NotificationDependencies struct {
	Notifications repository.NotificationRepository
	Staff         repository.StaffRepository
	Logger        *zap.Logger
}

// NotificationService exposes the staff notification feed.
type NotificationService struct {
	notifications repository.NotificationRepository
	staff         repository.StaffRepository
	logger        *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.Notifications,
		staff:         deps.Staff,
		logger:        deps.Logger,
	}
}

// List returns notifications for the staff member's organization.
func (s *NotificationService) List(ctx context.Context, staffID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	list, err := s.notifications.ListByOrganization(ctx, member.OrganizationID, unreadOnly, normalizeLimit(limit), offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, staffID, notificationID string) error {
	if _, err := s.staff.GetByID(ctx, staffID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
