package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// StaffDependencies wires collaborators for StaffService.
type StaffDependencies struct {
	Staff         repository.StaffRepository
	Teams         repository.TeamRepository
	Organizations repository.OrganizationRepository
	Logger        *zap.Logger
}

// StaffService covers staff, team and organization administration.
type StaffService struct {
	staff         repository.StaffRepository
	teams         repository.TeamRepository
	organizations repository.OrganizationRepository
	logger        *zap.Logger
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:         deps.Staff,
		teams:         deps.Teams,
		organizations: deps.Organizations,
		logger:        deps.Logger,
	}
}

// CreateStaffInput captures a new staff account. The new member joins the
// admin's own organization.
type CreateStaffInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.StaffRole
	TeamID   *string
}

// CreateStaff registers a staff member in the admin's organization.
func (s *StaffService) CreateStaff(ctx context.Context, adminStaffID string, input CreateStaffInput) (*domain.StaffMember, error) {
	admin, err := s.staff.GetByID(ctx, adminStaffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	switch input.Role {
	case domain.StaffRoleAgent, domain.StaffRoleTeamLead, domain.StaffRoleAdmin:
	default:
		return nil, apperrors.NewValidationError("invalid role", nil)
	}
	if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	}
	if input.TeamID != nil {
		team, err := s.teams.GetByID(ctx, *input.TeamID)
		if err != nil || team.OrganizationID != admin.OrganizationID {
			return nil, apperrors.NewNotFound("team", nil)
		}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	member := &domain.StaffMember{
		OrganizationID: admin.OrganizationID,
		Name:           input.Name,
		Email:          email,
		PasswordHash:   hash,
		Role:           input.Role,
		TeamID:         input.TeamID,
		Active:         true,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("staff member created",
		zap.String("staff_id", member.ID),
		zap.String("organization_id", member.OrganizationID),
		zap.String("role", string(member.Role)))
	return member, nil
}

// ListStaff lists staff in the caller's organization.
func (s *StaffService) ListStaff(ctx context.Context, staffID string, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	filter.OrganizationID = &member.OrganizationID
	filter.Limit = normalizeLimit(filter.Limit)
	list, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// DeactivateStaff disables a staff account in the admin's organization.
func (s *StaffService) DeactivateStaff(ctx context.Context, adminStaffID, targetStaffID string) error {
	admin, err := s.staff.GetByID(ctx, adminStaffID)
	if err != nil {
		return apperrors.MapError(err)
	}
	target, err := s.staff.GetByID(ctx, targetStaffID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if target.OrganizationID != admin.OrganizationID {
		return apperrors.NewNotFound("staff member", nil)
	}
	if target.ID == admin.ID {
		return apperrors.NewValidationError("cannot deactivate your own account", nil)
	}

	target.Active = false
	if err := s.staff.Update(ctx, target); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("staff member deactivated", zap.String("staff_id", target.ID))
	return nil
}

// CreateTeam creates a team in the admin's organization.
func (s *StaffService) CreateTeam(ctx context.Context, adminStaffID, name, description string) (*domain.Team, error) {
	admin, err := s.staff.GetByID(ctx, adminStaffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("team name is required", nil)
	}

	team := &domain.Team{
		OrganizationID: admin.OrganizationID,
		Name:           strings.TrimSpace(name),
		Description:    description,
		IsActive:       true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("team created", zap.String("team_id", team.ID), zap.String("organization_id", team.OrganizationID))
	return team, nil
}

// ListTeams lists active teams in the caller's organization.
func (s *StaffService) ListTeams(ctx context.Context, staffID string) ([]domain.Team, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	teams, err := s.teams.ListActiveByOrganization(ctx, member.OrganizationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// CreateOrganization provisions a tenant.
func (s *StaffService) CreateOrganization(ctx context.Context, name, slug string) (*domain.Organization, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if strings.TrimSpace(name) == "" || slug == "" {
		return nil, apperrors.NewValidationError("name and slug are required", nil)
	}
	if existing, err := s.organizations.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, apperrors.NewConflict("slug already in use", nil)
	}

	org := &domain.Organization{
		Name:     strings.TrimSpace(name),
		Slug:     slug,
		IsActive: true,
	}
	if err := s.organizations.Create(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("organization created", zap.String("organization_id", org.ID), zap.String("slug", org.Slug))
	return org, nil
}

// ListOrganizations lists active tenants.
func (s *StaffService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	orgs, err := s.organizations.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orgs, nil
}
