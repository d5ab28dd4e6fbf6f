package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// StaffHandler exposes staff, team and organization administration.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(staff *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// Create handles POST /api/v1/staff/members.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	member, err := h.staff.CreateStaff(c.UserContext(), auth.SubjectID(c), service.CreateStaffInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.StaffRole(req.Role),
		TeamID:   req.TeamID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromStaff(member)})
}

// List handles GET /api/v1/staff/members.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	filter := repository.StaffFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if role := c.Query("role"); role != "" {
		parsed := domain.StaffRole(role)
		filter.Role = &parsed
	}
	if teamID := c.Query("team_id"); teamID != "" {
		filter.TeamID = &teamID
	}

	members, err := h.staff.ListStaff(c.UserContext(), auth.SubjectID(c), filter)
	if err != nil {
		return err
	}
	out := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		out = append(out, dto.FromStaff(&members[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Deactivate handles POST /api/v1/staff/members/:id/deactivate.
func (h *StaffHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.staff.DeactivateStaff(c.UserContext(), auth.SubjectID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deactivated"}})
}

// CreateTeam handles POST /api/v1/staff/teams.
func (h *StaffHandler) CreateTeam(c *fiber.Ctx) error {
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	team, err := h.staff.CreateTeam(c.UserContext(), auth.SubjectID(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromTeam(team)})
}

// ListTeams handles GET /api/v1/staff/teams.
func (h *StaffHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.staff.ListTeams(c.UserContext(), auth.SubjectID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTeams(teams)})
}

// CreateOrganization handles POST /api/v1/organizations.
func (h *StaffHandler) CreateOrganization(c *fiber.Ctx) error {
	var req dto.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	org, err := h.staff.CreateOrganization(c.UserContext(), req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromOrganization(org)})
}

// ListOrganizations handles GET /api/v1/organizations.
func (h *StaffHandler) ListOrganizations(c *fiber.Ctx) error {
	orgs, err := h.staff.ListOrganizations(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromOrganizations(orgs)})
}
