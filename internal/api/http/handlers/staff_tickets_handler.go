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

// StaffTicketsHandler exposes agent-facing ticket endpoints.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewStaffTicketsHandler constructs the handler.
func NewStaffTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, assignments: assignments}
}

// List handles GET /api/v1/staff/tickets.
func (h *StaffTicketsHandler) List(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		parsed, ok := dto.ParseStatus(status)
		if !ok {
			return apperrors.NewValidationError("invalid status filter", nil)
		}
		filter.Statuses = []domain.TicketStatus{parsed}
	}
	if priority := c.Query("priority"); priority != "" {
		parsed, ok := dto.ParsePriority(priority)
		if !ok {
			return apperrors.NewValidationError("invalid priority filter", nil)
		}
		filter.Priorities = []domain.TicketPriority{parsed}
	}
	if teamID := c.Query("team_id"); teamID != "" {
		filter.TeamID = &teamID
	}
	if assignee := c.Query("assignee_staff_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if term := c.Query("q"); term != "" {
		filter.SearchTerm = &term
	}

	tickets, err := h.tickets.ListTicketsForStaff(c.UserContext(), auth.SubjectID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// Get handles GET /api/v1/staff/tickets/:id.
func (h *StaffTicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicketForStaff(c.UserContext(), auth.SubjectID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Messages handles GET /api/v1/staff/tickets/:id/messages.
func (h *StaffTicketsHandler) Messages(c *fiber.Ctx) error {
	messages, err := h.tickets.ListMessagesForStaff(c.UserContext(), auth.SubjectID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromMessages(messages)})
}

// AddMessage handles POST /api/v1/staff/tickets/:id/messages.
func (h *StaffTicketsHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	messageType := domain.TicketMessageType(req.MessageType)
	if messageType == "" {
		messageType = domain.MessageTypePublicReply
	}

	message, err := h.tickets.AddStaffMessage(c.UserContext(), auth.SubjectID(c), c.Params("id"),
		req.Body, messageType)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromMessage(message)})
}

// MarkMessagesRead handles POST /api/v1/staff/tickets/:id/messages/read.
func (h *StaffTicketsHandler) MarkMessagesRead(c *fiber.Ctx) error {
	if err := h.tickets.MarkMessagesReadForStaff(c.UserContext(), auth.SubjectID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}

// UpdateStatus handles PATCH /api/v1/staff/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	status, ok := dto.ParseStatus(req.Status)
	if !ok {
		return apperrors.NewValidationError("invalid status", nil)
	}

	ticket, err := h.tickets.UpdateStatus(c.UserContext(), auth.SubjectID(c), c.Params("id"), status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdatePriority handles PATCH /api/v1/staff/tickets/:id/priority.
func (h *StaffTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	priority, ok := dto.ParsePriority(req.Priority)
	if !ok || priority == "" {
		return apperrors.NewValidationError("invalid priority", nil)
	}

	ticket, err := h.tickets.UpdatePriority(c.UserContext(), auth.SubjectID(c), c.Params("id"), priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Assign handles POST /api/v1/staff/tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.assignments.Assign(c.UserContext(), auth.SubjectID(c), c.Params("id"), service.AssignInput{
		TeamID:     req.TeamID,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// History handles GET /api/v1/staff/tickets/:id/history.
func (h *StaffTicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.tickets.History(c.UserContext(), auth.SubjectID(c), c.Params("id"),
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromHistory(entries)})
}
