package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler exposes customer-facing ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /api/v1/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	priority, ok := dto.ParsePriority(req.Priority)
	if !ok {
		return apperrors.NewValidationError("invalid priority", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), auth.SubjectID(c), service.CreateTicketInput{
		OrganizationID: req.OrganizationID,
		Subject:        req.Subject,
		Description:    req.Description,
		Priority:       priority,
		Tags:           req.Tags,
		Attachments:    toAttachmentInputs(req.Attachments),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// List handles GET /api/v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListUserTickets(c.UserContext(), auth.SubjectID(c),
		c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// Get handles GET /api/v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicketForUser(c.UserContext(), auth.SubjectID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Messages handles GET /api/v1/tickets/:id/messages.
func (h *TicketsHandler) Messages(c *fiber.Ctx) error {
	messages, err := h.tickets.ListMessagesForUser(c.UserContext(), auth.SubjectID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromMessages(messages)})
}

// AddMessage handles POST /api/v1/tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	message, err := h.tickets.AddUserMessage(c.UserContext(), auth.SubjectID(c), c.Params("id"),
		req.Body, toAttachmentInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromMessage(message)})
}

// Close handles POST /api/v1/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	ticket, err := h.tickets.CloseTicketAsUser(c.UserContext(), auth.SubjectID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

func toAttachmentInputs(reqs []dto.AttachmentRequest) []service.AttachmentInput {
	inputs := make([]service.AttachmentInput, 0, len(reqs))
	for _, r := range reqs {
		inputs = append(inputs, service.AttachmentInput{
			StorageKey: r.StorageKey,
			FileName:   r.FileName,
			MimeType:   r.MimeType,
			SizeBytes:  r.SizeBytes,
		})
	}
	return inputs
}
