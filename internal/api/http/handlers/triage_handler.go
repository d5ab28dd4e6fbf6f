package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// TriageHandler exposes read access to triage job records.
type TriageHandler struct {
	triage *service.TriageService
}

// NewTriageHandler constructs the handler.
func NewTriageHandler(triage *service.TriageService) *TriageHandler {
	return &TriageHandler{triage: triage}
}

// JobForMessage handles GET /api/v1/staff/triage/jobs/:messageID.
func (h *TriageHandler) JobForMessage(c *fiber.Ctx) error {
	job, err := h.triage.JobForMessage(c.UserContext(), auth.SubjectID(c), c.Params("messageID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTriageJob(job)})
}
