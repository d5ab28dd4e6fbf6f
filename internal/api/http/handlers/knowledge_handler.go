package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// KnowledgeHandler exposes knowledge base ingestion and search.
type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
}

// NewKnowledgeHandler constructs the handler.
func NewKnowledgeHandler(knowledge *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

// Ingest handles POST /api/v1/staff/knowledge.
func (h *KnowledgeHandler) Ingest(c *fiber.Ctx) error {
	var req dto.IngestKnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	passage, err := h.knowledge.Ingest(c.UserContext(), auth.SubjectID(c), service.IngestInput{
		SourceType: domain.KnowledgeSourceType(req.SourceType),
		SourceID:   req.SourceID,
		Content:    req.Content,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromPassage(passage)})
}

// List handles GET /api/v1/staff/knowledge.
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	passages, err := h.knowledge.List(c.UserContext(), auth.SubjectID(c),
		c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	out := make([]dto.PassageResponse, 0, len(passages))
	for i := range passages {
		out = append(out, dto.FromPassage(&passages[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Search handles POST /api/v1/staff/knowledge/search.
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchKnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	matches, err := h.knowledge.Search(c.UserContext(), auth.SubjectID(c), req.Query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromMatches(matches)})
}
