package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/ai"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/triage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// KnowledgeDependencies wires collaborators for KnowledgeService.
type KnowledgeDependencies struct {
	Knowledge repository.KnowledgeRepository
	Staff     repository.StaffRepository
	Embedder  ai.Embedder
	Retriever triage.Retriever
	Logger    *zap.Logger
}

// KnowledgeService manages the embedded knowledge base that grounds AI
// replies. Ingestion computes the embedding inline; a passage is searchable
// as soon as the insert returns.
type KnowledgeService struct {
	knowledge repository.KnowledgeRepository
	staff     repository.StaffRepository
	embedder  ai.Embedder
	retriever triage.Retriever
	logger    *zap.Logger
}

// NewKnowledgeService constructs the service.
func NewKnowledgeService(deps KnowledgeDependencies) *KnowledgeService {
	return &KnowledgeService{
		knowledge: deps.Knowledge,
		staff:     deps.Staff,
		embedder:  deps.Embedder,
		retriever: deps.Retriever,
		logger:    deps.Logger,
	}
}

// IngestInput captures a knowledge passage to embed and store.
type IngestInput struct {
	SourceType domain.KnowledgeSourceType
	SourceID   string
	Content    string
	Metadata   map[string]any
}

// Ingest embeds the content and stores it scoped to the staff member's
// organization.
func (s *KnowledgeService) Ingest(ctx context.Context, staffID string, input IngestInput) (*domain.KnowledgePassage, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}
	switch input.SourceType {
	case domain.KnowledgeSourceFAQ, domain.KnowledgeSourceArticle, domain.KnowledgeSourceFile:
	default:
		return nil, apperrors.NewValidationError("invalid source type", nil)
	}

	embedding, err := s.embedder.Embed(ctx, input.Content)
	if err != nil {
		return nil, apperrors.NewUnavailable("embedding provider unavailable")
	}

	passage := &domain.KnowledgePassage{
		OrganizationID: member.OrganizationID,
		SourceType:     input.SourceType,
		SourceID:       input.SourceID,
		Content:        input.Content,
		Metadata:       input.Metadata,
		Embedding:      embedding,
	}
	if err := s.knowledge.Create(ctx, passage); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("knowledge passage ingested",
		zap.String("passage_id", passage.ID),
		zap.String("organization_id", passage.OrganizationID),
		zap.String("source_type", string(passage.SourceType)))
	return passage, nil
}

// List returns stored passages for the staff member's organization.
func (s *KnowledgeService) List(ctx context.Context, staffID string, limit, offset int) ([]domain.KnowledgePassage, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	list, err := s.knowledge.ListByOrganization(ctx, member.OrganizationID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// Search runs the same similarity retrieval the triage pipeline uses, so
// staff can inspect what the assistant would see for a given query.
func (s *KnowledgeService) Search(ctx context.Context, staffID, query string) ([]domain.PassageMatch, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("query is required", nil)
	}
	matches, err := s.retriever.Retrieve(ctx, query, member.OrganizationID)
	if err != nil {
		return nil, apperrors.NewUnavailable("knowledge search unavailable")
	}
	return matches, nil
}
