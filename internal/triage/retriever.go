package triage

import (
	"context"
	"fmt"

	"github.com/spec-kit/helpdesk/internal/ai"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Retriever fetches knowledge passages relevant to a customer message.
type Retriever interface {
	Retrieve(ctx context.Context, query, organizationID string) ([]domain.PassageMatch, error)
}

// KnowledgeRetriever embeds the query and runs an org-scoped similarity
// search. An empty result is a normal outcome, not an error.
type KnowledgeRetriever struct {
	embedder  ai.Embedder
	knowledge repository.KnowledgeRepository
	threshold float64
	count     int
}

// NewKnowledgeRetriever constructs the retriever.
func NewKnowledgeRetriever(embedder ai.Embedder, knowledge repository.KnowledgeRepository, threshold float64, count int) *KnowledgeRetriever {
	if threshold <= 0 {
		threshold = 0.7
	}
	if count <= 0 {
		count = 3
	}
	return &KnowledgeRetriever{
		embedder:  embedder,
		knowledge: knowledge,
		threshold: threshold,
		count:     count,
	}
}

// Retrieve returns up to the configured count of passages at or above the
// similarity threshold, in the index's descending-similarity order.
func (r *KnowledgeRetriever) Retrieve(ctx context.Context, query, organizationID string) ([]domain.PassageMatch, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.knowledge.Search(ctx, repository.KnowledgeSearch{
		OrganizationID: organizationID,
		Embedding:      embedding,
		Threshold:      r.threshold,
		Count:          r.count,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return matches, nil
}
