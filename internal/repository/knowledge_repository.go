package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// KnowledgeSearch holds parameters for a similarity query.
type KnowledgeSearch struct {
	OrganizationID string
	Embedding      []float32
	Threshold      float64
	Count          int
}

// KnowledgeRepository stores embedded knowledge passages and answers
// similarity queries against the pgvector index.
type KnowledgeRepository interface {
	Create(ctx context.Context, passage *domain.KnowledgePassage) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgePassage, error)
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.KnowledgePassage, error)
	Search(ctx context.Context, search KnowledgeSearch) ([]domain.PassageMatch, error)
}

type knowledgeRepository struct {
	pool *pgxpool.Pool
}

// NewKnowledgeRepository builds the repository.
func NewKnowledgeRepository(pool *pgxpool.Pool) KnowledgeRepository {
	return &knowledgeRepository{pool: pool}
}

func (r *knowledgeRepository) Create(ctx context.Context, passage *domain.KnowledgePassage) error {
	const query = `
        INSERT INTO knowledge_passages (organization_id, source_type, source_id, content, metadata, embedding)
        VALUES ($1,$2,$3,$4,$5,$6::vector)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		passage.OrganizationID,
		passage.SourceType,
		passage.SourceID,
		passage.Content,
		passage.Metadata,
		encodeVector(passage.Embedding),
	).Scan(&passage.ID, &passage.CreatedAt, &passage.UpdatedAt)
}

func (r *knowledgeRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgePassage, error) {
	const query = `
        SELECT id, organization_id, source_type, source_id, content, metadata, created_at, updated_at
        FROM knowledge_passages WHERE id=$1`
	var passage domain.KnowledgePassage
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&passage.ID,
		&passage.OrganizationID,
		&passage.SourceType,
		&passage.SourceID,
		&passage.Content,
		&passage.Metadata,
		&passage.CreatedAt,
		&passage.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &passage, nil
}

func (r *knowledgeRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.KnowledgePassage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, organization_id, source_type, source_id, content, metadata, created_at, updated_at
        FROM knowledge_passages WHERE organization_id=$1
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KnowledgePassage
	for rows.Next() {
		var passage domain.KnowledgePassage
		if err := rows.Scan(
			&passage.ID,
			&passage.OrganizationID,
			&passage.SourceType,
			&passage.SourceID,
			&passage.Content,
			&passage.Metadata,
			&passage.CreatedAt,
			&passage.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, passage)
	}
	return result, rows.Err()
}

// Search runs cosine similarity over the org's passages. Results come back in
// the index's descending-similarity order; this layer does not re-sort.
func (r *knowledgeRepository) Search(ctx context.Context, search KnowledgeSearch) ([]domain.PassageMatch, error) {
	count := search.Count
	if count <= 0 {
		count = 3
	}
	const query = `
        SELECT source_type, source_id, content, metadata, 1 - (embedding <=> $1::vector) AS similarity
        FROM knowledge_passages
        WHERE organization_id=$2 AND 1 - (embedding <=> $1::vector) >= $3
        ORDER BY embedding <=> $1::vector
        LIMIT $4`
	rows, err := r.pool.Query(ctx, query,
		encodeVector(search.Embedding),
		search.OrganizationID,
		search.Threshold,
		count,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PassageMatch
	for rows.Next() {
		var match domain.PassageMatch
		if err := rows.Scan(
			&match.SourceType,
			&match.SourceID,
			&match.Content,
			&match.Metadata,
			&match.Similarity,
		); err != nil {
			return nil, err
		}
		result = append(result, match)
	}
	return result, rows.Err()
}
