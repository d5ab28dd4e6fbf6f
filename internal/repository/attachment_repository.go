package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata. Attachments are only
// ever written as a batch belonging to one message, never individually.
type AttachmentRepository interface {
	CreateForMessage(ctx context.Context, messageID string, refs []domain.AttachmentReference) error
	ListByMessage(ctx context.Context, messageID string) ([]domain.AttachmentReference, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

// CreateForMessage inserts all references for the message in one round trip.
// The refs slice is updated in place with generated ids and timestamps.
func (r *attachmentRepository) CreateForMessage(ctx context.Context, messageID string, refs []domain.AttachmentReference) error {
	if len(refs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO attachment_references (ticket_message_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	batch := &pgx.Batch{}
	for i := range refs {
		refs[i].TicketMessageID = messageID
		batch.Queue(query,
			messageID,
			refs[i].StorageKey,
			refs[i].FileName,
			refs[i].MimeType,
			refs[i].SizeBytes,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range refs {
		if err := results.QueryRow().Scan(&refs[i].ID, &refs[i].CreatedAt); err != nil {
			return err
		}
	}
	return results.Close()
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.AttachmentReference, error) {
	const query = `
        SELECT id, ticket_message_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachment_references
        WHERE ticket_message_id=$1
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttachmentReference
	for rows.Next() {
		var attachment domain.AttachmentReference
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketMessageID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
