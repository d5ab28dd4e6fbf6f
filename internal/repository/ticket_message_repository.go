package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	GetByID(ctx context.Context, id string) (*domain.TicketMessage, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
	MarkAgentRead(ctx context.Context, ticketID string) error
	MarkCustomerRead(ctx context.Context, ticketID string) error
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

const messageColumns = `id, ticket_id, author_type, author_id, message_type, body,
        is_ai_generated, agent_has_read, customer_has_read, created_at`

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_type, author_id, message_type, body, is_ai_generated, agent_has_read, customer_has_read)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorType,
		msg.AuthorID,
		msg.MessageType,
		msg.Body,
		msg.IsAIGenerated,
		msg.AgentHasRead,
		msg.CustomerHasRead,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) GetByID(ctx context.Context, id string) (*domain.TicketMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM ticket_messages WHERE id=$1`
	var msg domain.TicketMessage
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.AuthorType,
		&msg.AuthorID,
		&msg.MessageType,
		&msg.Body,
		&msg.IsAIGenerated,
		&msg.AgentHasRead,
		&msg.CustomerHasRead,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MarkAgentRead flips agent_has_read on every message of the ticket. Read
// flags are the only mutable part of a message.
func (r *ticketMessageRepository) MarkAgentRead(ctx context.Context, ticketID string) error {
	const query = `
        UPDATE ticket_messages SET agent_has_read=TRUE
        WHERE ticket_id=$1 AND agent_has_read=FALSE`
	_, err := r.pool.Exec(ctx, query, ticketID)
	return err
}

func (r *ticketMessageRepository) MarkCustomerRead(ctx context.Context, ticketID string) error {
	const query = `
        UPDATE ticket_messages SET customer_has_read=TRUE
        WHERE ticket_id=$1 AND customer_has_read=FALSE AND message_type=$2`
	_, err := r.pool.Exec(ctx, query, ticketID, domain.MessageTypePublicReply)
	return err
}

func scanMessages(rows pgx.Rows) ([]domain.TicketMessage, error) {
	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorType,
			&msg.AuthorID,
			&msg.MessageType,
			&msg.Body,
			&msg.IsAIGenerated,
			&msg.AgentHasRead,
			&msg.CustomerHasRead,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
