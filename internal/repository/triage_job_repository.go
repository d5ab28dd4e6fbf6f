package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ErrDuplicateJob is returned when a triage job already exists for a message.
var ErrDuplicateJob = errors.New("triage job already exists for message")

// TriageJobRepository records pipeline runs keyed by message id.
type TriageJobRepository interface {
	// Claim inserts a PENDING job for the message. A second claim for the
	// same message returns ErrDuplicateJob.
	Claim(ctx context.Context, job *domain.TriageJob) error
	GetByMessage(ctx context.Context, messageID string) (*domain.TriageJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSucceeded(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, runErr string) error
}

type triageJobRepository struct {
	pool *pgxpool.Pool
}

// NewTriageJobRepository builds repository.
func NewTriageJobRepository(pool *pgxpool.Pool) TriageJobRepository {
	return &triageJobRepository{pool: pool}
}

func (r *triageJobRepository) Claim(ctx context.Context, job *domain.TriageJob) error {
	const query = `
        INSERT INTO triage_jobs (message_id, ticket_id, state)
        VALUES ($1,$2,$3)
        ON CONFLICT (message_id) DO NOTHING
        RETURNING id, created_at`
	job.State = domain.TriageJobPending
	err := r.pool.QueryRow(ctx, query,
		job.MessageID,
		job.TicketID,
		job.State,
	).Scan(&job.ID, &job.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateJob
	}
	return err
}

func (r *triageJobRepository) GetByMessage(ctx context.Context, messageID string) (*domain.TriageJob, error) {
	const query = `
        SELECT id, message_id, ticket_id, state, error, created_at, started_at, completed_at
        FROM triage_jobs WHERE message_id=$1`
	var job domain.TriageJob
	if err := r.pool.QueryRow(ctx, query, messageID).Scan(
		&job.ID,
		&job.MessageID,
		&job.TicketID,
		&job.State,
		&job.Error,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *triageJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `
        UPDATE triage_jobs SET state=$1, started_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, domain.TriageJobRunning, id)
	return err
}

func (r *triageJobRepository) MarkSucceeded(ctx context.Context, id string) error {
	const query = `
        UPDATE triage_jobs SET state=$1, completed_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, domain.TriageJobSucceeded, id)
	return err
}

func (r *triageJobRepository) MarkFailed(ctx context.Context, id string, runErr string) error {
	const query = `
        UPDATE triage_jobs SET state=$1, error=$2, completed_at=NOW()
        WHERE id=$3`
	_, err := r.pool.Exec(ctx, query, domain.TriageJobFailed, runErr, id)
	return err
}
