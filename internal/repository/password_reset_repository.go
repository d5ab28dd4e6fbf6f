package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTokenConsumed is returned when a reset token was already redeemed.
var ErrTokenConsumed = errors.New("reset token already used")

// PasswordResetToken represents a stored reset token. Only the SHA-256
// digest of the token is persisted; the plaintext exists solely in the
// message sent to the subject.
type PasswordResetToken struct {
	ID          string
	SubjectType string
	SubjectID   string
	Token       string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
	InvalidateActive(ctx context.Context, subjectType, subjectID string) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *passwordResetRepository) Create(ctx context.Context, token *PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (subject_type, subject_id, token_hash, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.SubjectType,
		token.SubjectID,
		hashResetToken(token.Token),
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, tokenStr string) (*PasswordResetToken, error) {
	const query = `
        SELECT id, subject_type, subject_id, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token_hash=$1`
	token := PasswordResetToken{Token: tokenStr}
	if err := r.pool.QueryRow(ctx, query, hashResetToken(tokenStr)).Scan(
		&token.ID,
		&token.SubjectType,
		&token.SubjectID,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed consumes the token. The used_at guard keeps redemption
// single-use under concurrent confirm requests.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenConsumed
	}
	return nil
}

// InvalidateActive expires every outstanding token for the subject so
// only the most recently issued one can be redeemed.
func (r *passwordResetRepository) InvalidateActive(ctx context.Context, subjectType, subjectID string) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE subject_type=$1 AND subject_id=$2 AND used_at IS NULL`
	_, err := r.pool.Exec(ctx, query, subjectType, subjectID)
	return err
}
