package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeResetRepo struct {
	tokens []*repository.PasswordResetToken
	nextID int
}

func (f *fakeResetRepo) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	f.nextID++
	token.ID = fmt.Sprintf("reset-%d", f.nextID)
	token.CreatedAt = time.Now()
	f.tokens = append(f.tokens, token)
	return nil
}

func (f *fakeResetRepo) GetByToken(ctx context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	for _, token := range f.tokens {
		if token.Token == tokenStr {
			return token, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeResetRepo) MarkUsed(ctx context.Context, id string) error {
	for _, token := range f.tokens {
		if token.ID == id {
			if token.UsedAt != nil {
				return repository.ErrTokenConsumed
			}
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeResetRepo) InvalidateActive(ctx context.Context, subjectType, subjectID string) error {
	now := time.Now()
	for _, token := range f.tokens {
		if token.SubjectType == subjectType && token.SubjectID == subjectID && token.UsedAt == nil {
			token.UsedAt = &now
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *fakeResetRepo) {
	t.Helper()
	hash, err := auth.HashPassword("original-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	users := &fakeUserRepo{users: map[string]*domain.User{
		"user-1": {
			ID:           "user-1",
			Name:         "Dana",
			Email:        "dana@example.com",
			PasswordHash: hash,
			Status:       domain.UserStatusActive,
		},
	}}
	resets := &fakeResetRepo{}
	svc := NewAuthService(AuthDependencies{
		Users:  users,
		Resets: resets,
		Tokens: auth.NewTokenManager("test-secret", 15),
		Logger: zap.NewNop(),
	})
	return svc, users, resets
}

func TestRequestPasswordResetInvalidatesPriorTokens(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	first, err := svc.RequestPasswordReset(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	second, err := svc.RequestPasswordReset(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), first, "brand-new-pass"); err == nil {
		t.Error("superseded token must be rejected")
	}
	if err := svc.ResetPassword(context.Background(), second, "brand-new-pass"); err != nil {
		t.Errorf("latest token rejected: %v", err)
	}
}

func TestResetPasswordTokenIsSingleUse(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	token, err := svc.RequestPasswordReset(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), token, "brand-new-pass"); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if !auth.CheckPassword("brand-new-pass", users.users["user-1"].PasswordHash) {
		t.Error("password was not updated")
	}
	if err := svc.ResetPassword(context.Background(), token, "another-pass"); err == nil {
		t.Error("second redemption must be rejected")
	}
}

func TestRequestPasswordResetUnknownEmailStaysQuiet(t *testing.T) {
	svc, _, resets := newAuthFixture(t)

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if token != "" {
		t.Errorf("unknown email must not mint a token, got %q", token)
	}
	if len(resets.tokens) != 0 {
		t.Errorf("stored %d tokens for unknown email", len(resets.tokens))
	}
}
