package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthDependencies wires collaborators for AuthService.
type AuthDependencies struct {
	Users         repository.UserRepository
	Staff         repository.StaffRepository
	Resets        repository.PasswordResetRepository
	Tokens        *auth.TokenManager
	ResetTokenTTL time.Duration
	Logger        *zap.Logger
}

// AuthService handles registration, login and password resets for both
// customers and staff.
type AuthService struct {
	users         repository.UserRepository
	staff         repository.StaffRepository
	resets        repository.PasswordResetRepository
	tokens        *auth.TokenManager
	resetTokenTTL time.Duration
	logger        *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	ttl := deps.ResetTokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthService{
		users:         deps.Users,
		staff:         deps.Staff,
		resets:        deps.Resets,
		tokens:        deps.Tokens,
		resetTokenTTL: ttl,
		logger:        deps.Logger,
	}
}

// RegisterUserInput captures a customer signup.
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned from successful logins.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	SubjectID string
	Subject   domain.SubjectType
	Role      *domain.StaffRole
}

// RegisterUser creates a customer account.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Name == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// LoginUser authenticates a customer and issues a token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewForbidden("account suspended")
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		SubjectID: user.ID,
		Subject:   domain.SubjectTypeUser,
	}, nil
}

// LoginStaff authenticates a staff member and issues a token carrying the role.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*AuthResult, error) {
	member, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !member.Active {
		return nil, apperrors.NewForbidden("account deactivated")
	}
	if !auth.CheckPassword(password, member.PasswordHash) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	role := member.Role
	token, expiresAt, err := s.tokens.GenerateToken(member.ID, domain.SubjectTypeStaff, &role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		SubjectID: member.ID,
		Subject:   domain.SubjectTypeStaff,
		Role:      &role,
	}, nil
}

// ChangePassword verifies the current password and sets a new one for the
// authenticated subject.
func (s *AuthService) ChangePassword(ctx context.Context, subject domain.SubjectType, subjectID, current, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	switch subject {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !auth.CheckPassword(current, user.PasswordHash) {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
	case domain.SubjectTypeStaff:
		member, err := s.staff.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !auth.CheckPassword(current, member.PasswordHash) {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		member.PasswordHash = hash
		if err := s.staff.Update(ctx, member); err != nil {
			return apperrors.MapError(err)
		}
	default:
		return apperrors.NewForbidden("password change not supported for subject")
	}

	s.logger.Info("password changed", zap.String("subject_id", subjectID))
	return nil
}

// RequestPasswordReset creates a reset token for a customer account. An
// unknown email returns the same empty success so the endpoint does not leak
// which addresses exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.Debug("password reset requested for unknown email")
		return "", nil
	}

	if err := s.resets.InvalidateActive(ctx, string(domain.SubjectTypeUser), user.ID); err != nil {
		s.logger.Warn("invalidate previous reset tokens", zap.Error(err), zap.String("user_id", user.ID))
	}
	token := &repository.PasswordResetToken{
		SubjectType: string(domain.SubjectTypeUser),
		SubjectID:   user.ID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTokenTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return "", apperrors.MapError(err)
	}

	s.logger.Info("password reset token issued", zap.String("user_id", user.ID))
	return token.Token, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid reset token")
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired")
	}

	user, err := s.users.GetByID(ctx, token.SubjectID)
	if err != nil {
		return apperrors.MapError(err)
	}

	// consume before updating the password so two concurrent confirms
	// cannot both redeem the same token
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrTokenConsumed) {
			return apperrors.NewUnauthorized("reset token expired")
		}
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}
