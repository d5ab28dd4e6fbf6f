package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Context keys set by the middleware.
const (
	CtxSubjectID = "auth_subject_id"
	CtxSubject   = "auth_subject"
	CtxRole      = "auth_role"
)

// RequireAuth validates the bearer token and stores claims on the request context.
func RequireAuth(tm *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("malformed authorization header")
		}

		claims, err := tm.ParseToken(parts[1])
		if err != nil {
			return apperrors.NewUnauthorized("invalid or expired token")
		}

		c.Locals(CtxSubjectID, claims.SubjectID)
		c.Locals(CtxSubject, claims.Subject)
		if claims.Role != nil {
			c.Locals(CtxRole, *claims.Role)
		}
		return c.Next()
	}
}

// RequireSubject restricts a route to one subject type.
func RequireSubject(subject domain.SubjectType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got, ok := c.Locals(CtxSubject).(domain.SubjectType)
		if !ok || got != subject {
			return apperrors.NewForbidden("access restricted")
		}
		return c.Next()
	}
}

// RequireRole restricts a route to staff holding one of the given roles.
func RequireRole(roles ...domain.StaffRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got, ok := c.Locals(CtxRole).(domain.StaffRole)
		if !ok {
			return apperrors.NewForbidden("staff access required")
		}
		for _, role := range roles {
			if got == role {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}

// SubjectID returns the authenticated subject id from the request context.
func SubjectID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxSubjectID).(string)
	return id
}

// Role returns the authenticated staff role, if any.
func Role(c *fiber.Ctx) (domain.StaffRole, bool) {
	role, ok := c.Locals(CtxRole).(domain.StaffRole)
	return role, ok
}
