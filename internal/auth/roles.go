package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequireUser ensures the caller is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequirePrivileged ensures the caller passes the admin-ish gate.
func RequirePrivileged() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.Privileged() {
			return apperrors.NewForbidden("privileged role required")
		}
		return c.Next()
	}
}

// RequireSuperuser ensures the caller holds the top-level override.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsSuperuser {
			return apperrors.NewForbidden("superuser required")
		}
		return c.Next()
	}
}
