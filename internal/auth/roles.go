package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests that did not pass AuthMiddleware.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ActorFromContext(c) == nil {
			return apperrors.NewUnauthorized(msgNoCredentials)
		}
		return c.Next()
	}
}

// RequireAdmin lets staff and superusers through and answers everyone else with message.
func RequireAdmin(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		if actor == nil {
			return apperrors.NewUnauthorized(msgNoCredentials)
		}
		if !actor.IsAdmin() {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
