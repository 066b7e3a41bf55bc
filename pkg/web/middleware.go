package web

import (
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/gofiber/fiber/v3"
)

type contextKey string

const userKey contextKey = "user"

// RequireUser rejects requests without a valid bearer token and stores the authenticated user
// in the request locals.
func (h *APIHandlers) RequireUser(c fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return unauthorized(c, "Authentication required")
	}

	user, err := h.authService.Verify(c.Context(), strings.TrimSpace(token))
	if err != nil {
		return unauthorized(c, "Invalid or expired token")
	}

	c.Locals(userKey, user)

	return c.Next()
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)

	return user
}
