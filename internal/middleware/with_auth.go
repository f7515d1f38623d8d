package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/induction-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// AdminOnly rejects non-admin sessions.
	AdminOnly bool
	// OwnerParam names a route parameter holding a user id; the caller must
	// be that user or an admin.
	OwnerParam string
}

// WithAuth wraps a handler with session, role and ownership guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	ownerParam := strings.TrimSpace(opts.OwnerParam)

	return func(c *fiber.Ctx) error {
		session, ok := GetSession(c)
		if !ok || session.UserID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if opts.AdminOnly && !session.IsAdmin() {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		if ownerParam != "" {
			raw := strings.TrimSpace(c.Params(ownerParam))
			ownerID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || ownerID == 0 {
				return utils.SendError(c, fiber.StatusBadRequest, "invalid "+ownerParam)
			}
			if !session.CanAccessUser(uint(ownerID)) {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return handler(c)
	}
}
