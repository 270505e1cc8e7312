package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	usercontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/user"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/session"
)

const actorLocalsKey = "actor"

// AddActorToLocals is a Fiber middleware that resolves the session into a
// fresh user record and stores it in fiber.Locals. The user is re-read from
// the database on every request so role and grant changes take effect
// immediately, not at next login.
func AddActorToLocals(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies("session")
		if sessionID == "" {
			return c.Next()
		}

		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil {
			return c.Next()
		}
		if sessData.User.ID == 0 {
			return c.Next()
		}

		actor, err := usercontroller.GetByID(db, sessData.User.ID)
		if err != nil {
			// Session points at a user that no longer exists
			log.Warn().Err(err).Uint64("user_id", sessData.User.ID).Msg("stale session")
			return c.Next()
		}

		c.Locals(actorLocalsKey, actor)

		return c.Next()
	}
}

// Actor returns the authenticated user stored in Locals, or nil when the
// request carries no valid session.
func Actor(c *fiber.Ctx) *models.User {
	actor, ok := c.Locals(actorLocalsKey).(*models.User)
	if !ok {
		return nil
	}

	return actor
}

// RequireAdmin is a Fiber middleware that rejects requests whose actor does
// not hold the administrator role.
func RequireAdmin(c *fiber.Ctx) error {
	actor := Actor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	if !actor.IsAdmin() {
		log.Warn().Str("username", actor.Username).Str("uri", c.OriginalURL()).
			Msg("non-admin denied access to admin page")

		return c.Status(fiber.StatusForbidden).SendString("Forbidden: administrators only")
	}

	return c.Next()
}
