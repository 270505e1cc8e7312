// Package logout provides the logout handler.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/config"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler/login"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/session"
)

const (
	// Path is the path to the logout endpoint.
	Path = "/logout"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path, s.Get)

	return nil
}

// Get removes the stored session and clears the cookie.
func (s *Service) Get(c *fiber.Ctx) error {
	sessionID := c.Cookies("session")
	if sessionID != "" {
		if err := session.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.ClearCookie("session")

	return c.Redirect(login.Path)
}
