// Package summary provides the admin overview of aggregated overtime per user.
package summary

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/auth"
	"github.com/go-overtime-admin/go-overtime-admin/internal/config"
	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
	overtimecontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/overtime"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler/dashboard"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/navigation"
)

const (
	// Path is the path to the summary page.
	Path = handler.RootPath + "admin/summary"

	// TemplateName is the name of the summary template.
	TemplateName = "admin/summary"
)

// Service is the summary handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the summary handler.
var Handler = Service{}

// Init initializes the summary handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.authService = authService

	app.Get(Path, auth.RequireAdmin, s.Get)
}

// Get renders the per-user overtime totals across the actor's managed groups,
// optionally narrowed by group and date range.
func (s *Service) Get(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	nav := navigation.NewContext("Summary", "admin", "summary").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Summary", Path, true)

	start := c.Query("start", "")
	end := c.Query("end", "")

	filter, warnings := overtimecontroller.ParseRange(start, end)
	filter.GroupID = uint(c.QueryInt("group", 0))

	rows, err := overtimecontroller.Summary(s.db, actor, filter)
	if err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to build summary")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	// Managed groups feed the filter dropdown
	managedIDs, err := s.authService.ManagedGroupIDs(actor)
	if err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to load managed groups")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	groups, err := groupcontroller.GetByIDs(s.db, managedIDs)
	if err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to load groups")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation":    nav,
		"Actor":         actor,
		"Rows":          rows,
		"Groups":        groups,
		"SelectedGroup": filter.GroupID,
		"Start":         start,
		"End":           end,
		"Warnings":      warnings,
	}, handler.BaseLayout)
}
