// Package dashboard provides the dashboard handler where users record and
// review their own overtime.
package dashboard

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/auth"
	"github.com/go-overtime-admin/go-overtime-admin/internal/config"
	overtimecontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/overtime"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"
)

// entryForm holds a submitted overtime entry.
type entryForm struct {
	Date        string `form:"date"        validate:"required"`
	Minutes     int    `form:"minutes"     validate:"required,gt=0"`
	Description string `form:"description" validate:"required"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	actor := auth.Actor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	return s.render(c, actor, "")
}

// Post handles an overtime entry submission.
func (s *Service) Post(c *fiber.Ctx) error {
	actor := auth.Actor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	f := new(entryForm)
	if err := c.BodyParser(f); err != nil {
		return s.render(c, actor, "invalid form data")
	}

	if err := s.validator.Struct(f); err != nil {
		return s.render(c, actor, validationMessage(err))
	}

	date, err := time.Parse(models.DateLayout, f.Date)
	if err != nil {
		return s.render(c, actor, "date must be in YYYY-MM-DD format")
	}

	if _, err := overtimecontroller.Create(s.db, actor.ID, date, f.Minutes, f.Description); err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to record overtime")
		return s.render(c, actor, err.Error())
	}

	return c.Redirect(Path)
}

// render shows the entry form together with the actor's record history.
func (s *Service) render(c *fiber.Ctx, actor *models.User, errorMessage string) error {
	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true)

	records, total, err := overtimecontroller.ForUser(s.db, actor.ID)
	if err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to load overtime records")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation":   nav,
		"Actor":        actor,
		"Records":      records,
		"TotalMinutes": total,
		"Total":        models.FormatDuration(total),
		"Today":        models.Today().Format(models.DateLayout),
		"error":        errorMessage,
	}, handler.BaseLayout)
}

// validationMessage maps a validator error to the inline message shown to the user.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid form data"
	}

	switch verrs[0].Field() {
	case "Date":
		return "date is required"
	case "Minutes":
		return "minutes must be a whole number greater than zero"
	case "Description":
		return "description is required"
	default:
		return "invalid form data"
	}
}
