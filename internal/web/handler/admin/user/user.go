// Package user provides handlers for managing users (CRUD) in the admin area.
package user

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/auth"
	"github.com/go-overtime-admin/go-overtime-admin/internal/config"
	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
	overtimecontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/overtime"
	usercontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/user"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/handler/dashboard"
	"github.com/go-overtime-admin/go-overtime-admin/internal/web/navigation"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/user"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
	// TemplateForm is the template for creating/updating a user.
	TemplateForm = "admin/user/form"
	// TemplateDetail is the template for the per-user record view.
	TemplateDetail = "admin/user/detail"
)

// userForm holds a submitted create/edit user form. The managed_groups field
// is multi-valued and only meaningful for the admin role.
type userForm struct {
	Username        string `form:"username" validate:"required"`
	Password        string `form:"password"`
	Role            string `form:"role"     validate:"required,oneof=admin common"`
	GroupID         uint   `form:"group_id" validate:"required"`
	ManagedGroupIDs []uint `form:"managed_groups"`
}

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	validator   *validator.Validate
	authService *auth.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()
	s.authService = authService

	// Routes. The literal /new route must come before the :id routes.
	app.Get(Path, auth.RequireAdmin, s.List)
	app.Get(Path+"/new", auth.RequireAdmin, s.New)
	app.Post(Path, auth.RequireAdmin, s.Create)
	app.Get(Path+"/:id/edit", auth.RequireAdmin, s.Edit)
	app.Get(Path+"/:id", auth.RequireAdmin, s.Detail)
	app.Post(Path+"/:id/delete", auth.RequireAdmin, s.Delete)
	app.Post(Path+"/:id/record/:recordID/delete", auth.RequireAdmin, s.DeleteRecord)
	app.Post(Path+"/:id", auth.RequireAdmin, s.Update)
}

// List shows all users in the groups the actor manages.
func (s *Service) List(c *fiber.Ctx) error {
	return s.renderList(c, "")
}

// New shows the empty user form.
func (s *Service) New(c *fiber.Ctx) error {
	return s.renderForm(c, &userForm{Role: string(models.RoleCommon)}, 0, "")
}

// Create handles the user creation form submission.
func (s *Service) Create(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	f := new(userForm)
	if err := c.BodyParser(f); err != nil {
		return s.renderForm(c, f, 0, "invalid form data")
	}

	if err := s.validator.Struct(f); err != nil {
		return s.renderForm(c, f, 0, "username, role and group are required")
	}

	_, err := usercontroller.Create(s.db, actor, usercontroller.CreateParams{
		Username:        f.Username,
		Password:        f.Password,
		Role:            models.Role(f.Role),
		GroupID:         f.GroupID,
		ManagedGroupIDs: f.ManagedGroupIDs,
	})
	if err != nil {
		return s.renderForm(c, f, 0, errorMessage(err))
	}

	return c.Redirect(Path)
}

// Edit shows the form pre-filled with an existing user.
func (s *Service) Edit(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	user, status := s.loadManagedUser(c, actor)
	if user == nil {
		return status
	}

	grants, err := usercontroller.ManagedGroupIDs(s.db, user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to load grants")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	f := &userForm{
		Username:        user.Username,
		Role:            string(user.Role),
		GroupID:         user.GroupID,
		ManagedGroupIDs: grants,
	}

	return s.renderForm(c, f, user.ID, "")
}

// Update handles the user edit form submission.
func (s *Service) Update(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Bad Request")
	}

	f := new(userForm)
	if err := c.BodyParser(f); err != nil {
		return s.renderForm(c, f, id, "invalid form data")
	}

	if err := s.validator.Struct(f); err != nil {
		return s.renderForm(c, f, id, "username, role and group are required")
	}

	_, err = usercontroller.Update(s.db, actor, id, usercontroller.UpdateParams{
		Username:        f.Username,
		Password:        f.Password,
		Role:            models.Role(f.Role),
		GroupID:         f.GroupID,
		ManagedGroupIDs: f.ManagedGroupIDs,
	})
	if err != nil {
		return s.renderForm(c, f, id, errorMessage(err))
	}

	return c.Redirect(Path)
}

// Delete removes a user together with their records and grants.
func (s *Service) Delete(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Bad Request")
	}

	if err := usercontroller.Delete(s.db, actor, id); err != nil {
		return s.renderList(c, errorMessage(err))
	}

	return c.Redirect(Path)
}

// Detail shows one user's overtime records with their total.
func (s *Service) Detail(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	user, status := s.loadManagedUser(c, actor)
	if user == nil {
		return status
	}

	records, total, err := overtimecontroller.ForUser(s.db, user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to load overtime records")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	nav := navigation.NewContext(user.Username, "admin", "user").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Users", Path, false).
		AddBreadcrumb(user.Username, Path+"/"+strconv.FormatUint(user.ID, 10), true)

	return c.Render(TemplateDetail, fiber.Map{
		"Navigation":   nav,
		"Actor":        actor,
		"User":         user,
		"Records":      records,
		"TotalMinutes": total,
		"Total":        models.FormatDuration(total),
	}, handler.BaseLayout)
}

// DeleteRecord removes a single overtime record of a managed user.
func (s *Service) DeleteRecord(c *fiber.Ctx) error {
	actor := auth.Actor(c)

	recordID, err := strconv.ParseUint(c.Params("recordID"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Bad Request")
	}

	if _, err := overtimecontroller.Delete(s.db, actor, recordID); err != nil {
		if errors.Is(err, overtimecontroller.ErrNotAuthorized) {
			return c.Status(fiber.StatusForbidden).SendString("Forbidden")
		}
		if errors.Is(err, overtimecontroller.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Not Found")
		}

		log.Error().Err(err).Uint64("record_id", recordID).Msg("failed to delete record")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	return c.Redirect(Path + "/" + c.Params("id"))
}

// loadManagedUser resolves the :id parameter into a user the actor manages.
// On failure it returns nil and the already-written error response.
func (s *Service) loadManagedUser(c *fiber.Ctx, actor *models.User) (*models.User, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).SendString("Bad Request")
	}

	user, err := usercontroller.GetByID(s.db, id)
	if err != nil {
		if errors.Is(err, usercontroller.ErrUserNotFound) {
			return nil, c.Status(fiber.StatusNotFound).SendString("Not Found")
		}

		log.Error().Err(err).Uint64("user_id", id).Msg("failed to load user")

		return nil, c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	ok, err := s.authService.CanManage(actor, user.GroupID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", id).Msg("failed to check grant")

		return nil, c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	if !ok {
		log.Warn().Str("actor", actor.Username).Str("target", user.Username).
			Msg("denied access to user outside managed groups")

		return nil, c.Status(fiber.StatusForbidden).SendString("Forbidden")
	}

	return user, nil
}

// renderList shows the users of all managed groups.
func (s *Service) renderList(c *fiber.Ctx, errorMessage string) error {
	actor := auth.Actor(c)

	nav := navigation.NewContext("Users", "admin", "user").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Users", Path, true)

	managedIDs, err := s.authService.ManagedGroupIDs(actor)
	if err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to load managed groups")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	users, err := usercontroller.ListByGroups(s.db, managedIDs)
	if err != nil {
		log.Error().Err(err).Str("username", actor.Username).Msg("failed to list users")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Actor":      actor,
		"Users":      users,
		"error":      errorMessage,
	}, handler.BaseLayout)
}

// renderForm shows the create/edit form. A zero id means create.
func (s *Service) renderForm(c *fiber.Ctx, f *userForm, id uint64, errorMessage string) error {
	actor := auth.Actor(c)

	title := "New User"
	if id != 0 {
		title = "Edit User"
	}

	nav := navigation.NewContext(title, "admin", "user").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Users", Path, false).
		AddBreadcrumb(title, "#", true)

	// Only managed groups are offered, both as home group and as grants
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

	granted := make(map[uint]bool, len(f.ManagedGroupIDs))
	for _, gid := range f.ManagedGroupIDs {
		granted[gid] = true
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Actor":      actor,
		"Form":       f,
		"UserID":     id,
		"Groups":     groups,
		"Granted":    granted,
		"error":      errorMessage,
	}, handler.BaseLayout)
}

// errorMessage maps controller sentinels to the inline message shown to the user.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, usercontroller.ErrUserAlreadyExists):
		return "username is already taken"
	case errors.Is(err, usercontroller.ErrPasswordEmpty):
		return "password is required"
	case errors.Is(err, usercontroller.ErrNotAuthorized):
		return "you do not manage this group"
	case errors.Is(err, usercontroller.ErrSelfDelete):
		return "you cannot delete your own account"
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, groupcontroller.ErrGroupNotFound):
		return "group not found"
	default:
		log.Error().Err(err).Msg("user management failed")
		return "internal server error"
	}
}
