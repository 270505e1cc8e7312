package daemon

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
	overtimecontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/overtime"
	usercontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/user"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
	"github.com/go-overtime-admin/go-overtime-admin/internal/uniuri"
)

const seedPasswordLength = 16

// Migrate runs the schema migrations for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Group{},
		&models.User{},
		&models.AdminGroup{},
		&models.Overtime{},
	)
}

// seed ensures a usable login exists on first start. The generated password is
// printed to the log exactly once.
func seed(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		return
	}

	group, err := groupcontroller.Create(db, "default")
	if errors.Is(err, groupcontroller.ErrGroupAlreadyExists) {
		group, err = groupcontroller.GetByName(db, "default")
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to seed default group")
		return
	}

	password := uniuri.NewLen(seedPasswordLength)

	_, err = usercontroller.Create(db, nil, usercontroller.CreateParams{
		Username:        "admin",
		Password:        password,
		Role:            models.RoleAdmin,
		GroupID:         group.ID,
		ManagedGroupIDs: []uint{group.ID},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}

	log.Info().
		Str("username", "admin").
		Str("password", password).
		Msg("seeded initial admin user, change the password after first login")
}

// SeedDemo inserts demo groups, users and overtime records for trying the
// application out. The demo admin manages engineering and marketing but not
// sales, so the group-scope behavior is visible out of the box.
func SeedDemo(db *gorm.DB) error {
	groups := make(map[string]*models.Group, 3)
	for _, name := range []string{"engineering", "marketing", "sales"} {
		g, err := groupcontroller.Create(db, name)
		if errors.Is(err, groupcontroller.ErrGroupAlreadyExists) {
			g, err = groupcontroller.GetByName(db, name)
		}
		if err != nil {
			return err
		}
		groups[name] = g
	}

	demoAdmin, err := usercontroller.Create(db, nil, usercontroller.CreateParams{
		Username: "demo-admin",
		Password: "changeme",
		Role:     models.RoleAdmin,
		GroupID:  groups["engineering"].ID,
		ManagedGroupIDs: []uint{
			groups["engineering"].ID,
			groups["marketing"].ID,
		},
	})
	if err != nil {
		return err
	}

	demoUsers := []struct {
		username string
		group    string
	}{
		{"john", "engineering"},
		{"jane", "engineering"},
		{"bob", "marketing"},
		{"alice", "sales"},
	}

	users := make(map[string]*models.User, len(demoUsers))
	for _, du := range demoUsers {
		u, err := usercontroller.Create(db, nil, usercontroller.CreateParams{
			Username: du.username,
			Password: "changeme",
			Role:     models.RoleCommon,
			GroupID:  groups[du.group].ID,
		})
		if err != nil {
			return err
		}
		users[du.username] = u
	}

	records := []struct {
		username    string
		date        string
		minutes     int
		description string
	}{
		{"john", "2025-03-01", 90, "production release"},
		{"john", "2025-03-10", 45, "on-call incident"},
		{"jane", "2025-03-05", 120, "database migration"},
		{"bob", "2025-03-07", 60, "campaign launch"},
		{"alice", "2025-03-08", 30, "trade fair prep"},
	}

	for _, r := range records {
		date, err := parseDate(r.date)
		if err != nil {
			return err
		}
		if _, err := overtimecontroller.Create(db, users[r.username].ID, date, r.minutes, r.description); err != nil {
			return err
		}
	}

	log.Info().
		Str("admin", demoAdmin.Username).
		Int("users", len(users)).
		Int("records", len(records)).
		Msg("demo data seeded")

	return nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(models.DateLayout, value)
}
