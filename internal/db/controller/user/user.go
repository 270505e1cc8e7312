// Package user provides CRUD operations for managing user accounts and
// their group management grants.
//
// Privileged operations take an actor. A non-nil actor is checked against
// its grants (the target's group must be managed by the actor). A nil actor
// means operator tooling; group-scope checks do not apply, but existence and
// uniqueness checks still do.
package user

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
)

const (
	usernameQueryPattern = "username = ?"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameEmpty is returned when attempting to create a user with an empty username.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrPasswordEmpty is returned when attempting to create a user with an empty password.
	ErrPasswordEmpty = errors.New("password cannot be empty")
	// ErrUserAlreadyExists is returned when the username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidRole is returned when the role is not a known role.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotAuthorized is returned when the actor does not manage the target's group.
	ErrNotAuthorized = errors.New("not authorized for this group")
	// ErrSelfDelete is returned when a user attempts to delete their own account.
	ErrSelfDelete = errors.New("cannot delete your own account")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

type (
	// CreateParams holds the fields for creating a new user.
	CreateParams struct {
		Username string
		Password string
		Role     models.Role
		GroupID  uint
		// ManagedGroupIDs are the group management grants for admin users.
		// Ignored when Role is not admin.
		ManagedGroupIDs []uint
	}

	// UpdateParams holds the fields for updating an existing user.
	// An empty Password keeps the current password.
	UpdateParams struct {
		Username        string
		Password        string
		Role            models.Role
		GroupID         uint
		ManagedGroupIDs []uint
	}
)

// ManagedGroupIDs returns the IDs of the groups the given admin has been
// granted management over. Returns an empty slice when the user holds no grants.
func ManagedGroupIDs(db *gorm.DB, adminID uint64) ([]uint, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var ids []uint
	result := db.Model(&models.AdminGroup{}).
		Where("admin_id = ?", adminID).
		Order("group_id ASC").
		Pluck("group_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

// ManagedGroupNames returns the names of the groups the given admin manages,
// ordered alphabetically.
func ManagedGroupNames(db *gorm.DB, adminID uint64) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var names []string
	result := db.Model(&models.AdminGroup{}).
		Joins("JOIN groups ON groups.id = admin_groups.group_id").
		Where("admin_groups.admin_id = ?", adminID).
		Order("groups.name ASC").
		Pluck("groups.name", &names)
	if result.Error != nil {
		return nil, result.Error
	}

	return names, nil
}

// GetByID retrieves a user by ID with the group association loaded.
func GetByID(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var user models.User
	result := db.Preload("Group").First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &user, nil
}

// FindByUsername retrieves a user by username with the group association loaded.
func FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	var user models.User
	result := db.Preload("Group").Where(usernameQueryPattern, username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &user, nil
}

// GetAll retrieves all users ordered by username, with group associations loaded.
func GetAll(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	result := db.Preload("Group").Order("username ASC").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// ListByGroups retrieves all users belonging to any of the given groups,
// ordered by username. An empty group list yields an empty result.
func ListByGroups(db *gorm.DB, groupIDs []uint) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}

	var users []models.User
	result := db.Preload("Group").
		Where("group_id IN ?", groupIDs).
		Order("username ASC").
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// Create creates a new user. The target group must exist and, for a non-nil
// actor, be within the actor's managed scope. Management grants are only
// stored for admin users; for a non-nil actor the submitted grant set is
// filtered to the actor's own managed groups.
func Create(db *gorm.DB, actor *models.User, p CreateParams) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if p.Username == "" {
		return nil, ErrUsernameEmpty
	}
	if p.Password == "" {
		return nil, ErrPasswordEmpty
	}
	if !p.Role.Valid() {
		return nil, ErrInvalidRole
	}

	// Check if username is already taken
	var existing models.User
	result := db.Where(usernameQueryPattern, p.Username).First(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	if _, err := groupcontroller.GetByID(db, p.GroupID); err != nil {
		return nil, err
	}

	grantIDs, err := resolveGrants(db, actor, p.Role, p.GroupID, p.ManagedGroupIDs)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: p.Username,
		Password: models.HashPassword(p.Password),
		Role:     p.Role,
		GroupID:  p.GroupID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return replaceGrants(tx, user.ID, grantIDs)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("actor", actorName(actor)).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Uint("groupID", user.GroupID).
		Uints("managedGroupIDs", grantIDs).
		Msg("user created")

	return user, nil
}

// Update modifies an existing user. For a non-nil actor, both the user's
// current group and the new group must be within the actor's managed scope.
// Grants are replaced wholesale for admin users; when the role changes to
// common, all existing grants are revoked in the same transaction. An empty
// password keeps the current one.
func Update(db *gorm.DB, actor *models.User, id uint64, p UpdateParams) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if p.Username == "" {
		return nil, ErrUsernameEmpty
	}
	if !p.Role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	// The actor needs management rights over the group the user is in now
	// and, when the user is being moved, over the destination group too.
	if err := checkScope(db, actor, user.GroupID); err != nil {
		return nil, err
	}
	if p.GroupID != user.GroupID {
		if err := checkScope(db, actor, p.GroupID); err != nil {
			return nil, err
		}
	}

	// Username uniqueness, excluding the user's own row
	var existing models.User
	result := db.Where("username = ? AND id <> ?", p.Username, id).First(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	if _, err := groupcontroller.GetByID(db, p.GroupID); err != nil {
		return nil, err
	}

	grantIDs, err := resolveGrants(db, actor, p.Role, p.GroupID, p.ManagedGroupIDs)
	if err != nil {
		return nil, err
	}

	user.Username = p.Username
	user.Role = p.Role
	user.GroupID = p.GroupID
	if p.Password != "" {
		user.Password = models.HashPassword(p.Password)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return replaceGrants(tx, user.ID, grantIDs)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("actor", actorName(actor)).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Uint("groupID", user.GroupID).
		Uints("managedGroupIDs", grantIDs).
		Msg("user updated")

	return user, nil
}

// SetPassword replaces the password of the named user.
func SetPassword(db *gorm.DB, username, password string) error {
	if db == nil {
		return ErrDBNil
	}
	if password == "" {
		return ErrPasswordEmpty
	}

	user, err := FindByUsername(db, username)
	if err != nil {
		return err
	}

	user.Password = models.HashPassword(password)
	if err := db.Save(user).Error; err != nil {
		return err
	}

	log.Info().Str("username", username).Msg("password changed")

	return nil
}

// Delete removes a user together with their overtime records and grants in
// one transaction. A non-nil actor must manage the target's group and may
// not delete their own account.
func Delete(db *gorm.DB, actor *models.User, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	user, err := GetByID(db, id)
	if err != nil {
		return err
	}

	if actor != nil && actor.ID == user.ID {
		return ErrSelfDelete
	}
	if err := checkScope(db, actor, user.GroupID); err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Overtime{}).Error; err != nil {
			return err
		}
		if err := tx.Where("admin_id = ?", id).Delete(&models.AdminGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("actor", actorName(actor)).
		Str("username", user.Username).
		Msg("user deleted")

	return nil
}

// checkScope verifies the actor may act on the given group. A nil actor is
// operator tooling and passes unconditionally.
func checkScope(db *gorm.DB, actor *models.User, groupID uint) error {
	if actor == nil {
		return nil
	}
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	managed, err := ManagedGroupIDs(db, actor.ID)
	if err != nil {
		return err
	}
	for _, id := range managed {
		if id == groupID {
			return nil
		}
	}

	return ErrNotAuthorized
}

// resolveGrants validates the target group against the actor's scope and
// returns the grant set to store. Non-admin roles never hold grants. For a
// non-nil actor the submitted set is silently reduced to the actor's own
// managed groups so a grant can never exceed the granting admin's scope.
func resolveGrants(db *gorm.DB, actor *models.User, role models.Role, groupID uint, requested []uint) ([]uint, error) {
	if err := checkScope(db, actor, groupID); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin {
		return nil, nil
	}

	if actor == nil {
		// Operator tooling grants whatever it asks for, as long as the groups exist.
		if _, err := groupcontroller.GetByIDs(db, requested); err != nil {
			return nil, err
		}
		return requested, nil
	}

	managed, err := ManagedGroupIDs(db, actor.ID)
	if err != nil {
		return nil, err
	}
	managedSet := make(map[uint]struct{}, len(managed))
	for _, id := range managed {
		managedSet[id] = struct{}{}
	}

	granted := make([]uint, 0, len(requested))
	seen := make(map[uint]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := managedSet[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		granted = append(granted, id)
	}

	return granted, nil
}

// replaceGrants swaps the user's grant rows for the given set inside the
// caller's transaction.
func replaceGrants(tx *gorm.DB, userID uint64, groupIDs []uint) error {
	if err := tx.Where("admin_id = ?", userID).Delete(&models.AdminGroup{}).Error; err != nil {
		return err
	}
	for _, gid := range groupIDs {
		grant := models.AdminGroup{AdminID: userID, GroupID: gid}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
	}

	return nil
}

func actorName(actor *models.User) string {
	if actor == nil {
		return "operator"
	}

	return actor.Username
}
