package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	usercontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/user"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
)

// Service provides authentication and authorization functionality.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Authenticate verifies a username and password against the local database.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	var user models.User

	err := s.db.Preload("Group").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// ManagedGroupIDs returns the IDs of the groups the actor may act on.
// Non-admins manage nothing; admins manage exactly the groups of their grants.
func (s *Service) ManagedGroupIDs(actor *models.User) ([]uint, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, nil
	}

	return usercontroller.ManagedGroupIDs(s.db, actor.ID)
}

// CanManage reports whether the actor may act on the given group. Only admins
// holding an explicit grant for the group qualify; membership is irrelevant.
func (s *Service) CanManage(actor *models.User, groupID uint) (bool, error) {
	if actor == nil || !actor.IsAdmin() {
		return false, nil
	}

	var count int64
	err := s.db.Model(&models.AdminGroup{}).
		Where("admin_id = ? AND group_id = ?", actor.ID, groupID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check grant: %w", err)
	}

	return count > 0, nil
}
