// Package group provides CRUD operations for managing groups.
package group

import (
	"errors"

	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrGroupNotFound is returned when a group is not found.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupNameEmpty is returned when attempting to create a group with an empty name.
	ErrGroupNameEmpty = errors.New("group name cannot be empty")
	// ErrGroupAlreadyExists is returned when attempting to create a group that already exists.
	ErrGroupAlreadyExists = errors.New("group already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByID retrieves a group by its ID.
func GetByID(db *gorm.DB, id uint) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var group models.Group
	result := db.First(&group, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &group, nil
}

// GetByName retrieves a group by its name.
func GetByName(db *gorm.DB, name string) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrGroupNameEmpty
	}

	var group models.Group
	result := db.Where(nameQueryPattern, name).First(&group)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &group, nil
}

// GetByIDs retrieves the groups matching the given IDs.
// Every requested ID must exist, otherwise ErrGroupNotFound is returned.
func GetByIDs(db *gorm.DB, ids []uint) ([]models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var groups []models.Group
	result := db.Where("id IN ?", ids).Order("name ASC").Find(&groups)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(groups) != len(dedupe(ids)) {
		return nil, ErrGroupNotFound
	}

	return groups, nil
}

// GetAll retrieves all groups ordered by name.
func GetAll(db *gorm.DB) ([]models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var groups []models.Group
	result := db.Order("name ASC").Find(&groups)
	if result.Error != nil {
		return nil, result.Error
	}

	return groups, nil
}

// Create creates a new group in the database.
func Create(db *gorm.DB, name string) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrGroupNameEmpty
	}

	// Check if group already exists
	var existing models.Group
	result := db.Where(nameQueryPattern, name).First(&existing)
	if result.Error == nil {
		return nil, ErrGroupAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	group := &models.Group{
		Name: name,
	}

	result = db.Create(group)
	if result.Error != nil {
		return nil, result.Error
	}

	return group, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
