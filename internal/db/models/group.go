// Package models contains database model definitions.
package models

import "time"

// Group represents an organizational unit such as a team or department.
// Every user belongs to exactly one group; administrators manage the set of
// groups they have been granted via AdminGroup rows.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the unique display name of the group.
	Name string `gorm:"unique;size:100;not null"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
// This overrides GORM's default pluralized table naming.
func (Group) TableName() string {
	return "groups"
}
