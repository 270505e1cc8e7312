package models

import "time"

// AdminGroup records that an administrator may manage a specific group.
// Management rights are exactly the union of these grants: group membership
// alone never implies management rights, not even over the admin's own group.
type AdminGroup struct {
	// ID is the unique identifier for the grant.
	ID uint `gorm:"primaryKey"`
	// AdminID is the ID of the administrator holding the grant.
	// Combined with GroupID this forms a unique constraint, so an admin
	// cannot hold the same grant twice.
	AdminID uint64 `gorm:"column:admin_id;not null;uniqueIndex:idx_admin_group"`
	// GroupID is the ID of the managed group.
	GroupID uint `gorm:"column:group_id;not null;uniqueIndex:idx_admin_group"`
	// Admin is the associated administrator (loaded via foreign key).
	// When the admin user is deleted, their grants are automatically removed (CASCADE).
	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE"`
	// Group is the associated group (loaded via foreign key).
	// When a group is deleted, all grants for it are automatically removed (CASCADE).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the grant was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the AdminGroup model.
// This overrides GORM's default pluralized table naming.
func (AdminGroup) TableName() string {
	return "admin_groups"
}
