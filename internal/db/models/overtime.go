package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on all input forms and query parameters.
const DateLayout = "2006-01-02"

// Overtime represents a single overtime entry owned by one user.
// Records are immutable after creation; corrections are made by deleting a
// record and entering a new one. Minutes is the canonical additive unit, the
// hour/minute split exists for display only.
type Overtime struct {
	// ID is the unique identifier for the record.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the ID of the user who worked the overtime.
	UserID uint64 `gorm:"column:user_id;not null;index"`
	// Date is the calendar date the overtime was worked (not a timestamp).
	Date time.Time `gorm:"type:date;not null"`
	// Minutes is the duration in minutes, always greater than zero.
	Minutes int `gorm:"not null"`
	// Description is a free-text description of the work done.
	Description string `gorm:"type:text;not null"`
	// CreatedAt is the server-assigned creation timestamp in the home timezone.
	CreatedAt time.Time `gorm:"not null"`
	// User is the owning user (loaded via foreign key).
	// When a user is deleted, all their overtime records are automatically removed (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the Overtime model.
// This overrides GORM's default pluralized table naming.
func (Overtime) TableName() string {
	return "overtime"
}

// Hours returns the whole hours part of the duration for display.
func (o *Overtime) Hours() int {
	return o.Minutes / 60
}

// Mins returns the remaining minutes part of the duration for display.
func (o *Overtime) Mins() int {
	return o.Minutes % 60
}

// FormatDuration returns a duration in minutes as a "1h 30m" style string.
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
