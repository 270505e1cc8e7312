// Package overtime provides operations for recording overtime entries and
// aggregating per-user totals across the groups an administrator manages.
package overtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
	usercontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/user"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
)

var (
	// ErrRecordNotFound is returned when an overtime record is not found.
	ErrRecordNotFound = errors.New("overtime record not found")
	// ErrMinutesNotPositive is returned when the duration is zero or negative.
	ErrMinutesNotPositive = errors.New("minutes must be greater than zero")
	// ErrDescriptionEmpty is returned when the description is empty.
	ErrDescriptionEmpty = errors.New("description cannot be empty")
	// ErrDateRequired is returned when the date is missing.
	ErrDateRequired = errors.New("date is required")
	// ErrNotAuthorized is returned when the actor does not manage the owner's group.
	ErrNotAuthorized = errors.New("not authorized for this group")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

type (
	// Filter narrows a summary to one group and/or an inclusive date range.
	// A zero GroupID means no group filter; nil bounds are unconstrained.
	Filter struct {
		GroupID uint
		Start   *time.Time
		End     *time.Time
	}

	// SummaryRow is one user's aggregated total within a summary.
	SummaryRow struct {
		UserID       uint64
		Username     string
		GroupName    string
		TotalMinutes int
	}
)

// Create records a new overtime entry for the given user. The creation
// timestamp is server-assigned in the home timezone; the record is immutable
// afterwards.
func Create(db *gorm.DB, userID uint64, date time.Time, minutes int, description string) (*models.Overtime, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if date.IsZero() {
		return nil, ErrDateRequired
	}
	if minutes <= 0 {
		return nil, ErrMinutesNotPositive
	}
	if description == "" {
		return nil, ErrDescriptionEmpty
	}

	record := &models.Overtime{
		UserID:      userID,
		Date:        date,
		Minutes:     minutes,
		Description: description,
		CreatedAt:   models.Now(),
	}

	result := db.Create(record)
	if result.Error != nil {
		return nil, result.Error
	}

	log.Info().
		Uint64("userID", userID).
		Str("date", date.Format(models.DateLayout)).
		Int("minutes", minutes).
		Msg("overtime recorded")

	return record, nil
}

// ForUser returns all overtime records of one user, most recent first,
// together with the total minutes across them.
func ForUser(db *gorm.DB, userID uint64) ([]models.Overtime, int, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	var records []models.Overtime
	result := db.Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&records)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	total := 0
	for _, r := range records {
		total += r.Minutes
	}

	return records, total, nil
}

// Delete removes a single overtime record. A non-nil actor must manage the
// group of the record's owner. The removed record is returned with the owner
// loaded so callers can render what was deleted.
func Delete(db *gorm.DB, actor *models.User, id uint64) (*models.Overtime, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var record models.Overtime
	result := db.Preload("User").First(&record, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}

	if err := checkScope(db, actor, record.User.GroupID); err != nil {
		return nil, err
	}

	if err := db.Delete(&models.Overtime{}, id).Error; err != nil {
		return nil, err
	}

	log.Info().
		Str("actor", actorName(actor)).
		Str("owner", record.User.Username).
		Str("date", record.Date.Format(models.DateLayout)).
		Int("minutes", record.Minutes).
		Msg("overtime record deleted")

	return &record, nil
}

// Summary aggregates overtime per user across the groups the actor manages.
// A group filter is applied only when the actor manages that group, otherwise
// it is ignored. Users without matching records appear with a zero total.
// Rows are ordered by username ascending. A nil actor (operator tooling)
// aggregates across all groups.
func Summary(db *gorm.DB, actor *models.User, filter Filter) ([]SummaryRow, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	scope, err := scopeGroupIDs(db, actor)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return nil, nil
	}

	if filter.GroupID != 0 {
		for _, id := range scope {
			if id == filter.GroupID {
				scope = []uint{filter.GroupID}
				break
			}
		}
	}

	// Date bounds go into the join side so users without matching records
	// still show up with a zero total.
	sums := db.Model(&models.Overtime{}).
		Select("user_id, SUM(minutes) AS total")
	if filter.Start != nil {
		sums = sums.Where("date >= ?", *filter.Start)
	}
	if filter.End != nil {
		sums = sums.Where("date <= ?", *filter.End)
	}
	sums = sums.Group("user_id")

	var rows []SummaryRow
	result := db.Model(&models.User{}).
		Select("users.id AS user_id, users.username AS username, groups.name AS group_name, COALESCE(sums.total, 0) AS total_minutes").
		Joins("JOIN groups ON groups.id = users.group_id").
		Joins("LEFT JOIN (?) AS sums ON sums.user_id = users.id", sums).
		Where("users.group_id IN ?", scope).
		Order("users.username ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// ParseRange builds the date bounds of a Filter from form input. A malformed
// bound is dropped with a warning instead of failing the whole request; the
// other bound still applies.
func ParseRange(start, end string) (Filter, []string) {
	var filter Filter
	var warnings []string

	if start != "" {
		if t, err := time.Parse(models.DateLayout, start); err == nil {
			filter.Start = &t
		} else {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid start date %q", start))
		}
	}
	if end != "" {
		if t, err := time.Parse(models.DateLayout, end); err == nil {
			filter.End = &t
		} else {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid end date %q", end))
		}
	}

	return filter, warnings
}

// scopeGroupIDs resolves the group IDs the actor may aggregate over.
func scopeGroupIDs(db *gorm.DB, actor *models.User) ([]uint, error) {
	if actor == nil {
		groups, err := groupcontroller.GetAll(db)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(groups))
		for _, g := range groups {
			ids = append(ids, g.ID)
		}
		return ids, nil
	}

	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	return usercontroller.ManagedGroupIDs(db, actor.ID)
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

	managed, err := usercontroller.ManagedGroupIDs(db, actor.ID)
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

func actorName(actor *models.User) string {
	if actor == nil {
		return "operator"
	}

	return actor.Username
}
