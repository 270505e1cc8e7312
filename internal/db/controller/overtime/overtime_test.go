package overtime

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Migrate the schema
	err = db.AutoMigrate(&models.Group{}, &models.User{}, &models.AdminGroup{}, &models.Overtime{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func date(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(models.DateLayout, value)
	require.NoError(t, err)

	return parsed
}

func datePtr(t *testing.T, value string) *time.Time {
	t.Helper()

	parsed := date(t, value)

	return &parsed
}

// fixture seeds two groups, an admin managing only engineering, and two
// common users with a handful of records.
type fixture struct {
	eng, sales   models.Group
	admin        models.User
	bob, alice   models.User
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	f := fixture{
		eng:   models.Group{Name: "engineering"},
		sales: models.Group{Name: "sales"},
	}
	require.NoError(t, db.Create(&f.eng).Error)
	require.NoError(t, db.Create(&f.sales).Error)

	f.admin = models.User{Username: "boss", Password: "x", Role: models.RoleAdmin, GroupID: f.eng.ID}
	f.bob = models.User{Username: "bob", Password: "x", Role: models.RoleCommon, GroupID: f.eng.ID}
	f.alice = models.User{Username: "alice", Password: "x", Role: models.RoleCommon, GroupID: f.sales.ID}
	for _, u := range []*models.User{&f.admin, &f.bob, &f.alice} {
		require.NoError(t, db.Create(u).Error)
	}
	require.NoError(t, db.Create(&models.AdminGroup{AdminID: f.admin.ID, GroupID: f.eng.ID}).Error)

	records := []models.Overtime{
		{UserID: f.bob.ID, Date: date(t, "2025-03-01"), Minutes: 90, Description: "release"},
		{UserID: f.bob.ID, Date: date(t, "2025-03-10"), Minutes: 45, Description: "oncall"},
		{UserID: f.bob.ID, Date: date(t, "2025-04-02"), Minutes: 60, Description: "migration"},
		{UserID: f.alice.ID, Date: date(t, "2025-03-05"), Minutes: 120, Description: "fair"},
	}
	for i := range records {
		records[i].CreatedAt = models.Now()
		require.NoError(t, db.Create(&records[i]).Error)
	}

	return f
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		date          time.Time
		minutes       int
		description   string
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			date:          date(t, "2025-05-01"),
			minutes:       30,
			description:   "x",
			expectedError: ErrDBNil,
		},
		{
			name:          "missing date",
			dbParam:       db,
			minutes:       30,
			description:   "x",
			expectedError: ErrDateRequired,
		},
		{
			name:          "zero minutes",
			dbParam:       db,
			date:          date(t, "2025-05-01"),
			description:   "x",
			expectedError: ErrMinutesNotPositive,
		},
		{
			name:          "negative minutes",
			dbParam:       db,
			date:          date(t, "2025-05-01"),
			minutes:       -15,
			description:   "x",
			expectedError: ErrMinutesNotPositive,
		},
		{
			name:          "empty description",
			dbParam:       db,
			date:          date(t, "2025-05-01"),
			minutes:       30,
			expectedError: ErrDescriptionEmpty,
		},
		{
			name:        "success",
			dbParam:     db,
			date:        date(t, "2025-05-01"),
			minutes:     30,
			description: "weekend deploy",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := Create(tc.dbParam, f.bob.ID, tc.date, tc.minutes, tc.description)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, record)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, record)
			assert.NotZero(t, record.ID)
			assert.False(t, record.CreatedAt.IsZero())
		})
	}
}

func TestForUser(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	records, total, err := ForUser(db, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 195, total)
	// Most recent first
	assert.Equal(t, "migration", records[0].Description)
	assert.Equal(t, "oncall", records[1].Description)
	assert.Equal(t, "release", records[2].Description)

	records, total, err = ForUser(db, 9999)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, total)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	var aliceRecord, bobRecord models.Overtime
	require.NoError(t, db.Where("user_id = ?", f.alice.ID).First(&aliceRecord).Error)
	require.NoError(t, db.Where("user_id = ?", f.bob.ID).First(&bobRecord).Error)

	t.Run("unknown record", func(t *testing.T) {
		_, err := Delete(db, &f.admin, 9999)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("owner in unmanaged group rejected", func(t *testing.T) {
		_, err := Delete(db, &f.admin, aliceRecord.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("non-admin actor rejected", func(t *testing.T) {
		_, err := Delete(db, &f.bob, bobRecord.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("managed group succeeds", func(t *testing.T) {
		removed, err := Delete(db, &f.admin, bobRecord.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", removed.User.Username)

		var count int64
		require.NoError(t, db.Model(&models.Overtime{}).Where("id = ?", bobRecord.ID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestSummary(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	totals := func(rows []SummaryRow) map[string]int {
		out := make(map[string]int, len(rows))
		for _, r := range rows {
			out[r.Username] = r.TotalMinutes
		}
		return out
	}

	t.Run("managed scope only", func(t *testing.T) {
		rows, err := Summary(db, &f.admin, Filter{})
		require.NoError(t, err)
		// Engineering has the admin and bob; alice's sales group is not managed.
		assert.Equal(t, map[string]int{"boss": 0, "bob": 195}, totals(rows))
	})

	t.Run("rows ordered by username", func(t *testing.T) {
		rows, err := Summary(db, nil, Filter{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "alice", rows[0].Username)
		assert.Equal(t, "bob", rows[1].Username)
		assert.Equal(t, "boss", rows[2].Username)
		assert.Equal(t, "sales", rows[0].GroupName)
	})

	t.Run("date range restricts the join not the user set", func(t *testing.T) {
		rows, err := Summary(db, &f.admin, Filter{
			Start: datePtr(t, "2025-03-01"),
			End:   datePtr(t, "2025-03-31"),
		})
		require.NoError(t, err)
		// Bob keeps only the two March records; boss still appears with zero.
		assert.Equal(t, map[string]int{"boss": 0, "bob": 135}, totals(rows))
	})

	t.Run("inclusive bounds", func(t *testing.T) {
		rows, err := Summary(db, &f.admin, Filter{
			Start: datePtr(t, "2025-03-10"),
			End:   datePtr(t, "2025-03-10"),
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"boss": 0, "bob": 45}, totals(rows))
	})

	t.Run("unmanaged group filter silently ignored", func(t *testing.T) {
		rows, err := Summary(db, &f.admin, Filter{GroupID: f.sales.ID})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"boss": 0, "bob": 195}, totals(rows))
	})

	t.Run("managed group filter applied", func(t *testing.T) {
		rows, err := Summary(db, nil, Filter{GroupID: f.sales.ID})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"alice": 120}, totals(rows))
	})

	t.Run("admin without grants sees nothing", func(t *testing.T) {
		bare := models.User{Username: "newbie", Password: "x", Role: models.RoleAdmin, GroupID: f.eng.ID}
		require.NoError(t, db.Create(&bare).Error)

		rows, err := Summary(db, &bare, Filter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("non-admin actor rejected", func(t *testing.T) {
		_, err := Summary(db, &f.bob, Filter{})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestParseRange(t *testing.T) {
	testCases := []struct {
		name          string
		start, end    string
		expectStart   bool
		expectEnd     bool
		warningCount  int
	}{
		{
			name: "both empty",
		},
		{
			name:        "both valid",
			start:       "2025-03-01",
			end:         "2025-03-31",
			expectStart: true,
			expectEnd:   true,
		},
		{
			name:         "malformed start keeps valid end",
			start:        "03/01/2025",
			end:          "2025-03-31",
			expectEnd:    true,
			warningCount: 1,
		},
		{
			name:         "malformed end keeps valid start",
			start:        "2025-03-01",
			end:          "soon",
			expectStart:  true,
			warningCount: 1,
		},
		{
			name:         "both malformed",
			start:        "yesterday",
			end:          "tomorrow",
			warningCount: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filter, warnings := ParseRange(tc.start, tc.end)

			assert.Equal(t, tc.expectStart, filter.Start != nil)
			assert.Equal(t, tc.expectEnd, filter.End != nil)
			assert.Len(t, warnings, tc.warningCount)
		})
	}
}
