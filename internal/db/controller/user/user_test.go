package user

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
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

func seedGroup(t *testing.T, db *gorm.DB, name string) *models.Group {
	t.Helper()

	g := models.Group{Name: name}
	require.NoError(t, db.Create(&g).Error)

	return &g
}

// seedAdmin creates an admin user with grants over the given groups.
func seedAdmin(t *testing.T, db *gorm.DB, username string, home uint, managed ...uint) *models.User {
	t.Helper()

	u := models.User{
		Username: username,
		Password: models.HashPassword("secret"),
		Role:     models.RoleAdmin,
		GroupID:  home,
	}
	require.NoError(t, db.Create(&u).Error)
	for _, gid := range managed {
		require.NoError(t, db.Create(&models.AdminGroup{AdminID: u.ID, GroupID: gid}).Error)
	}

	return &u
}

func grantedGroupIDs(t *testing.T, db *gorm.DB, adminID uint64) []uint {
	t.Helper()

	ids, err := ManagedGroupIDs(db, adminID)
	require.NoError(t, err)

	return ids
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	eng := seedGroup(t, db, "engineering")
	mkt := seedGroup(t, db, "marketing")
	sales := seedGroup(t, db, "sales")
	admin := seedAdmin(t, db, "boss", eng.ID, eng.ID, mkt.ID)

	testCases := []struct {
		name           string
		dbParam        *gorm.DB
		actor          *models.User
		params         CreateParams
		expectedError  error
		expectedGrants []uint
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			params:        CreateParams{Username: "x", Password: "y", Role: models.RoleCommon, GroupID: eng.ID},
			expectedError: ErrDBNil,
		},
		{
			name:          "empty username",
			dbParam:       db,
			params:        CreateParams{Password: "y", Role: models.RoleCommon, GroupID: eng.ID},
			expectedError: ErrUsernameEmpty,
		},
		{
			name:          "empty password",
			dbParam:       db,
			params:        CreateParams{Username: "x", Role: models.RoleCommon, GroupID: eng.ID},
			expectedError: ErrPasswordEmpty,
		},
		{
			name:          "invalid role",
			dbParam:       db,
			params:        CreateParams{Username: "x", Password: "y", Role: "superuser", GroupID: eng.ID},
			expectedError: ErrInvalidRole,
		},
		{
			name:          "unknown group",
			dbParam:       db,
			params:        CreateParams{Username: "x", Password: "y", Role: models.RoleCommon, GroupID: 9999},
			expectedError: groupcontroller.ErrGroupNotFound,
		},
		{
			name:    "operator creates common user",
			dbParam: db,
			params:  CreateParams{Username: "john", Password: "pw", Role: models.RoleCommon, GroupID: eng.ID},
		},
		{
			name:          "duplicate username",
			dbParam:       db,
			params:        CreateParams{Username: "john", Password: "pw", Role: models.RoleCommon, GroupID: eng.ID},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name:          "actor outside target group",
			dbParam:       db,
			actor:         admin,
			params:        CreateParams{Username: "eve", Password: "pw", Role: models.RoleCommon, GroupID: sales.ID},
			expectedError: ErrNotAuthorized,
		},
		{
			name:    "actor inside target group",
			dbParam: db,
			actor:   admin,
			params:  CreateParams{Username: "jane", Password: "pw", Role: models.RoleCommon, GroupID: mkt.ID},
		},
		{
			name:    "grant set filtered to actor scope",
			dbParam: db,
			actor:   admin,
			params: CreateParams{
				Username: "deputy", Password: "pw", Role: models.RoleAdmin, GroupID: eng.ID,
				ManagedGroupIDs: []uint{eng.ID, sales.ID},
			},
			expectedGrants: []uint{eng.ID},
		},
		{
			name:    "grants ignored for common role",
			dbParam: db,
			params: CreateParams{
				Username: "plain", Password: "pw", Role: models.RoleCommon, GroupID: eng.ID,
				ManagedGroupIDs: []uint{eng.ID},
			},
			expectedGrants: []uint{},
		},
		{
			name:    "operator grant with unknown group",
			dbParam: db,
			params: CreateParams{
				Username: "ghost", Password: "pw", Role: models.RoleAdmin, GroupID: eng.ID,
				ManagedGroupIDs: []uint{9999},
			},
			expectedError: groupcontroller.ErrGroupNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := Create(tc.dbParam, tc.actor, tc.params)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, created)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, tc.params.Username, created.Username)
			assert.NotEqual(t, tc.params.Password, created.Password, "password must be stored hashed")
			assert.True(t, created.VerifyPassword(tc.params.Password))
			if tc.expectedGrants != nil {
				assert.ElementsMatch(t, tc.expectedGrants, grantedGroupIDs(t, db, created.ID))
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	eng := seedGroup(t, db, "engineering")
	mkt := seedGroup(t, db, "marketing")
	sales := seedGroup(t, db, "sales")
	admin := seedAdmin(t, db, "boss", eng.ID, eng.ID, mkt.ID)

	target, err := Create(db, nil, CreateParams{
		Username: "john", Password: "pw", Role: models.RoleCommon, GroupID: eng.ID,
	})
	require.NoError(t, err)

	t.Run("move to unmanaged group rejected", func(t *testing.T) {
		_, err := Update(db, admin, target.ID, UpdateParams{
			Username: "john", Role: models.RoleCommon, GroupID: sales.ID,
		})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("promotion stores filtered grants", func(t *testing.T) {
		updated, err := Update(db, admin, target.ID, UpdateParams{
			Username: "john", Role: models.RoleAdmin, GroupID: mkt.ID,
			ManagedGroupIDs: []uint{mkt.ID, sales.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)
		assert.Equal(t, mkt.ID, updated.GroupID)
		assert.ElementsMatch(t, []uint{mkt.ID}, grantedGroupIDs(t, db, target.ID))
	})

	t.Run("demotion revokes grants", func(t *testing.T) {
		updated, err := Update(db, admin, target.ID, UpdateParams{
			Username: "john", Role: models.RoleCommon, GroupID: mkt.ID,
			ManagedGroupIDs: []uint{mkt.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleCommon, updated.Role)
		assert.Empty(t, grantedGroupIDs(t, db, target.ID))
	})

	t.Run("username collision rejected", func(t *testing.T) {
		_, err := Create(db, nil, CreateParams{
			Username: "jane", Password: "pw", Role: models.RoleCommon, GroupID: eng.ID,
		})
		require.NoError(t, err)

		_, err = Update(db, nil, target.ID, UpdateParams{
			Username: "jane", Role: models.RoleCommon, GroupID: mkt.ID,
		})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("rename keeps own row out of uniqueness check", func(t *testing.T) {
		updated, err := Update(db, nil, target.ID, UpdateParams{
			Username: "john", Role: models.RoleCommon, GroupID: mkt.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "john", updated.Username)
	})

	t.Run("empty password keeps the old one", func(t *testing.T) {
		updated, err := Update(db, nil, target.ID, UpdateParams{
			Username: "john", Role: models.RoleCommon, GroupID: mkt.ID,
		})
		require.NoError(t, err)
		assert.True(t, updated.VerifyPassword("pw"))
	})

	t.Run("non-admin actor rejected", func(t *testing.T) {
		member, err := GetByID(db, target.ID)
		require.NoError(t, err)

		_, err = Update(db, member, target.ID, UpdateParams{
			Username: "john", Role: models.RoleCommon, GroupID: mkt.ID,
		})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	eng := seedGroup(t, db, "engineering")
	sales := seedGroup(t, db, "sales")
	admin := seedAdmin(t, db, "boss", eng.ID, eng.ID)

	target, err := Create(db, nil, CreateParams{
		Username: "john", Password: "pw", Role: models.RoleCommon, GroupID: eng.ID,
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Overtime{
		UserID: target.ID, Date: models.Today(), Minutes: 30, Description: "standby",
	}).Error)

	outsider, err := Create(db, nil, CreateParams{
		Username: "eve", Password: "pw", Role: models.RoleCommon, GroupID: sales.ID,
	})
	require.NoError(t, err)

	t.Run("self delete rejected", func(t *testing.T) {
		assert.ErrorIs(t, Delete(db, admin, admin.ID), ErrSelfDelete)
	})

	t.Run("unmanaged group rejected", func(t *testing.T) {
		assert.ErrorIs(t, Delete(db, admin, outsider.ID), ErrNotAuthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, Delete(db, admin, 9999), ErrUserNotFound)
	})

	t.Run("cascade removes records and grants", func(t *testing.T) {
		require.NoError(t, Delete(db, admin, target.ID))

		_, err := GetByID(db, target.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)

		var recordCount int64
		require.NoError(t, db.Model(&models.Overtime{}).Where("user_id = ?", target.ID).Count(&recordCount).Error)
		assert.Zero(t, recordCount)
	})
}

func TestSetPassword(t *testing.T) {
	db := setupTestDB(t)
	eng := seedGroup(t, db, "engineering")

	_, err := Create(db, nil, CreateParams{
		Username: "john", Password: "old", Role: models.RoleCommon, GroupID: eng.ID,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, SetPassword(db, "john", ""), ErrPasswordEmpty)
	assert.ErrorIs(t, SetPassword(db, "ghost", "new"), ErrUserNotFound)

	require.NoError(t, SetPassword(db, "john", "new"))

	user, err := FindByUsername(db, "john")
	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("new"))
	assert.False(t, user.VerifyPassword("old"))
}

func TestListByGroups(t *testing.T) {
	db := setupTestDB(t)
	eng := seedGroup(t, db, "engineering")
	mkt := seedGroup(t, db, "marketing")
	sales := seedGroup(t, db, "sales")

	for _, seed := range []struct {
		username string
		groupID  uint
	}{
		{"bob", eng.ID},
		{"alice", mkt.ID},
		{"carol", sales.ID},
	} {
		_, err := Create(db, nil, CreateParams{
			Username: seed.username, Password: "pw", Role: models.RoleCommon, GroupID: seed.groupID,
		})
		require.NoError(t, err)
	}

	users, err := ListByGroups(db, []uint{eng.ID, mkt.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "marketing", users[0].Group.Name)

	users, err = ListByGroups(db, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestManagedGroupNames(t *testing.T) {
	db := setupTestDB(t)
	eng := seedGroup(t, db, "engineering")
	mkt := seedGroup(t, db, "marketing")
	admin := seedAdmin(t, db, "boss", eng.ID, mkt.ID, eng.ID)

	names, err := ManagedGroupNames(db, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"engineering", "marketing"}, names)

	names, err = ManagedGroupNames(db, 9999)
	require.NoError(t, err)
	assert.Empty(t, names)
}
