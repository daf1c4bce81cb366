package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Task{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestTask(t *testing.T, db *gorm.DB, title string, ownerID, groupID *uint64) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, Status: models.TaskStatusPending, OwnerUserID: ownerID, GroupID: groupID}
	require.NoError(t, db.Create(task).Error)
	return task
}

func ptr[T any](v T) *T {
	return &v
}

var ctx = context.Background()
