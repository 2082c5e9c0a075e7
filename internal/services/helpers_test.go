package services

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/internal/utils"
	"github.com/huangang/researchhub/pkg/response"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}, "test")
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{Username: username, Email: username + "@example.com", Password: hash}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProject(t *testing.T, db *gorm.DB, title string) *models.Project {
	t.Helper()
	project := &models.Project{Title: title}
	require.NoError(t, db.Create(project).Error)
	return project
}

// requireAppError asserts err is an AppError with the given HTTP status and code.
func requireAppError(t *testing.T, err error, status, code int) *response.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *response.AppError
	require.True(t, errors.As(err, &appErr), "expected *response.AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.HTTPStatus, appErr.Message)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}
