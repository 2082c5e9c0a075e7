package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/internal/utils"
	"github.com/huangang/researchhub/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetProfile(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	svc := NewUserService(db)

	profile, err := svc.GetProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	require.NotNil(t, profile.CreatedAt)
	assert.False(t, profile.CreatedAt.IsZero())

	_, err = svc.GetProfile(404)
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")
	svc := NewUserService(db)

	profile, err := svc.UpdateProfile(alice.ID, &UpdateProfileRequest{Username: "alice2", Email: "NEW@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", profile.Username)
	assert.Equal(t, "new@example.com", profile.Email)

	_, err = svc.UpdateProfile(alice.ID, &UpdateProfileRequest{Username: "bob", Email: "new@example.com"})
	requireAppError(t, err, http.StatusBadRequest, response.CodeConflict)

	_, err = svc.UpdateProfile(alice.ID, &UpdateProfileRequest{Username: "alice3", Email: "bob@example.com"})
	requireAppError(t, err, http.StatusBadRequest, response.CodeConflict)

	_, err = svc.UpdateProfile(999, &UpdateProfileRequest{Username: "ghost", Email: "ghost@example.com"})
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)

	// the failed attempts left the stored row alone
	stored, err := svc.GetProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", stored.Username)
}

func TestUserService_ChangePassword(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	svc := NewUserService(db)

	err := svc.ChangePassword(alice.ID, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	appErr := requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)
	assert.Equal(t, "current password is incorrect", appErr.Message)

	require.NoError(t, svc.ChangePassword(alice.ID, &ChangePasswordRequest{OldPassword: "password123", NewPassword: "newsecret"}))

	var stored models.User
	require.NoError(t, db.First(&stored, alice.ID).Error)
	assert.True(t, utils.CheckPassword("newsecret", stored.Password))
	assert.False(t, utils.CheckPassword("password123", stored.Password))
}

func TestUserService_UpdateProfile_UsernameLengthCountsEscapedText(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	svc := NewUserService(db)

	_, err := svc.UpdateProfile(alice.ID, &UpdateProfileRequest{Username: strings.Repeat("\"", 21), Email: "alice@example.com"})
	appErr := requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "username", appErr.Fields[0].Field)

	stored, err := svc.GetProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
}
