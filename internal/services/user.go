package services

import (
	"time"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/internal/utils"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

func (s *UserService) GetProfile(userID uint) (*UserInfo, error) {
	return s.load(s.db, userID)
}

func (s *UserService) load(db *gorm.DB, userID uint) (*UserInfo, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, response.NewStorageError("failed to load profile", err)
	}
	info := toUserInfo(&user)
	return &info, nil
}

// UpdateProfile rewrites username and email, then returns the stored row.
func (s *UserService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*UserInfo, error) {
	username := sanitize(req.Username)
	email := normalizeEmail(req.Email)
	if username == "" || email == "" {
		return nil, response.NewBadRequest("username and email are required")
	}
	if err := checkStoredLength("username", username, maxUsernameLen); err != nil {
		return nil, err
	}

	var profile *UserInfo
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"username":   username,
			"email":      email,
			"updated_at": time.Now(),
		})
		if result.Error != nil {
			if isDuplicate(result.Error) {
				return response.NewConflict("username or email already in use")
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return response.NewNotFound("user not found")
		}

		var err error
		profile, err = s.load(tx, userID)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "failed to update profile")
	}
	return profile, nil
}

func (s *UserService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return response.NewNotFound("user not found")
		}
		return response.NewStorageError("failed to change password", err)
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("current password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return response.NewServerError("failed to hash password")
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"password":   hash,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return response.NewStorageError("failed to change password", err)
	}
	return nil
}
