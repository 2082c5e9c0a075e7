package services

import (
	"time"

	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/internal/utils"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserInfo is the public projection of a user.
type UserInfo struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

func toUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: &u.CreatedAt,
	}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResult, error) {
	username := sanitize(req.Username)
	email := normalizeEmail(req.Email)
	if len([]rune(username)) < 3 {
		return nil, response.NewValidation("validation failed", response.FieldError{
			Field: "username", Rule: "min", Message: "username must be at least 3 characters",
		})
	}
	if err := checkStoredLength("username", username, maxUsernameLen); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&existing).Error; err != nil {
		return nil, response.NewStorageError("failed to register user", err)
	}
	if existing > 0 {
		return nil, response.NewConflict("user already exists")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, response.NewServerError("failed to hash password")
	}

	user := models.User{Username: username, Email: email, Password: hash}
	if err := s.db.Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("user already exists")
		}
		return nil, response.NewStorageError("failed to register user", err)
	}

	return s.issue(&user)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(req *LoginRequest) (*AuthResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, response.NewBadRequest("invalid credentials")
		}
		return nil, response.NewStorageError("failed to sign in", err)
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewBadRequest("invalid credentials")
	}

	return s.issue(&user)
}

// Me returns the public fields of the token holder.
func (s *AuthService) Me(userID uint) (*UserInfo, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, response.NewStorageError("failed to load user", err)
	}
	info := toUserInfo(&user)
	return &info, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateToken(user.ID, user.Username, user.Email, hours)
	if err != nil {
		return nil, response.NewServerError("failed to issue token")
	}
	info := toUserInfo(user)
	info.CreatedAt = nil
	return &AuthResult{Token: token, User: info}, nil
}
