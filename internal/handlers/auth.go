package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT),
	}
}

// Register creates an account and returns a token
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	uid := result.User.ID
	services.LogInfo("Auth", "Register", result.User.Username+" registered", &uid, c.ClientIP(), c.Request.UserAgent(), nil)
	response.Created(c, result)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(&req)
	if err != nil {
		services.LogWarning("Auth", "LoginFailed", "failed login for "+req.Email, nil, c.ClientIP(), c.Request.UserAgent(), nil)
		response.Error(c, err)
		return
	}

	uid := result.User.ID
	services.LogInfo("Auth", "Login", result.User.Username+" signed in", &uid, c.ClientIP(), c.Request.UserAgent(), nil)
	response.Success(c, result)
}

// Me returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
