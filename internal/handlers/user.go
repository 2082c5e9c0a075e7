package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService      *services.UserService
	systemLogService *services.SystemLogService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		userService:      services.NewUserService(db),
		systemLogService: services.NewSystemLogService(db),
	}
}

// GetProfile returns the caller's profile
// GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateProfile changes username and email
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.userService.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "profile updated successfully", profile)
}

// ChangePassword
// PUT /api/users/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "password changed successfully", nil)
}

// Activity pages through the caller's audit trail
// GET /api/users/activity
func (h *UserHandler) Activity(c *gin.Context) {
	var req services.ActivityRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.systemLogService.ListForUser(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}
