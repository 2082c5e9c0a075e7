package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type LikeHandler struct {
	likeService *services.LikeService
}

func NewLikeHandler(db *gorm.DB) *LikeHandler {
	return &LikeHandler{likeService: services.NewLikeService(db)}
}

// GET /api/likes/project/:projectId
func (h *LikeHandler) ListByProject(c *gin.Context) {
	projectID, ok := paramID(c, "projectId", "project")
	if !ok {
		return
	}

	likes, err := h.likeService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, likes)
}

// Toggle likes or unlikes a project for the caller
// POST /api/likes/toggle
func (h *LikeHandler) Toggle(c *gin.Context) {
	var req services.ToggleLikeRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.likeService.Toggle(middleware.GetUserID(c), req.ProjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// GET /api/likes/check/:projectId
func (h *LikeHandler) Check(c *gin.Context) {
	projectID, ok := paramID(c, "projectId", "project")
	if !ok {
		return
	}

	status, err := h.likeService.Status(middleware.GetUserID(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}
