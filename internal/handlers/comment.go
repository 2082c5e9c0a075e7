package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{commentService: services.NewCommentService(db)}
}

// GET /api/comments/project/:projectId
func (h *CommentHandler) ListByProject(c *gin.Context) {
	projectID, ok := paramID(c, "projectId", "project")
	if !ok {
		return
	}

	comments, err := h.commentService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comments)
}

// POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Delete removes one of the caller's comments
// DELETE /api/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := paramID(c, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.commentService.Delete(middleware.GetUserID(c), commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "comment deleted successfully", nil)
}
