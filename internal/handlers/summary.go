package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
)

type SummaryHandler struct {
	summaryService *services.SummaryService
	coverService   *services.CoverService
}

func NewSummaryHandler(summary *services.SummaryService, cover *services.CoverService) *SummaryHandler {
	return &SummaryHandler{summaryService: summary, coverService: cover}
}

// Generate summarizes an unsaved project draft
// POST /api/ai/generate-summary
func (h *SummaryHandler) Generate(c *gin.Context) {
	var req services.SummaryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.summaryService.Generate(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ForProject summarizes a stored project
// POST /api/projects/:id/summary
func (h *SummaryHandler) ForProject(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	result, err := h.summaryService.ForProject(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GenerateThumbnail draws a cover image for a project draft
// POST /api/ai/generate-thumbnail
func (h *SummaryHandler) GenerateThumbnail(c *gin.Context) {
	var req services.CoverRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.coverService.Generate(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
