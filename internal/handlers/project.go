package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	shareService   *services.ShareService
}

func NewProjectHandler(projects *services.ProjectService, share *services.ShareService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projects,
		shareService:   share,
	}
}

// List returns all projects with their media
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update updates a project
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}
	var req services.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete deletes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "project deleted successfully", nil)
}

// AddMedia attaches a media reference to a project
// POST /api/projects/:id/media
func (h *ProjectHandler) AddMedia(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}
	var req services.AddMediaRequest
	if !bindJSON(c, &req) {
		return
	}

	media, err := h.projectService.AddMedia(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, media)
}

// DELETE /api/projects/:id/media/:mediaId
func (h *ProjectHandler) DeleteMedia(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}
	mediaID, ok := paramID(c, "mediaId", "media")
	if !ok {
		return
	}

	if err := h.projectService.DeleteMedia(id, mediaID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "media deleted successfully", nil)
}

// Share sends a project to an email address
// POST /api/projects/:id/share
func (h *ProjectHandler) Share(c *gin.Context) {
	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}
	var req services.ShareRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.shareService.Share(id, &req, services.Sharer{
		UserID:    middleware.GetUserID(c),
		Username:  middleware.GetUsername(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
