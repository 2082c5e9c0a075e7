package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/pkg/response"
)

type UploadHandler struct {
	uploadService  *services.UploadService
	projectService *services.ProjectService
}

func NewUploadHandler(uploads *services.UploadService, projects *services.ProjectService) *UploadHandler {
	return &UploadHandler{uploadService: uploads, projectService: projects}
}

func (h *UploadHandler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadService.MaxRequestBytes())
}

func writeMultipartError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		response.Error(c, response.NewUploadRejected("request body too large"))
	case errors.Is(err, http.ErrMissingFile):
		response.BadRequest(c, "no file uploaded")
	default:
		response.BadRequest(c, "invalid multipart body")
	}
}

// UploadFile stores a single file from field "file"
// POST /api/upload/file
func (h *UploadHandler) UploadFile(c *gin.Context) {
	h.limitBody(c)
	fh, err := c.FormFile("file")
	if err != nil {
		writeMultipartError(c, err)
		return
	}

	file, err := h.uploadService.Save(fh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "file uploaded successfully", file)
}

// UploadFiles stores up to upload.max_files files from field "files"
// POST /api/upload/files
func (h *UploadHandler) UploadFiles(c *gin.Context) {
	h.limitBody(c)
	form, err := c.MultipartForm()
	if err != nil {
		writeMultipartError(c, err)
		return
	}

	files, err := h.uploadService.SaveAll(form.File["files"])
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "files uploaded successfully", files)
}

// DeleteFile removes an original and its thumbnail
// DELETE /api/upload/file/:kind/:filename
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	if err := h.uploadService.Remove(c.Param("kind"), c.Param("filename")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "file deleted successfully", nil)
}

// AttachToProject uploads field "file" and records it as project media
// POST /api/upload/project/:projectId/media
func (h *UploadHandler) AttachToProject(c *gin.Context) {
	projectID, ok := paramID(c, "projectId", "project")
	if !ok {
		return
	}
	h.limitBody(c)
	fh, err := c.FormFile("file")
	if err != nil {
		writeMultipartError(c, err)
		return
	}

	if _, err := h.projectService.GetByID(projectID); err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.uploadService.Save(fh)
	if err != nil {
		response.Error(c, err)
		return
	}

	media, err := h.projectService.AddMedia(projectID, &services.AddMediaRequest{
		Type:         file.Type,
		URL:          file.URL,
		Filename:     file.OriginalName,
		ThumbnailURL: file.ThumbnailURL,
	})
	if err != nil {
		h.uploadService.Discard(*file)
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"media": media, "file": file})
}

