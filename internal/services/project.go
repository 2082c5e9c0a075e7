package services

import (
	"time"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail" binding:"max=1000"`
}

// UpdateProjectRequest is the allow-list of client-editable columns.
type UpdateProjectRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail" binding:"omitempty,max=1000"`
}

type AddMediaRequest struct {
	Type         string  `json:"type" binding:"required,oneof=video image doc"`
	URL          string  `json:"url" binding:"required,max=1000"`
	Filename     string  `json:"filename" binding:"required,max=255"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,max=1000"`
}

func withMedia(db *gorm.DB) *gorm.DB {
	return db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("project_media.id ASC")
	})
}

// List returns every project with its media, newest first.
func (s *ProjectService) List() ([]models.Project, error) {
	projects := []models.Project{}
	if err := withMedia(s.db).Order("created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, response.NewStorageError("failed to load projects", err)
	}
	for i := range projects {
		ensureMedia(&projects[i])
	}
	return projects, nil
}

func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	return s.get(s.db, id)
}

func (s *ProjectService) get(db *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := withMedia(db).First(&project, id).Error; err != nil {
		if isNotFound(err) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, response.NewStorageError("failed to load project", err)
	}
	ensureMedia(&project)
	return &project, nil
}

func ensureMedia(p *models.Project) {
	if p.Media == nil {
		p.Media = []models.ProjectMedia{}
	}
}

// Create inserts a project and returns the stored row.
func (s *ProjectService) Create(req *CreateProjectRequest) (*models.Project, error) {
	title := sanitize(req.Title)
	if title == "" {
		return nil, response.NewValidation("validation failed", response.FieldError{
			Field: "title", Rule: "required", Message: "title is required",
		})
	}
	if err := checkStoredLength("title", title, maxTitleLen); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		row := models.Project{
			Title:       title,
			Description: sanitize(req.Description),
			Thumbnail:   req.Thumbnail,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		var err error
		project, err = s.get(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "failed to create project")
	}
	return project, nil
}

// Update rewrites only the fields present in req plus updated_at.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		title := sanitize(*req.Title)
		if title == "" {
			return nil, response.NewValidation("validation failed", response.FieldError{
				Field: "title", Rule: "required", Message: "title cannot be empty",
			})
		}
		if err := checkStoredLength("title", title, maxTitleLen); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = sanitize(*req.Description)
	}
	if req.Thumbnail != nil {
		updates["thumbnail"] = *req.Thumbnail
	}
	if len(updates) == 0 {
		return nil, response.NewBadRequest("no fields to update")
	}
	updates["updated_at"] = time.Now()

	var project *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return response.NewNotFound("project not found")
		}
		var err error
		project, err = s.get(tx, id)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "failed to update project")
	}
	return project, nil
}

// Delete removes a project; media, comments and likes go with it.
func (s *ProjectService) Delete(id uint) error {
	result := s.db.Delete(&models.Project{}, id)
	if result.Error != nil {
		return response.NewStorageError("failed to delete project", result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("project not found")
	}
	return nil
}

func (s *ProjectService) exists(db *gorm.DB, id uint) (bool, error) {
	var n int64
	if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddMedia attaches a media row to an existing project.
func (s *ProjectService) AddMedia(projectID uint, req *AddMediaRequest) (*models.ProjectMedia, error) {
	if !models.IsValidMediaType(req.Type) {
		return nil, response.NewValidation("validation failed", response.FieldError{
			Field: "type", Rule: "oneof", Message: "type must be one of video, image, doc",
		})
	}
	if req.URL == "" || req.Filename == "" {
		return nil, response.NewBadRequest("url and filename are required")
	}

	var media models.ProjectMedia
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.exists(tx, projectID)
		if err != nil {
			return err
		}
		if !ok {
			return response.NewNotFound("project not found")
		}

		row := models.ProjectMedia{
			ProjectID:    projectID,
			Type:         req.Type,
			URL:          req.URL,
			Filename:     req.Filename,
			ThumbnailURL: req.ThumbnailURL,
		}
		if err := tx.Create(&row).Error; err != nil {
			// project removed between the check and the insert
			if isForeignKeyViolation(err) {
				return response.NewNotFound("project not found")
			}
			return err
		}
		return tx.First(&media, row.ID).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to add media")
	}
	return &media, nil
}

// DeleteMedia removes a media row only when it belongs to projectID.
func (s *ProjectService) DeleteMedia(projectID, mediaID uint) error {
	result := s.db.Where("id = ? AND project_id = ?", mediaID, projectID).Delete(&models.ProjectMedia{})
	if result.Error != nil {
		return response.NewStorageError("failed to delete media", result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("media not found")
	}
	return nil
}
