package services

import (
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

type CreateCommentRequest struct {
	ProjectID uint   `json:"project_id" binding:"required"`
	Text      string `json:"text" binding:"required,max=5000"`
}

func commentsWithAuthor(db *gorm.DB) *gorm.DB {
	return db.Model(&models.ProjectComment{}).
		Select("project_comments.*, users.username AS author").
		Joins("JOIN users ON users.id = project_comments.user_id")
}

// List returns a project's comments newest first. An unknown project has
// no comments.
func (s *CommentService) List(projectID uint) ([]models.ProjectComment, error) {
	comments := []models.ProjectComment{}
	err := commentsWithAuthor(s.db).
		Where("project_comments.project_id = ?", projectID).
		Order("project_comments.created_at DESC, project_comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, response.NewStorageError("failed to load comments", err)
	}
	return comments, nil
}

func (s *CommentService) Create(userID uint, req *CreateCommentRequest) (*models.ProjectComment, error) {
	text := sanitize(req.Text)
	if text == "" {
		return nil, response.NewValidation("validation failed", response.FieldError{
			Field: "text", Rule: "required", Message: "comment text is required",
		})
	}

	var comment models.ProjectComment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Project{}).Where("id = ?", req.ProjectID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return response.NewNotFound("project not found")
		}

		row := models.ProjectComment{ProjectID: req.ProjectID, UserID: userID, Text: text}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return commentsWithAuthor(tx).Where("project_comments.id = ?", row.ID).First(&comment).Error
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, passThrough(err, "failed to create comment")
	}
	return &comment, nil
}

// Delete removes a comment written by userID. Someone else's comment is
// Forbidden; a missing one is NotFound.
func (s *CommentService) Delete(userID, commentID uint) error {
	var comment models.ProjectComment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if isNotFound(err) {
			return response.NewNotFound("comment not found")
		}
		return response.NewStorageError("failed to delete comment", err)
	}
	if comment.UserID != userID {
		return response.NewForbidden("you can only delete your own comments")
	}

	if err := s.db.Where("id = ? AND user_id = ?", commentID, userID).Delete(&models.ProjectComment{}).Error; err != nil {
		return response.NewStorageError("failed to delete comment", err)
	}
	return nil
}
