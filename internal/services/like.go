package services

import (
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

type ToggleLikeRequest struct {
	ProjectID uint `json:"project_id" binding:"required"`
}

type LikeStatus struct {
	Liked      bool   `json:"liked"`
	LikesCount int64  `json:"likes_count"`
	Message    string `json:"message,omitempty"`
}

func (s *LikeService) List(projectID uint) ([]models.ProjectLike, error) {
	likes := []models.ProjectLike{}
	err := s.db.Model(&models.ProjectLike{}).
		Select("project_likes.*, users.username AS author").
		Joins("JOIN users ON users.id = project_likes.user_id").
		Where("project_likes.project_id = ?", projectID).
		Order("project_likes.created_at DESC, project_likes.id DESC").
		Find(&likes).Error
	if err != nil {
		return nil, response.NewStorageError("failed to load likes", err)
	}
	return likes, nil
}

// Toggle flips the caller's like on a project. A concurrent duplicate
// insert hits the unique index and is reported as liked.
func (s *LikeService) Toggle(userID, projectID uint) (*LikeStatus, error) {
	status := &LikeStatus{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return response.NewNotFound("project not found")
		}

		result := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			status.Liked = false
			status.Message = "project unliked"
		} else {
			if err := tx.Create(&models.ProjectLike{ProjectID: projectID, UserID: userID}).Error; err != nil {
				return err
			}
			status.Liked = true
			status.Message = "project liked"
		}

		return tx.Model(&models.ProjectLike{}).Where("project_id = ?", projectID).Count(&status.LikesCount).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return s.afterRace(userID, projectID)
		}
		return nil, passThrough(err, "failed to toggle like")
	}
	return status, nil
}

func (s *LikeService) afterRace(userID, projectID uint) (*LikeStatus, error) {
	status, err := s.Status(userID, projectID)
	if err != nil {
		return nil, err
	}
	status.Liked = true
	status.Message = "project liked"
	return status, nil
}

// Status reports whether userID likes the project and the total count.
func (s *LikeService) Status(userID, projectID uint) (*LikeStatus, error) {
	status := &LikeStatus{}
	var mine int64
	if err := s.db.Model(&models.ProjectLike{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&mine).Error; err != nil {
		return nil, response.NewStorageError("failed to check like status", err)
	}
	if err := s.db.Model(&models.ProjectLike{}).
		Where("project_id = ?", projectID).
		Count(&status.LikesCount).Error; err != nil {
		return nil, response.NewStorageError("failed to check like status", err)
	}
	status.Liked = mine > 0
	return status, nil
}
