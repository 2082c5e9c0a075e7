package services

import (
	"strings"
	"time"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

const dateOnly = "2006-01-02"

type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     string `json:"due_date"`
}

// UpdateTaskRequest carries only the fields a client may change. An empty
// due_date clears it.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"`
}

// parseDueDate accepts RFC3339 or YYYY-MM-DD. Empty input means no date.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return nil, response.NewValidation("validation failed", response.FieldError{
			Field: "due_date", Rule: "datetime", Message: "due_date must be RFC3339 or YYYY-MM-DD",
		})
	}
	return &t, nil
}

func (s *TaskService) List(userID uint, status string) ([]models.Task, error) {
	query := s.db.Where("user_id = ?", userID)
	if status != "" {
		if !models.IsValidTaskStatus(status) {
			return nil, response.NewBadRequest("invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	tasks := []models.Task{}
	if err := query.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, response.NewStorageError("failed to load tasks", err)
	}
	return tasks, nil
}

// GetByID finds a task owned by userID. Other users' tasks are not found.
func (s *TaskService) GetByID(userID, id uint) (*models.Task, error) {
	return s.get(s.db, userID, id)
}

func (s *TaskService) get(db *gorm.DB, userID, id uint) (*models.Task, error) {
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		if isNotFound(err) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, response.NewStorageError("failed to load task", err)
	}
	return &task, nil
}

func (s *TaskService) Create(userID uint, req *CreateTaskRequest) (*models.Task, error) {
	title := sanitize(req.Title)
	if title == "" {
		return nil, response.NewValidation("validation failed", response.FieldError{
			Field: "title", Rule: "required", Message: "title is required",
		})
	}
	if err := checkStoredLength("title", title, maxTitleLen); err != nil {
		return nil, err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	task := models.Task{
		UserID:      userID,
		Title:       title,
		Description: sanitize(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	var stored *models.Task
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		var err error
		stored, err = s.get(tx, userID, task.ID)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "failed to create task")
	}
	return stored, nil
}

func (s *TaskService) Update(userID, id uint, req *UpdateTaskRequest) (*models.Task, error) {
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
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		updates["due_date"] = due
	}
	if len(updates) == 0 {
		return nil, response.NewBadRequest("no fields to update")
	}
	updates["updated_at"] = time.Now()

	var task *models.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("id = ? AND user_id = ?", id, userID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return response.NewNotFound("task not found")
		}
		var err error
		task, err = s.get(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "failed to update task")
	}
	return task, nil
}

func (s *TaskService) Delete(userID, id uint) error {
	result := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Task{})
	if result.Error != nil {
		return response.NewStorageError("failed to delete task", result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("task not found")
	}
	return nil
}
