package services

import (
	"context"
	"fmt"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/huangang/researchhub/pkg/response"
	"gorm.io/gorm"
)

type ShareRequest struct {
	Email   string `json:"email" binding:"required,email,max=255"`
	Message string `json:"message" binding:"max=2000"`
}

type ShareResult struct {
	Message      string `json:"message"`
	SharedWith   string `json:"shared_with"`
	ProjectTitle string `json:"project_title"`
}

// Sharer identifies who is sharing and from where, for the audit row.
type Sharer struct {
	UserID    uint
	Username  string
	IP        string
	UserAgent string
}

type ShareService struct {
	db      *gorm.DB
	queue   TaskQueue
	mailer  Mailer
	baseURL string
}

func NewShareService(db *gorm.DB, queue TaskQueue, mailer Mailer, baseURL string) *ShareService {
	return &ShareService{db: db, queue: queue, mailer: mailer, baseURL: baseURL}
}

// Share records a share event and queues its delivery. Delivery failures
// never fail the request.
func (s *ShareService) Share(projectID uint, req *ShareRequest, by Sharer) (*ShareResult, error) {
	var project models.Project
	if err := s.db.Select("id", "title").First(&project, projectID).Error; err != nil {
		if isNotFound(err) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, response.NewStorageError("failed to share project", err)
	}

	recipient := normalizeEmail(req.Email)
	task := &ShareTask{
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Recipient:    recipient,
		Message:      sanitize(req.Message),
		SharedBy:     by.Username,
		SharedByID:   by.UserID,
	}
	if s.baseURL != "" {
		task.ProjectURL = fmt.Sprintf("%s/projects/%d", s.baseURL, project.ID)
	}

	uid := by.UserID
	LogInfo("Projects", "ShareEvent", fmt.Sprintf("%s shared project %d with %s", by.Username, project.ID, recipient),
		&uid, by.IP, by.UserAgent, map[string]interface{}{
			"project_id": project.ID,
			"recipient":  recipient,
			"async":      s.queue != nil && s.queue.IsAsync(),
		})

	if s.queue != nil {
		if err := s.queue.Enqueue(task); err != nil {
			logger.Warn().Err(err).Uint("project_id", project.ID).Msg("[Share] failed to enqueue delivery")
		}
	}

	return &ShareResult{
		Message:      "project shared successfully",
		SharedWith:   recipient,
		ProjectTitle: project.Title,
	}, nil
}

// ProcessShareTask delivers one share. Without a mailer the share is only
// logged.
func (s *ShareService) ProcessShareTask(ctx context.Context, task *ShareTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.mailer == nil || !s.mailer.Enabled() {
		logger.Info().
			Uint("project_id", task.ProjectID).
			Str("recipient", task.Recipient).
			Str("shared_by", task.SharedBy).
			Msg("[Share] delivery skipped, SMTP not configured")
		return nil
	}

	subject, body := buildShareEmail(task)
	return s.mailer.Send([]string{task.Recipient}, subject, body)
}
