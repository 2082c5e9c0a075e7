package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/huangang/researchhub/pkg/response"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var (
	globalDB   *gorm.DB
	globalDBMu sync.RWMutex
)

// InitSystemLogger sets the store used by LogInfo/LogWarning/LogError.
// Passing nil disables audit writes.
func InitSystemLogger(db *gorm.DB) {
	globalDBMu.Lock()
	globalDB = db
	globalDBMu.Unlock()
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("info", module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("warning", module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("error", module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	globalDBMu.RLock()
	db := globalDB
	globalDBMu.RUnlock()
	if db == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("failed to write system log")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type ActivityRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Module   string `form:"module"`
}

type ActivityResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

// ListForUser pages through the audit events recorded for one user.
func (s *SystemLogService) ListForUser(userID uint, req *ActivityRequest) (*ActivityResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := func() *gorm.DB {
		q := s.db.Model(&models.SystemLog{}).Where("user_id = ?", userID)
		if req.Module != "" {
			q = q.Where("module = ?", req.Module)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, response.NewStorageError("failed to load activity", err)
	}

	logs := []models.SystemLog{}
	offset := (req.Page - 1) * req.PageSize
	if err := query().Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, response.NewStorageError("failed to load activity", err)
	}

	return &ActivityResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns how
// many rows went.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartLogCleanupScheduler runs the retention job once now and then daily
// at 03:00. The caller stops the returned scheduler on shutdown.
func StartLogCleanupScheduler(db *gorm.DB, retentionDays int) *cron.Cron {
	service := NewSystemLogService(db)
	scheduler := cron.New()

	if retentionDays <= 0 {
		logger.Info().Msg("[SystemLog] log cleanup disabled (retention_days <= 0)")
		return scheduler
	}

	runCleanup(service, retentionDays)
	if _, err := scheduler.AddFunc("0 3 * * *", func() { runCleanup(service, retentionDays) }); err != nil {
		logger.Error().Err(err).Msg("[SystemLog] failed to schedule log cleanup")
		return scheduler
	}
	scheduler.Start()
	return scheduler
}

func runCleanup(service *SystemLogService, retentionDays int) {
	deleted, err := service.CleanupOldLogs(retentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("[SystemLog] failed to clean up old logs")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("[SystemLog] cleaned up old logs")
	}
}
