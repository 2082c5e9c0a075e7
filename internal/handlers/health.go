package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and the state of the store and queue.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// CheckHealth
// GET /api/health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	status, code := "ok", http.StatusOK

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error"
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error"
	}
	if dbStatus != "ok" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "researchhub",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
		},
	})
}
