package main

import (
	"fmt"

	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/internal/handlers"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/internal/services"
	"github.com/huangang/researchhub/internal/utils"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// appServices holds the initialized store, background workers and handlers.
type appServices struct {
	cfg         *config.Config
	db          *gorm.DB
	taskQueue   services.TaskQueue
	worker      *services.Worker
	logCleanup  *cron.Cron
	authLimiter *middleware.RateLimiter

	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	taskHandler    *handlers.TaskHandler
	projectHandler *handlers.ProjectHandler
	commentHandler *handlers.CommentHandler
	likeHandler    *handlers.LikeHandler
	uploadHandler  *handlers.UploadHandler
	summaryHandler *handlers.SummaryHandler
	healthHandler  *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) (*appServices, error) {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database, cfg.Server.Mode); err != nil {
		return nil, err
	}
	db := models.GetDB()

	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := models.SeedDefaultData(db, cfg.Database.SeedSampleData); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	services.InitSystemLogger(db)
	logCleanup := services.StartLogCleanupScheduler(db, cfg.Log.RetentionDays)

	uploadService := services.NewUploadService(&cfg.Upload, cfg.Server.BaseURL, nil)
	if err := uploadService.EnsureDirs(); err != nil {
		logCleanup.Stop()
		return nil, fmt.Errorf("failed to create upload directories: %w", err)
	}

	projectService := services.NewProjectService(db)
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	shareService := services.NewShareService(db, taskQueue, services.NewEmailService(&cfg.SMTP), clientURL(cfg))
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(shareService.ProcessShareTask)
	}

	// only consume from Redis when the producer side is async too
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(shareService.ProcessShareTask)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start async worker")
				worker = nil
			}
		}
	}

	return &appServices{
		cfg:         cfg,
		db:          db,
		taskQueue:   taskQueue,
		worker:      worker,
		logCleanup:  logCleanup,
		authLimiter: middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),

		authHandler:    handlers.NewAuthHandler(db, cfg),
		userHandler:    handlers.NewUserHandler(db),
		taskHandler:    handlers.NewTaskHandler(db),
		projectHandler: handlers.NewProjectHandler(projectService, shareService),
		commentHandler: handlers.NewCommentHandler(db),
		likeHandler:    handlers.NewLikeHandler(db),
		uploadHandler:  handlers.NewUploadHandler(uploadService, projectService),
		summaryHandler: handlers.NewSummaryHandler(
			services.NewSummaryService(&cfg.AI, projectService),
			services.NewCoverService(&cfg.AI, uploadService),
		),
		healthHandler:  handlers.NewHealthHandler(db, taskQueue),
	}, nil
}

// clientURL is where share emails link to: the first allowed origin.
func clientURL(cfg *config.Config) string {
	if len(cfg.CORS.AllowOrigins) > 0 && cfg.CORS.AllowOrigins[0] != "*" {
		return cfg.CORS.AllowOrigins[0]
	}
	return cfg.Server.BaseURL
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	<-s.logCleanup.Stop().Done()
	s.authLimiter.Stop()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	services.InitSystemLogger(nil)

	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info().Msg("All background services stopped")
}
