package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/internal/middleware"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/huangang/researchhub/pkg/response"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(svc.cfg.CORS.AllowOrigins))

	prefix := svc.cfg.Upload.URLPrefix
	if prefix == "" {
		prefix = "/uploads"
	}
	r.Static(prefix, svc.cfg.Upload.Dir)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	api := r.Group("/api")
	api.GET("/health", svc.healthHandler.CheckHealth)

	// Public reads
	api.GET("/projects", svc.projectHandler.List)
	api.GET("/projects/:id", svc.projectHandler.GetByID)
	api.GET("/comments/project/:projectId", svc.commentHandler.ListByProject)
	api.GET("/likes/project/:projectId", svc.likeHandler.ListByProject)

	// Auth routes (public, rate limited)
	auth := api.Group("/auth", svc.authLimiter.Middleware())
	{
		auth.POST("/register", svc.authHandler.Register)
		auth.POST("/login", svc.authHandler.Login)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.AuditLog())
	{
		protected.GET("/auth/me", svc.authHandler.Me)

		// Users
		protected.GET("/users/profile", svc.userHandler.GetProfile)
		protected.PUT("/users/profile", svc.userHandler.UpdateProfile)
		protected.PUT("/users/password", svc.userHandler.ChangePassword)
		protected.GET("/users/activity", svc.userHandler.Activity)

		// Tasks
		protected.GET("/tasks", svc.taskHandler.List)
		protected.GET("/tasks/:id", svc.taskHandler.GetByID)
		protected.POST("/tasks", svc.taskHandler.Create)
		protected.PUT("/tasks/:id", svc.taskHandler.Update)
		protected.DELETE("/tasks/:id", svc.taskHandler.Delete)

		// Projects
		protected.POST("/projects", svc.projectHandler.Create)
		protected.PUT("/projects/:id", svc.projectHandler.Update)
		protected.DELETE("/projects/:id", svc.projectHandler.Delete)
		protected.POST("/projects/:id/media", svc.projectHandler.AddMedia)
		protected.DELETE("/projects/:id/media/:mediaId", svc.projectHandler.DeleteMedia)
		protected.POST("/projects/:id/share", svc.projectHandler.Share)
		protected.POST("/projects/:id/summary", svc.summaryHandler.ForProject)

		// Uploads
		protected.POST("/upload/file", svc.uploadHandler.UploadFile)
		protected.POST("/upload/files", svc.uploadHandler.UploadFiles)
		protected.DELETE("/upload/file/:kind/:filename", svc.uploadHandler.DeleteFile)
		protected.POST("/upload/project/:projectId/media", svc.uploadHandler.AttachToProject)

		// Comments
		protected.POST("/comments", svc.commentHandler.Create)
		protected.DELETE("/comments/:commentId", svc.commentHandler.Delete)

		// Likes
		protected.POST("/likes/toggle", svc.likeHandler.Toggle)
		protected.GET("/likes/check/:projectId", svc.likeHandler.Check)

		// AI
		protected.POST("/ai/generate-summary", svc.summaryHandler.Generate)
		protected.POST("/ai/generate-thumbnail", svc.summaryHandler.GenerateThumbnail)
	}
}
