package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/middleware"
	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// Routes bundles what RegisterRoutes mounts.
type Routes struct {
	Prefix      string
	Resources   *ResourceHandler
	Stats       *StatsHandler
	Auth        *AuthHandler
	Files       *FileHandler
	Metrics     *MetricsHandler
	Tokens      tokenValidator
	Spool       *storage.LocalStorage
	MaxFileSize int64
	Logger      *zap.Logger
}

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r *gin.Engine, rt Routes) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
		r.GET("/metrics/snapshot", rt.Metrics.Snapshot)
	}

	api := r.Group(rt.Prefix)
	api.Use(middleware.WithResponseMeta())

	if rt.Auth != nil {
		api.POST("/auth/login", rt.Auth.Login)
	}
	if rt.Files != nil {
		api.GET("/files/:token", rt.Files.Serve)
	}

	admin := []gin.HandlerFunc{middleware.JWT(rt.Tokens), middleware.RequireRoles(models.RoleAdmin)}
	audited := func(action string, h ...gin.HandlerFunc) []gin.HandlerFunc {
		chain := append([]gin.HandlerFunc{}, admin...)
		chain = append(chain, middleware.Audit(rt.Logger, action))
		return append(chain, h...)
	}

	resources := api.Group("/resources")
	{
		intake := middleware.UploadIntake(rt.Spool, rt.MaxFileSize, rt.Logger)
		resources.POST("/upload/pyq", audited("resource.upload", intake, rt.Resources.UploadPYQ)...)
		resources.POST("/upload/notes", audited("resource.upload", intake, rt.Resources.UploadNotes)...)
		resources.POST("/upload/syllabus", audited("resource.upload", rt.Resources.UploadSyllabus)...)
		resources.POST("/upload/content", audited("resource.upload", rt.Resources.UploadContent)...)

		resources.GET("", rt.Resources.List)
		resources.GET("/search", rt.Resources.Search)
		resources.GET("/export", audited("resource.export", rt.Resources.Export)...)
		resources.DELETE("/bulk", audited("resource.bulk_delete", rt.Resources.BulkDelete)...)

		resources.GET("/stats/overview", rt.Stats.Overview)
		resources.GET("/meta/branches", rt.Stats.Branches)
		resources.GET("/meta/subjects", rt.Stats.Subjects)

		resources.GET("/:id", rt.Resources.Get)
		resources.GET("/:id/download", rt.Resources.Download)
		resources.DELETE("/:id", audited("resource.delete", rt.Resources.Delete)...)
	}
}
