package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campushub-api/api/swagger"
	"github.com/noah-isme/campushub-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campushub-api/internal/middleware"
	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/internal/repository"
	"github.com/noah-isme/campushub-api/internal/service"
	"github.com/noah-isme/campushub-api/pkg/cache"
	"github.com/noah-isme/campushub-api/pkg/config"
	"github.com/noah-isme/campushub-api/pkg/database"
	"github.com/noah-isme/campushub-api/pkg/export"
	"github.com/noah-isme/campushub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campushub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campushub-api/pkg/middleware/requestid"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

// @title CampusHub API
// @version 1.0.0
// @description Student resource sharing backend: question papers, notes, syllabi and links.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type catalogStore interface {
	Create(ctx context.Context, res *models.Resource) error
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Resource, error)
	List(ctx context.Context, q models.ResourceQuery) ([]models.Resource, int, error)
	ListAll(ctx context.Context, filter models.ResourceFilter, sort models.ResourceSort) ([]models.Resource, error)
	Touch(ctx context.Context, id string, at time.Time) error
	IncrementDownload(ctx context.Context, id string, at time.Time) (*models.Resource, error)
	Delete(ctx context.Context, ids []string) (int64, error)
	Deactivate(ctx context.Context, ids []string, at time.Time) (int64, error)
}

type objectStore interface {
	Provider() string
	Put(ctx context.Context, in storage.PutInput) (*storage.PutResult, error)
	Delete(ctx context.Context, id string) error
	Stat(ctx context.Context, id string) (*storage.ObjectInfo, error)
	DownloadURL(ctx context.Context, id, fileName string) (string, error)
	Usage(ctx context.Context) (*storage.Usage, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	checks := map[string]handler.ReadinessCheck{}

	var catalog catalogStore
	switch cfg.Catalog.Driver {
	case config.CatalogMemory:
		logr.Warn("using in-memory catalog, records are lost on restart")
		catalog = repository.NewMemoryResourceRepository()
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close() //nolint:errcheck
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db.DB, logr); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		checks["database"] = db.PingContext
		catalog = repository.NewResourceRepository(db)
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats are computed on every request", zap.Error(err))
		} else {
			redisClient = client
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo.Ping
	}

	spool, err := storage.NewLocalStorage(cfg.Uploads.TmpDir)
	if err != nil {
		return fmt.Errorf("prepare upload spool: %w", err)
	}

	var (
		objects   objectStore
		localObjs *storage.LocalObjectStorage
	)
	switch cfg.ObjectStorage.Driver {
	case config.ObjectStorageS3:
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStorage.S3, cfg.ObjectStorage.Folder, cfg.ObjectStorage.QuotaBytes, logr)
		if err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
		objects = s3Store
	default:
		files, err := storage.NewLocalStorage(cfg.ObjectStorage.Local.BaseDir)
		if err != nil {
			return fmt.Errorf("init local object storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.ObjectStorage.Local.SignedURLSecret, cfg.ObjectStorage.Local.SignedURLTTL)
		localObjs = storage.NewLocalObjectStorage(files, signer, cfg.ObjectStorage.Folder, cfg.ObjectStorage.Local.PublicBaseURL, cfg.ObjectStorage.QuotaBytes)
		objects = localObjs
	}

	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && cacheRepo.Enabled())

	resourceSvc := service.NewResourceService(catalog, objects, cacheSvc, metrics, validate, logr, service.ResourceServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		SoftDelete:   cfg.Catalog.SoftDelete,
	})
	statsSvc := service.NewStatsService(catalog, objects, cacheSvc, validate, logr, cfg.Stats.CacheTTL)
	exportSvc := service.NewExportService(catalog, validate, logr, export.NewCSVExporter(), export.NewPDFExporter())
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminEmail:        cfg.Admin.Email,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		AdminName:         cfg.Admin.Name,
	})
	if cfg.Admin.PasswordHash == "" {
		logr.Warn("ADMIN_PASSWORD_HASH is empty, admin login is disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, logger.DefaultSkipPaths...))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	routes := handler.Routes{
		Prefix:      cfg.APIPrefix,
		Resources:   handler.NewResourceHandler(resourceSvc, exportSvc, logr),
		Stats:       handler.NewStatsHandler(statsSvc),
		Auth:        handler.NewAuthHandler(authSvc),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
		Tokens:      authSvc,
		Spool:       spool,
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		Logger:      logr,
	}
	if localObjs != nil {
		routes.Files = handler.NewFileHandler(localObjs, logr)
	}
	handler.RegisterRoutes(r, routes)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	janitor := service.NewSpoolJanitor(spool, cfg.Uploads.SpoolTTL, cfg.Uploads.SweepInterval, logr)
	janitor.Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("catalog", cfg.Catalog.Driver),
			zap.String("object_storage", objects.Provider()),
			zap.Bool("stats_cache", cacheSvc.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
