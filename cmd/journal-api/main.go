package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tankermike11/staycation-journal/api/swagger"
	"github.com/tankermike11/staycation-journal/internal/handler"
	"github.com/tankermike11/staycation-journal/internal/middleware"
	"github.com/tankermike11/staycation-journal/internal/repository"
	"github.com/tankermike11/staycation-journal/internal/service"
	"github.com/tankermike11/staycation-journal/pkg/cache"
	"github.com/tankermike11/staycation-journal/pkg/config"
	"github.com/tankermike11/staycation-journal/pkg/database"
	"github.com/tankermike11/staycation-journal/pkg/logger"
	"github.com/tankermike11/staycation-journal/pkg/media"
	corsmiddleware "github.com/tankermike11/staycation-journal/pkg/middleware/cors"
	reqidmiddleware "github.com/tankermike11/staycation-journal/pkg/middleware/requestid"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

// @title Staycation Journal API
// @version 1.0.0
// @description Private photo journal: events, days and photos with pre-rendered variants
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type handlers struct {
	tokens  *service.AuthService
	auth    *handler.AuthHandler
	events  *handler.EventHandler
	days    *handler.DayHandler
	images  *handler.ImageHandler
	metrics *handler.MetricsHandler
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Fatal("failed to apply schema", zap.Error(err))
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init object store", zap.Error(err), zap.String("provider", cfg.Storage.Provider))
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	cacheSvc, closeCache := newCacheService(ctx, cfg, metricsSvc, logr)
	defer closeCache()
	h := buildHandlers(cfg, db, store, cacheSvc, metricsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())
	registerRoutes(r, cfg, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.Storage.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.Storage.Provider == config.StorageProviderS3 {
		return storage.NewS3Storage(ctx, cfg.Storage.S3)
	}
	return storage.NewLocalStorage(cfg.Storage.LocalDir)
}

func newCacheService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	disabled := service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false)
	if !cfg.Cache.Enabled {
		return disabled, func() {}
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, read cache disabled", zap.Error(err))
		return disabled, func() {}
	}
	repo := repository.NewCacheRepository(client, logr)
	closeFn := func() {
		if err := repo.Close(); err != nil {
			logr.Warn("redis close failed", zap.Error(err))
		}
	}
	return service.NewCacheService(repo, metrics, cfg.Cache.TTL, logr.Named("cache"), true), closeFn
}

func buildHandlers(cfg *config.Config, db *sqlx.DB, store storage.ObjectStore, cacheSvc *service.CacheService, metricsSvc *service.MetricsService, logr *zap.Logger) handlers {
	validate := validator.New()
	signer := storage.NewSignedURLSigner(cfg.Images.URLSecret, cfg.Images.URLTTL)

	eventRepo := repository.NewEventRepository(db)
	dayRepo := repository.NewDayRepository(db)
	imageRepo := repository.NewImageRepository(db)

	lifecycle := service.NewLifecycle(store, media.NewGenerator(), metricsSvc, logr.Named("lifecycle"))

	authSvc := service.NewAuthService(validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		OwnerEmail:        cfg.Owner.Email,
		OwnerPasswordHash: cfg.Owner.PasswordHash,
	})
	eventSvc := service.NewEventService(eventRepo, dayRepo, imageRepo, lifecycle, signer, cacheSvc, validate, logr.Named("events"), service.EventServiceConfig{APIPrefix: cfg.APIPrefix})
	daySvc := service.NewDayService(dayRepo, eventRepo, imageRepo, lifecycle, signer, cacheSvc, logr.Named("days"), service.DayServiceConfig{APIPrefix: cfg.APIPrefix})
	imageSvc := service.NewImageService(imageRepo, dayRepo, lifecycle, signer, cacheSvc, validate, logr.Named("images"), service.ImageServiceConfig{APIPrefix: cfg.APIPrefix})

	var exporter *service.ExportService
	if cfg.Export.Enabled {
		exporter = service.NewExportService(eventRepo, dayRepo, imageRepo, lifecycle, logr.Named("export"), nil)
	}

	h := handlers{
		tokens:  authSvc,
		auth:    handler.NewAuthHandler(authSvc),
		days:    handler.NewDayHandler(daySvc),
		images:  handler.NewImageHandler(imageSvc),
		metrics: handler.NewMetricsHandler(metricsSvc, db),
	}
	if exporter != nil {
		h.events = handler.NewEventHandler(eventSvc, exporter)
	} else {
		h.events = handler.NewEventHandler(eventSvc, nil)
	}
	return h
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)
	api.GET("/img/:id", middleware.OptionalJWT(h.tokens), h.images.Serve)

	secured := api.Group("")
	secured.Use(middleware.JWT(h.tokens))
	secured.GET("/auth/me", h.auth.Me)

	limit := middleware.BodyLimit(cfg.Upload.MaxRequestBytes)

	events := secured.Group("/events")
	events.GET("", h.events.List)
	events.POST("", limit, h.events.Create)
	events.GET("/:id", h.events.Get)
	events.PUT("/:id", h.events.Update)
	events.DELETE("/:id", h.events.Delete)
	events.GET("/:id/export", h.events.Export)

	days := secured.Group("/days")
	days.GET("/:id", h.days.Get)
	days.PUT("/:id", h.days.Update)
	days.DELETE("/:id", h.days.Delete)

	secured.POST("/upload", limit, h.images.Upload)
	secured.POST("/reorder", h.images.Reorder)
	secured.PUT("/images/:id", h.images.UpdateCaption)
	secured.DELETE("/images/:id", h.images.Delete)
}
