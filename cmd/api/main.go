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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ccc-church/evaluation-api/api/swagger"
	"github.com/ccc-church/evaluation-api/internal/handler"
	"github.com/ccc-church/evaluation-api/internal/middleware"
	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/internal/repository"
	"github.com/ccc-church/evaluation-api/internal/service"
	"github.com/ccc-church/evaluation-api/internal/survey"
	"github.com/ccc-church/evaluation-api/pkg/cache"
	"github.com/ccc-church/evaluation-api/pkg/config"
	"github.com/ccc-church/evaluation-api/pkg/database"
	"github.com/ccc-church/evaluation-api/pkg/logger"
	corsmiddleware "github.com/ccc-church/evaluation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ccc-church/evaluation-api/pkg/middleware/requestid"
)

// @title CCC Evaluation API
// @version 1.0.0
// @description Congregation evaluation survey service
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	// Cache backend: Redis when enabled, otherwise an in-process map so
	// report caching keeps working on single-instance deployments.
	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, falling back to in-memory cache", "error", err)
			cacheRepo = repository.NewMemoryCacheRepository()
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	} else {
		cacheRepo = repository.NewMemoryCacheRepository()
	}

	validate := survey.NewValidator()
	authorizer := service.NewAuthorizer()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Survey.ReportCacheTTL, logr, true)

	responseRepo := repository.NewResponseRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "ccc-evaluation-api",
	})
	responseSvc := service.NewResponseService(responseRepo, cacheSvc, authorizer, validate, logr)
	reportSvc := service.NewReportService(responseRepo, cacheSvc, authorizer, metricsSvc, cfg.Survey.StatsCacheTTL, logr)
	transferSvc := service.NewTransferService(responseRepo, authSvc, cacheSvc, authorizer, validate, logr, service.TransferConfig{
		AppVersion:    cfg.AppVersion,
		MaxImportSize: cfg.Import.MaxFileSizeBytes,
	})

	warmer := service.NewReportWarmer(reportSvc, logr)
	warmer.Start(context.Background())
	defer warmer.Stop()
	cacheSvc.AfterClear(warmer.Trigger)

	authHandler := handler.NewAuthHandler(authSvc)
	responseHandler := handler.NewResponseHandler(responseSvc, cfg.Survey.DefaultPageSize)
	reportHandler := handler.NewReportHandler(reportSvc)
	transferHandler := handler.NewTransferHandler(transferSvc, reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("")
		authed.Use(middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			responses := authed.Group("/responses")
			{
				responses.GET("", responseHandler.List)
				responses.POST("", responseHandler.Create)
				responses.GET("/stats", reportHandler.Stats)
				responses.POST("/validate", responseHandler.ValidateSection)
				responses.GET("/:id", responseHandler.Get)
				responses.PUT("/:id", responseHandler.Update)
				responses.DELETE("/:id", responseHandler.Delete)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireRoles(models.RoleAdmin))
			{
				admin.GET("/reports", reportHandler.Combined)
				admin.GET("/demographics", reportHandler.Demographics)
				admin.GET("/service-quality", reportHandler.ServiceQuality)
				admin.GET("/departments", reportHandler.Departments)
				admin.GET("/ministries", reportHandler.Ministries)
				admin.GET("/overall-health", reportHandler.OverallHealth)

				admin.GET("/backup", transferHandler.Backup)
				admin.POST("/import", transferHandler.Import)
				admin.POST("/export/csv", transferHandler.ExportCSV)
				admin.GET("/export/pdf", transferHandler.ExportPDF)
				admin.DELETE("/purge", transferHandler.Purge)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
