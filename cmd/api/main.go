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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edutrack-io/internship-api/api/swagger"
	"github.com/edutrack-io/internship-api/internal/handler"
	"github.com/edutrack-io/internship-api/internal/middleware"
	"github.com/edutrack-io/internship-api/internal/repository"
	"github.com/edutrack-io/internship-api/internal/service"
	"github.com/edutrack-io/internship-api/pkg/cache"
	"github.com/edutrack-io/internship-api/pkg/config"
	"github.com/edutrack-io/internship-api/pkg/database"
	"github.com/edutrack-io/internship-api/pkg/jobs"
	"github.com/edutrack-io/internship-api/pkg/logger"
	corsmiddleware "github.com/edutrack-io/internship-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edutrack-io/internship-api/pkg/middleware/requestid"
)

// @title Internship Lifecycle API
// @version 1.0.0
// @description Internship lifecycle management and expiration alert engine
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	internshipRepo := repository.NewInternshipRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	configRepo := repository.NewConfigurationRepository(db)

	validate := validator.New()

	internshipSvc := service.NewInternshipService(internshipRepo, auditRepo, validate, logr)
	alertSvc := service.NewAlertService(alertRepo, auditRepo, logr)
	certificateSvc := service.NewCertificateService(internshipRepo)
	configurationSvc := service.NewConfigurationService(configRepo, auditRepo, logr)
	dashboardSvc := service.NewDashboardService(internshipRepo, alertRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(alertRepo)

	dispatcher := service.NewAlertDispatcher(alertRepo, alertSvc, service.NewLogNotifier(logr), logr)
	deliveryQueue := jobs.NewQueue("alert-delivery", dispatcher.Handle, jobs.QueueConfig{
		Workers:    cfg.Dispatch.Workers,
		BufferSize: cfg.Dispatch.BufferSize,
		MaxRetries: cfg.Dispatch.MaxRetries,
		RetryDelay: cfg.Dispatch.RetryDelay,
		Logger:     logr,
		OnOutcome: func(queue, jobType string, _ int, err error) {
			metricsSvc.RecordJob(queue, jobType, err)
		},
	})
	deliveryQueue.Start(ctx)
	defer deliveryQueue.Stop()

	dispatch := func(alertID string) error {
		return deliveryQueue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    service.JobTypeAlertDelivery,
			Payload: alertID,
		})
	}
	scannerSvc := service.NewAlertScannerService(internshipRepo, alertRepo, dispatch, auditRepo, metricsSvc, logr)
	if cfg.Scanner.Enabled {
		scannerSvc.StartSchedule(ctx, cfg.Scanner.Interval)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	internshipHandler := handler.NewInternshipHandler(internshipSvc)
	alertHandler := handler.NewAlertHandler(alertSvc, scannerSvc, exportSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc)
	configurationHandler := handler.NewConfigurationHandler(configurationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	// Reads stay open; every mutation requires a verified actor so the
	// audit trail always has someone to attribute the change to.
	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalActor(cfg.Auth.TokenSecret))
	requireActor := middleware.Actor(cfg.Auth.TokenSecret)

	internships := api.Group("/internships")
	{
		internships.GET("", internshipHandler.List)
		internships.POST("", requireActor, internshipHandler.Create)
		internships.GET("/:id", internshipHandler.Get)
		internships.PUT("/:id/workload", requireActor, internshipHandler.UpdateWorkload)
		internships.PUT("/:id/reports/:index", requireActor, internshipHandler.RecordReport)
		internships.PUT("/:id/status", requireActor, internshipHandler.Transition)
		internships.GET("/:id/certificate-eligibility", certificateHandler.Eligibility)
	}

	alerts := api.Group("/alerts")
	{
		alerts.GET("", alertHandler.List)
		alerts.POST("/scan", requireActor, alertHandler.Scan)
		alerts.POST("/:id/read", requireActor, alertHandler.MarkRead)
		alerts.POST("/:id/dismiss", requireActor, alertHandler.Dismiss)
		if cfg.Exports.Enabled {
			alerts.GET("/export", alertHandler.Export)
		}
	}

	if cfg.Dashboard.Enabled {
		api.GET("/dashboard", dashboardHandler.Summary)
	}

	settings := api.Group("/settings")
	{
		settings.GET("", configurationHandler.List)
		settings.GET("/:key", configurationHandler.Get)
		settings.PUT("/:key", requireActor, configurationHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
