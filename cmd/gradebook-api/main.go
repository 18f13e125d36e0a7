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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gradehub/gradebook-api/api/swagger"
	"github.com/gradehub/gradebook-api/internal/handler"
	"github.com/gradehub/gradebook-api/internal/middleware"
	"github.com/gradehub/gradebook-api/internal/repository"
	"github.com/gradehub/gradebook-api/internal/service"
	"github.com/gradehub/gradebook-api/pkg/cache"
	"github.com/gradehub/gradebook-api/pkg/config"
	"github.com/gradehub/gradebook-api/pkg/database"
	"github.com/gradehub/gradebook-api/pkg/jobs"
	"github.com/gradehub/gradebook-api/pkg/logger"
	corsmiddleware "github.com/gradehub/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gradehub/gradebook-api/pkg/middleware/requestid"
)

// @title Gradebook API
// @version 0.1.0
// @description Weighted average computation and semester reporting for school gradebooks
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	// Redis is optional. Reports fall back to direct computation when the
	// cache is unavailable.
	var cacheRepo service.CacheRepository
	cacheEnabled := false
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			cacheEnabled = true
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ReportTTL, logr, cacheEnabled)

	gradebookRepo := repository.NewGradebookRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	averageRepo := repository.NewAverageRepository(db)
	weightRepo := repository.NewWeightRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	reportRepo := repository.NewReportRepository(db)

	validate := validator.New()

	gradebookSvc := service.NewGradebookService(db, gradebookRepo, scoreRepo, averageRepo, weightRepo, enrollmentRepo, schoolRepo,
		reportRepo, cacheSvc, metrics, validate, logr, cfg.Grading.DefaultPassMark, cfg.Grading.DefaultMaxClassSize)
	recomputeSvc := service.NewRecomputeService(gradebookSvc, jobs.QueueConfig{
		Workers:    cfg.Recompute.Workers,
		BufferSize: cfg.Recompute.QueueSize,
		MaxRetries: cfg.Recompute.MaxRetries,
		RetryDelay: cfg.Recompute.RetryDelay,
		Logger:     logr,
	}, logr)
	reportSvc := service.NewReportService(gradebookRepo, averageRepo, reportRepo, enrollmentRepo, schoolRepo, weightRepo,
		cacheSvc, metrics, logr, cfg.Cache.ReportTTL, cfg.Grading.DefaultPassMark, cfg.Grading.DefaultMaxClassSize)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, schoolRepo, weightRepo, reportRepo, validate, logr,
		cfg.Grading.DefaultPassMark, cfg.Grading.DefaultMaxClassSize)

	gradebookHandler := handler.NewGradebookHandler(gradebookSvc, recomputeSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	studentHandler := handler.NewStudentHandler(gradebookSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/gradebooks/entries", gradebookHandler.EnterScores)
		api.POST("/gradebooks/recompute", gradebookHandler.Recompute)
		api.GET("/reports/semester-class", reportHandler.ClassSemester)
		api.GET("/reports/semester-class/export", reportHandler.ExportClassSemester)
		api.GET("/reports/subject", reportHandler.Subject)
		api.GET("/students/:studentId/scores", studentHandler.Scores)
		api.POST("/enrollments", enrollmentHandler.Enroll)
		api.GET("/enrollments", enrollmentHandler.Roster)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recomputeSvc.Start(ctx)
	defer recomputeSvc.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
