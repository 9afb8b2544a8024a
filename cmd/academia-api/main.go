package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/handler"
	"github.com/FleerJam/appGestionAcademica/internal/middleware"
	"github.com/FleerJam/appGestionAcademica/internal/models"
	"github.com/FleerJam/appGestionAcademica/internal/repository"
	"github.com/FleerJam/appGestionAcademica/internal/service"
	rediscache "github.com/FleerJam/appGestionAcademica/pkg/cache"
	"github.com/FleerJam/appGestionAcademica/pkg/config"
	"github.com/FleerJam/appGestionAcademica/pkg/database"
	"github.com/FleerJam/appGestionAcademica/pkg/jobs"
	"github.com/FleerJam/appGestionAcademica/pkg/logger"
	corsmiddleware "github.com/FleerJam/appGestionAcademica/pkg/middleware/cors"
	reqidmiddleware "github.com/FleerJam/appGestionAcademica/pkg/middleware/requestid"
)

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
	defer db.Close()

	var cache *redis.Client
	if c, err := rediscache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, alias cache disabled", "error", err)
	} else {
		cache = c
		defer cache.Close()
	}

	validate := validator.New()

	centerRepo := repository.NewCenterRepository(db)
	personRepo := repository.NewPersonRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeDetailRepo := repository.NewGradeDetailRepository(db)
	aliasRepo := repository.NewAliasRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	statusSvc := service.NewStatusService(courseRepo, enrollmentRepo, gradeDetailRepo, logr)
	centerSvc := service.NewCenterService(centerRepo, validate, logr)
	personSvc := service.NewPersonService(personRepo, centerRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, evaluationRepo, statusSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, personRepo, courseRepo, evaluationRepo, gradeDetailRepo, validate, logr)
	importSvc := service.NewImportService(courseRepo, evaluationRepo, personRepo, centerRepo, enrollmentRepo, gradeDetailRepo, aliasRepo,
		cache, cfg.Imports.AliasCacheTTL, cfg.Imports.MaxRows, validate, logr)
	exportSvc := service.NewExportService(enrollmentRepo, courseRepo, cfg.Exports.PDFTitlePrefix, logr)

	ctx := context.Background()

	sweepQueue := jobs.NewQueue("status-sweep", func(ctx context.Context, job jobs.Job) error {
		report, err := statusSvc.MaintenanceSweep(ctx)
		if err != nil {
			return err
		}
		metricsSvc.ObserveSweep(report.Settled)
		return nil
	}, jobs.QueueConfig{Workers: 1, MaxRetries: cfg.Imports.WorkerRetries, Logger: logr})
	sweepQueue.Start(ctx)
	defer sweepQueue.Stop()

	if cfg.Sweep.Enabled {
		if err := sweepQueue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "startup-sweep"}); err != nil {
			logr.Warn("failed to enqueue startup sweep", zap.Error(err))
		}
	}

	authHandler := handler.NewAuthHandler(authSvc)
	centerHandler := handler.NewCenterHandler(centerSvc)
	personHandler := handler.NewPersonHandler(personSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, statusSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	importHandler := handler.NewImportHandler(importSvc, exportSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/centers", centerHandler.List)
		protected.POST("/centers", middleware.RequireRole(models.UserRoleAdmin), centerHandler.Create)

		protected.GET("/people", personHandler.List)
		protected.GET("/people/:id", personHandler.Get)
		protected.POST("/people", personHandler.Create)
		protected.PUT("/people/:id", personHandler.Update)

		protected.GET("/courses", courseHandler.List)
		protected.GET("/courses/:id", courseHandler.Get)
		protected.POST("/courses", middleware.RequireRole(models.UserRoleAdmin), courseHandler.Create)
		protected.PUT("/courses/:id", middleware.RequireRole(models.UserRoleAdmin), courseHandler.Update)
		protected.PUT("/courses/:id/evaluations", middleware.RequireRole(models.UserRoleAdmin), courseHandler.ReplaceEvaluations)
		protected.POST("/courses/:id/recompute", courseHandler.Recompute)

		protected.GET("/enrollments", enrollmentHandler.List)
		protected.POST("/enrollments", enrollmentHandler.Matriculate)
		protected.POST("/enrollments/:id/scores", enrollmentHandler.RecordScore)

		protected.POST("/imports", importHandler.Run)
		protected.POST("/imports/csv", importHandler.RunCSV)

		protected.GET("/exports/courses/:id/report.pdf", exportHandler.CourseReportPDF)
		protected.GET("/exports/courses/:id/roster.csv", exportHandler.CourseRosterCSV)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
