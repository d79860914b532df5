package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/escolar-dev/sie-enrollment-api/internal/handler"
	"github.com/escolar-dev/sie-enrollment-api/internal/middleware"
	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	"github.com/escolar-dev/sie-enrollment-api/internal/seed"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	"github.com/escolar-dev/sie-enrollment-api/pkg/cache"
	"github.com/escolar-dev/sie-enrollment-api/pkg/config"
	"github.com/escolar-dev/sie-enrollment-api/pkg/database"
	"github.com/escolar-dev/sie-enrollment-api/pkg/export"
	"github.com/escolar-dev/sie-enrollment-api/pkg/logger"
	corsmiddleware "github.com/escolar-dev/sie-enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/escolar-dev/sie-enrollment-api/pkg/middleware/requestid"
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}

	validate := validator.New()

	// Repositories.
	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	careerRepo := repository.NewCareerRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	careerSubjectRepo := repository.NewCareerSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionLogRepo := repository.NewSubmissionLogRepository(db)
	catalogCache := repository.NewCatalogCache(redisClient, logr)
	defer catalogCache.Close() //nolint:errcheck

	if err := seed.New(careerRepo, subjectRepo, logr).Run(context.Background()); err != nil {
		logr.Sugar().Warnw("catalog seeding failed", "error", err)
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	authSvc := service.NewAuthService(adminRepo, studentRepo, careerRepo, tokenSvc, validate, logr)
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, careerRepo, validate, logr)
	catalogSvc := service.NewCatalogService(careerRepo, subjectRepo, periodRepo, catalogCache, metricsSvc, cfg.Catalog.CacheTTL, validate, logr)
	careerSubjectSvc := service.NewCareerSubjectService(careerSubjectRepo, careerRepo, subjectRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, careerSubjectRepo, periodRepo, adminRepo, submissionLogRepo, validate, logr)
	submissionLogSvc := service.NewSubmissionLogService(submissionLogRepo, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr)

	// Handlers.
	cookieTTL := int(cfg.JWT.Expiration.Seconds())
	authHandler := handler.NewAuthHandler(authSvc, cfg.JWT.CookieName, cookieTTL)
	adminHandler := handler.NewAdminHandler(adminSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	careerSubjectHandler := handler.NewCareerSubjectHandler(careerSubjectSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	submissionLogHandler := handler.NewSubmissionLogHandler(submissionLogSvc, metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	authGuard := middleware.Auth(tokenSvc, cfg.JWT.CookieName)

	auth := r.Group("/auth")
	{
		auth.POST("/students-register", authHandler.RegisterStudent)
		auth.POST("/students-login", authHandler.LoginStudent)
		auth.POST("/admins-login", authHandler.LoginAdmin)
		auth.GET("/me", authGuard, authHandler.Me)
		auth.POST("/logout", authGuard, authHandler.Logout)
	}

	admins := r.Group("/admins", authGuard, middleware.AdminOnly())
	{
		admins.GET("", adminHandler.List)
		admins.GET("/:id", adminHandler.Get)
		admins.POST("", adminHandler.Create)
		admins.PATCH("/:id", adminHandler.Update)
		admins.DELETE("/:id", adminHandler.Delete)
	}

	students := r.Group("/students", authGuard, middleware.AdminOnly())
	{
		students.GET("", studentHandler.List)
		students.GET("/:id", studentHandler.Get)
		students.PATCH("/:id", studentHandler.Update)
		students.DELETE("/:id", studentHandler.Delete)
	}

	careers := r.Group("/careers")
	{
		careers.GET("", catalogHandler.ListCareers)
		careers.GET("/:id", catalogHandler.GetCareer)
		careers.POST("", authGuard, middleware.AdminOnly(), catalogHandler.CreateCareer)
		careers.PATCH("/:id", authGuard, middleware.AdminOnly(), catalogHandler.UpdateCareer)
		careers.DELETE("/:id", authGuard, middleware.AdminOnly(), catalogHandler.DeleteCareer)
	}

	subjects := r.Group("/subjects")
	{
		subjects.GET("", catalogHandler.ListSubjects)
		subjects.GET("/:id", catalogHandler.GetSubject)
		subjects.POST("", authGuard, middleware.AdminOnly(), catalogHandler.CreateSubject)
		subjects.PATCH("/:id", authGuard, middleware.AdminOnly(), catalogHandler.UpdateSubject)
		subjects.DELETE("/:id", authGuard, middleware.AdminOnly(), catalogHandler.DeleteSubject)
	}

	periods := r.Group("/periods")
	{
		periods.GET("", catalogHandler.ListPeriods)
		periods.GET("/:id", catalogHandler.GetPeriod)
		periods.POST("", authGuard, middleware.AdminOnly(), catalogHandler.CreatePeriod)
		periods.PATCH("/:id", authGuard, middleware.AdminOnly(), catalogHandler.UpdatePeriod)
		periods.DELETE("/:id", authGuard, middleware.AdminOnly(), catalogHandler.DeletePeriod)
	}

	careerSubjects := r.Group("/career-subjects")
	{
		careerSubjects.GET("", careerSubjectHandler.List)
		careerSubjects.GET("/:id", careerSubjectHandler.Get)
		careerSubjects.POST("", authGuard, middleware.AdminOnly(), careerSubjectHandler.Create)
		careerSubjects.DELETE("/:id", authGuard, middleware.AdminOnly(), careerSubjectHandler.Delete)
	}

	enrollments := r.Group("/enrollments", authGuard)
	{
		enrollments.GET("", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.List)
		enrollments.GET("/:id", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.Get)
		enrollments.POST("", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.Create)
		enrollments.PATCH("/:id", middleware.AdminOnly(), enrollmentHandler.Update)
		enrollments.POST("/:id/confirm", middleware.AdminOnly(), enrollmentHandler.Confirm)
		enrollments.POST("/:id/block", middleware.AdminOnly(), enrollmentHandler.Block)
		enrollments.DELETE("/:id", middleware.AdminOnly(), enrollmentHandler.Delete)
	}

	submissionLogs := r.Group("/submission-logs", authGuard, middleware.AdminOnly())
	{
		submissionLogs.GET("", submissionLogHandler.List)
		submissionLogs.GET("/export", submissionLogHandler.Export)
		submissionLogs.GET("/:id", submissionLogHandler.Get)
		submissionLogs.POST("", submissionLogHandler.Create)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
