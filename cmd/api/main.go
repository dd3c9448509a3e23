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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-backoffice-api/api/swagger"
	"github.com/noah-isme/school-backoffice-api/internal/handler"
	"github.com/noah-isme/school-backoffice-api/internal/middleware"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	"github.com/noah-isme/school-backoffice-api/internal/repository"
	"github.com/noah-isme/school-backoffice-api/internal/service"
	"github.com/noah-isme/school-backoffice-api/pkg/cache"
	"github.com/noah-isme/school-backoffice-api/pkg/config"
	"github.com/noah-isme/school-backoffice-api/pkg/database"
	"github.com/noah-isme/school-backoffice-api/pkg/jobs"
	"github.com/noah-isme/school-backoffice-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-backoffice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-backoffice-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-backoffice-api/pkg/storage"
)

// @title School Back Office API
// @version 1.0.0
// @description Admissions, student lifecycle, staff, fees and payroll management.
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir, "")
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	enquiryRepo := repository.NewEnquiryRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	salaryConfigRepo := repository.NewSalaryConfigRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "school-backoffice-api",
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	enquirySvc := service.NewEnquiryService(enquiryRepo, logr)
	admissionSvc := service.NewAdmissionService(enquiryRepo, registrationRepo, studentRepo, userRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, salaryConfigRepo, logr)
	feeSvc := service.NewFeeService(feeRepo, discountRepo, studentRepo, userRepo, logr)
	payrollSvc := service.NewPayrollService(salaryConfigRepo, payrollRepo, employeeRepo, userRepo, logr)
	uploadSvc := service.NewUploadService(uploadStore, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, feeRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(exportJobRepo, studentRepo, employeeRepo, feeRepo, exportStore, signer, service.ExportServiceConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}, logr)

	exportQueue := jobs.NewQueue("exports", exportSvc.Process, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	exportSvc.SetQueue(exportQueue)
	exportSvc.SetMetrics(metricsSvc)
	exportSvc.StartCleanup(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	enquiryHandler := handler.NewEnquiryHandler(enquirySvc, admissionSvc)
	registrationHandler := handler.NewRegistrationHandler(admissionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, admissionSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	payrollHandler := handler.NewPayrollHandler(payrollSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/uploads", cfg.Uploads.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Routes reachable without a bearer token.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/exports/download/:token", exportHandler.Download)

	adminOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	auth := api.Group("", middleware.JWT(authSvc))
	{
		auth.POST("/auth/logout", authHandler.Logout)
		auth.POST("/auth/change-password", authHandler.ChangePassword)
		auth.GET("/auth/me", authHandler.Me)

		auth.GET("/dashboard/summary", dashboardHandler.Summary)
		auth.POST("/dashboard/summary/refresh", adminOnly, dashboardHandler.Refresh)

		auth.GET("/enquiries", enquiryHandler.List)
		auth.POST("/enquiries", enquiryHandler.Create)
		auth.GET("/enquiries/:id", enquiryHandler.Get)
		auth.PUT("/enquiries/:id", enquiryHandler.Update)
		auth.PATCH("/enquiries/:id/status", enquiryHandler.UpdateStatus)
		auth.POST("/enquiries/:id/promote", enquiryHandler.Promote)
		auth.DELETE("/enquiries/:id", enquiryHandler.Delete)
		auth.POST("/enquiries/:id/restore", enquiryHandler.Restore)
		auth.DELETE("/enquiries/:id/purge", adminOnly, enquiryHandler.Purge)

		auth.GET("/registrations", registrationHandler.List)
		auth.POST("/registrations", registrationHandler.Create)
		auth.GET("/registrations/:id", registrationHandler.Get)
		auth.POST("/registrations/:id/review", adminOnly, registrationHandler.Review)
		auth.POST("/registrations/:id/complete", registrationHandler.Complete)

		auth.GET("/students", studentHandler.List)
		auth.POST("/students", adminOnly, studentHandler.Create)
		auth.GET("/students/:id", studentHandler.Get)
		auth.PUT("/students/:id", studentHandler.Update)
		auth.POST("/students/:id/finalize", studentHandler.Finalize)
		auth.POST("/students/:id/toggle-status", adminOnly, studentHandler.ToggleStatus)
		auth.POST("/students/:id/graduate", adminOnly, studentHandler.Graduate)
		auth.POST("/students/import", adminOnly, studentHandler.BulkImport)

		auth.GET("/employees", employeeHandler.List)
		auth.GET("/employees/:id", employeeHandler.Get)
		auth.POST("/employees", adminOnly, employeeHandler.Create)
		auth.PUT("/employees/:id", adminOnly, employeeHandler.Update)
		auth.POST("/employees/:id/toggle-status", adminOnly, employeeHandler.ToggleStatus)
		auth.DELETE("/employees/:id", adminOnly, employeeHandler.Delete)

		auth.GET("/fees/structures", feeHandler.ListStructures)
		auth.POST("/fees/structures", adminOnly, feeHandler.CreateStructure)
		auth.PUT("/fees/structures/:id", adminOnly, feeHandler.UpdateStructure)
		auth.DELETE("/fees/structures/:id", adminOnly, feeHandler.DeleteStructure)
		auth.GET("/fees/payments", feeHandler.ListPayments)
		auth.POST("/fees/payments", feeHandler.RecordPayment)

		auth.GET("/discounts", feeHandler.ListDiscounts)
		auth.POST("/discounts", adminOnly, feeHandler.CreateDiscount)
		auth.PUT("/discounts/:id", adminOnly, feeHandler.UpdateDiscount)
		auth.DELETE("/discounts/:id", adminOnly, feeHandler.DeleteDiscount)

		auth.GET("/payroll/configs", payrollHandler.ListConfigs)
		auth.POST("/payroll/configs", adminOnly, payrollHandler.CreateConfig)
		auth.PUT("/payroll/configs/:id", adminOnly, payrollHandler.UpdateConfig)
		auth.DELETE("/payroll/configs/:id", adminOnly, payrollHandler.DeleteConfig)
		auth.GET("/payroll/payments", payrollHandler.ListPayments)
		auth.POST("/payroll/payments", adminOnly, payrollHandler.RecordPayment)

		auth.GET("/exports", exportHandler.List)
		auth.POST("/exports", middleware.Audit(userRepo, models.AuditActionExportCreate, "export_jobs"), exportHandler.Create)
		auth.GET("/exports/:id", exportHandler.Get)

		uploadAudit := middleware.Audit(userRepo, models.AuditActionFileUpload, "uploads")
		auth.POST("/uploads/photos", uploadAudit, uploadHandler.SavePhoto)
		auth.POST("/uploads/photos/crop", uploadAudit, uploadHandler.CropPhoto)
		auth.POST("/uploads/documents", uploadAudit, uploadHandler.SaveDocument)
		auth.DELETE("/uploads", adminOnly, uploadHandler.Delete)

		auth.GET("/users", adminOnly, userHandler.List)
		auth.POST("/users", adminOnly, userHandler.Create)
		auth.GET("/users/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), "SELF"), userHandler.Get)
		auth.PUT("/users/:id", adminOnly, userHandler.Update)
		auth.DELETE("/users/:id", adminOnly, userHandler.Delete)
		auth.GET("/audit-logs", adminOnly, userHandler.AuditLogs)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
