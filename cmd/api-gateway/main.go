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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-routine-api/api/swagger"
	"github.com/noah-isme/sma-routine-api/internal/handler"
	"github.com/noah-isme/sma-routine-api/internal/middleware"
	"github.com/noah-isme/sma-routine-api/internal/models"
	"github.com/noah-isme/sma-routine-api/internal/repository"
	"github.com/noah-isme/sma-routine-api/internal/service"
	"github.com/noah-isme/sma-routine-api/pkg/cache"
	"github.com/noah-isme/sma-routine-api/pkg/config"
	"github.com/noah-isme/sma-routine-api/pkg/database"
	"github.com/noah-isme/sma-routine-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-routine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-routine-api/pkg/middleware/requestid"
)

// @title School Routine API
// @version 1.0.0
// @description Daily schedule resolution, session lifecycle and fee installment planning for schools.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Schedule.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("schedule cache disabled: redis unavailable", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	metrics := service.NewMetricsService()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, db, redisClient, metrics, logr)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func registerRoutes(r *gin.Engine, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService, logr *zap.Logger) {
	validate := validator.New()

	timeSlotRepo := repository.NewTimeSlotRepository(db)
	routineRepo := repository.NewRoutineRepository(db)
	sessionRepo := repository.NewDailySessionRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	feePlanRepo := repository.NewFeePlanRepository(db)
	allocationRepo := repository.NewFeeAllocationRepository(db)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		redisRepo := repository.NewCacheRepository(redisClient)
		cacheRepo = redisRepo
		checks["redis"] = redisRepo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)

	resolver := service.NewScheduleResolverService(
		timeSlotRepo,
		routineRepo,
		sessionRepo,
		directoryRepo,
		db,
		cacheSvc,
		auditRepo,
		metrics,
		validate,
		logr.Named("schedule"),
		service.ScheduleResolverConfig{CacheTTL: cfg.Schedule.CacheTTL},
	)
	routines := service.NewRoutineService(timeSlotRepo, routineRepo, cacheSvc, auditRepo, validate, logr.Named("routine"))
	feePlans := service.NewFeePlanService(
		feePlanRepo,
		allocationRepo,
		db,
		auditRepo,
		metrics,
		validate,
		logr.Named("fees"),
		service.FeePlanConfig{Currency: cfg.Fees.Currency, MaxInstallments: cfg.Fees.MaxInstallments},
	)
	allocations := service.NewFeeAllocationService(feePlanRepo, allocationRepo, db, auditRepo, validate, logr.Named("fees"))
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	scheduleHandler := handler.NewScheduleHandler(resolver)
	routineHandler := handler.NewRoutineHandler(routines)
	feeHandler := handler.NewFeeHandler(feePlans, allocations)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
	}

	school := r.Group(cfg.APIPrefix+"/schools/:"+handler.SchoolParam, middleware.JWT(tokens), middleware.TenantScope(handler.SchoolParam))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)
	finance := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	viewers := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher, models.RoleStudent)

	school.GET("/schedules", viewers, scheduleHandler.Resolve)
	school.POST("/schedules/overrides", staff, scheduleHandler.ApplyOverride)
	school.POST("/schedules/attendance", staff, scheduleHandler.MarkAttendance)
	school.PATCH("/sessions/:sessionId/status", staff, scheduleHandler.TransitionStatus)

	school.GET("/time-slots", viewers, routineHandler.ListTimeSlots)
	school.POST("/time-slots", admin, routineHandler.CreateTimeSlot)
	school.DELETE("/time-slots/:slotId", admin, routineHandler.DeactivateTimeSlot)
	school.GET("/routines", viewers, routineHandler.ListRoutine)
	school.PUT("/routines", admin, routineHandler.UpsertRoutine)
	school.DELETE("/routines/:routineId", admin, routineHandler.DeactivateRoutine)

	school.GET("/fee-plans", finance, feeHandler.ListPlans)
	school.POST("/fee-plans", admin, feeHandler.CreatePlan)
	school.GET("/fee-plans/:planId", finance, feeHandler.GetPlan)
	school.PUT("/fee-plans/:planId", admin, feeHandler.UpdatePlan)
	school.POST("/fee-plans/:planId/allocations", finance, feeHandler.Allocate)
	school.GET("/students/:studentId/fee-allocations", finance, feeHandler.ListStudentAllocations)
	school.POST("/fee-allocations/:allocationId/payments", finance, feeHandler.RecordPayment)
}
