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

	_ "github.com/salaedu/sala-api/api/swagger"
	"github.com/salaedu/sala-api/internal/handler"
	"github.com/salaedu/sala-api/internal/middleware"
	"github.com/salaedu/sala-api/internal/repository"
	"github.com/salaedu/sala-api/internal/service"
	"github.com/salaedu/sala-api/pkg/cache"
	"github.com/salaedu/sala-api/pkg/config"
	"github.com/salaedu/sala-api/pkg/database"
	"github.com/salaedu/sala-api/pkg/jobs"
	"github.com/salaedu/sala-api/pkg/logger"
	corsmiddleware "github.com/salaedu/sala-api/pkg/middleware/cors"
	reqidmiddleware "github.com/salaedu/sala-api/pkg/middleware/requestid"
)

// @title Sala API
// @version 1.0.0
// @description Multi-school management platform
// @BasePath /api/v1
// @schemes http
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	scopeRepo := repository.NewScopeRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	principalRepo := repository.NewPrincipalRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	resultRepo := repository.NewAcademicResultRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	scopeService := service.NewScopeService(scopeRepo, logr)
	accountService := service.NewAccountService(db, userRepo, principalRepo, teacherRepo, studentRepo, validate, logr)
	schoolService := service.NewSchoolService(db, schoolRepo, principalRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, validate, logr)
	classService := service.NewClassService(db, classRepo, scheduleRepo, notificationRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, logr)
	teacherService := service.NewTeacherService(teacherRepo, logr)
	studentService := service.NewStudentService(studentRepo, logr)
	principalService := service.NewPrincipalService(principalRepo, logr)
	attendanceService := service.NewAttendanceService(db, attendanceRepo, classRepo, studentRepo, notificationRepo, validate, logr)
	resultService := service.NewAcademicResultService(resultRepo, classRepo, validate, logr, cfg.Grading)
	eventService := service.NewEventService(eventRepo, notificationRepo, validate, logr)
	notificationService := service.NewNotificationService(notificationRepo, cacheRepo, logr,
		cfg.Notifications.RecentLimit, cfg.Notifications.CountCacheTTL)

	var scoreService *service.ScoreService
	warmQueue := jobs.NewQueue("report-warm", func(ctx context.Context, job jobs.Job) error {
		studentID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return scoreService.WarmReport(ctx, studentID)
	}, jobs.QueueConfig{
		Workers:    cfg.Reports.WarmWorkers,
		BufferSize: cfg.Reports.WarmQueueSize,
		MaxRetries: cfg.Reports.WarmRetries,
		RetryDelay: cfg.Reports.WarmRetryInterval,
		Logger:     logr,
	})
	scoreService = service.NewScoreService(scoreRepo, studentRepo, classRepo, cacheRepo, notificationRepo,
		warmQueue, validate, logr, cfg.Grading, cfg.Reports.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warmQueue.Start(ctx)
	defer warmQueue.Stop()

	metricsService := service.NewMetricsService()
	cacheRepo.OnRead(metricsService.RecordCacheOperation)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	handler.RegisterHealth(r, func() error {
		return db.Ping()
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Accounts:      handler.NewAccountHandler(accountService),
		Schools:       handler.NewSchoolHandler(schoolService),
		Subjects:      handler.NewSubjectHandler(subjectService),
		Classes:       handler.NewClassHandler(classService, scheduleService),
		Schedules:     handler.NewScheduleHandler(scheduleService),
		Teachers:      handler.NewTeacherHandler(teacherService),
		Students:      handler.NewStudentHandler(studentService),
		Principals:    handler.NewPrincipalHandler(principalService),
		Attendance:    handler.NewAttendanceHandler(attendanceService, scopeService, metricsService),
		Scores:        handler.NewScoreHandler(scoreService, scopeService, metricsService),
		Results:       handler.NewAcademicResultHandler(resultService, metricsService),
		Events:        handler.NewEventHandler(eventService),
		Notifications: handler.NewNotificationHandler(notificationService),
	}, authService, scopeService)

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
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
