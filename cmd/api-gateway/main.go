package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campus-osa/care-desk-api/api/swagger"
	"github.com/campus-osa/care-desk-api/internal/handler"
	"github.com/campus-osa/care-desk-api/internal/middleware"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/realtime"
	"github.com/campus-osa/care-desk-api/internal/repository"
	"github.com/campus-osa/care-desk-api/internal/service"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	"github.com/campus-osa/care-desk-api/pkg/cache"
	"github.com/campus-osa/care-desk-api/pkg/config"
	"github.com/campus-osa/care-desk-api/pkg/database"
	"github.com/campus-osa/care-desk-api/pkg/logger"
	corsmiddleware "github.com/campus-osa/care-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-osa/care-desk-api/pkg/middleware/requestid"
	"github.com/campus-osa/care-desk-api/pkg/storage"
)

// @title Care Desk API
// @version 1.0.0
// @description Student-welfare case management
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := realtime.NewBus(redisClient, cfg.Realtime, logr)
	bus.Start(ctx)
	defer bus.Stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	counselingRepo := repository.NewCounselingRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	resetRepo := repository.NewResetRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Services.
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	transitionSvc := service.NewTransitionService(db, notificationRepo, auditRepo, bus, logr,
		service.NewCounselingAdapter(counselingRepo),
		service.NewSupportAdapter(supportRepo, counselingRepo),
		service.NewAdmissionAdapter(admissionRepo, courseRepo),
	)
	transitionSvc.SetMetrics(metricsSvc)
	counselingSvc := service.NewCounselingService(counselingRepo, studentRepo, auditRepo, bus, validate, logr)
	supportSvc := service.NewSupportService(supportRepo, auditRepo, bus, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, courseRepo, auditRepo, bus, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)
	documentStore, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to open document storage", "error", err)
	}
	documentSvc := service.NewDocumentService(documentStore,
		storage.NewSignedURLSigner(cfg.Storage.SignSecret, cfg.Storage.SignTTL), validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)
	dashboardSvc := service.NewDashboardService(counselingRepo, supportRepo, admissionRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	resetSvc := service.NewResetService(resetRepo, cacheRepo, auditRepo, cfg.Reset.Enabled, logr)

	liveViews := service.NewLiveViewService(logr)
	liveViews.SetMetrics(metricsSvc)
	if cfg.Dashboard.Enabled {
		if err := registerLiveViews(ctx, liveViews, bus, redisClient, cfg, logr,
			counselingRepo, supportRepo, admissionRepo); err != nil {
			logr.Sugar().Fatalw("failed to open live views", "error", err)
		}
		if err := liveViews.Start(ctx); err != nil {
			logr.Sugar().Fatalw("failed to start live views", "error", err)
		}
		defer liveViews.Close()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	counselingHandler := handler.NewCounselingHandler(counselingSvc, transitionSvc)
	supportHandler := handler.NewSupportHandler(supportSvc, transitionSvc)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc, transitionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	liveHandler := handler.NewLiveHandler(liveViews)
	adminHandler := handler.NewAdminHandler(resetSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		if cfg.Dashboard.Enabled && !liveViews.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "live views seeding"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	authed.POST("/counseling-cases", counselingHandler.Create)
	authed.GET("/counseling-cases", counselingHandler.List)
	authed.GET("/counseling-cases/:id", counselingHandler.Get)
	authed.GET("/counseling-cases/:id/transitions", counselingHandler.Actions)
	authed.POST("/counseling-cases/:id/transitions", middleware.RequireStaff(), counselingHandler.Transition)
	authed.DELETE("/counseling-cases/:id", middleware.RequireRoles(models.RoleAdmin), counselingHandler.Delete)

	authed.POST("/support-cases", supportHandler.Create)
	authed.GET("/support-cases", supportHandler.List)
	authed.GET("/support-cases/:id", supportHandler.Get)
	authed.GET("/support-cases/:id/transitions", supportHandler.Actions)
	authed.POST("/support-cases/:id/transitions", middleware.RequireStaff(), supportHandler.Transition)
	authed.DELETE("/support-cases/:id", middleware.RequireRoles(models.RoleAdmin), supportHandler.Delete)

	authed.POST("/admission-applications", admissionHandler.Create)
	authed.GET("/admission-applications", admissionHandler.List)
	authed.GET("/admission-applications/:id", admissionHandler.Get)
	authed.GET("/admission-applications/:id/transitions", admissionHandler.Actions)
	authed.POST("/admission-applications/:id/transitions", middleware.RequireStaff(), admissionHandler.Transition)
	authed.POST("/admission-applications/:id/attendance", middleware.RequireStaff(),
		middleware.Audit(auditRepo, models.AuditActionAttendance), admissionHandler.Attendance)
	authed.DELETE("/admission-applications/:id", middleware.RequireRoles(models.RoleAdmin), admissionHandler.Delete)

	staff := authed.Group("")
	staff.Use(middleware.RequireStaff())
	staff.GET("/students", studentHandler.List)
	staff.GET("/students/:id", studentHandler.Get)
	staff.GET("/dashboard/queues", dashboardHandler.Summary)
	staff.POST("/dashboard/queues/:department/ack", dashboardHandler.Acknowledge)
	staff.GET("/dashboard/live/:collection", liveHandler.Snapshot)

	authed.POST("/documents", documentHandler.Upload)
	// Downloads authenticate through the signed token itself.
	api.GET("/documents/:token", documentHandler.Download)

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/count", notificationHandler.Count)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/audit-logs", auditHandler.List)
	admin.POST("/admin/reset", adminHandler.Reset)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type counselingLister interface {
	List(ctx context.Context, filter models.CounselingFilter) ([]models.CounselingCase, error)
}

type supportLister interface {
	List(ctx context.Context, filter models.SupportFilter) ([]models.SupportCase, error)
}

type admissionLister interface {
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionApplication, error)
}

func registerLiveViews(
	ctx context.Context,
	views *service.LiveViewService,
	bus *realtime.Bus,
	client *redis.Client,
	cfg *config.Config,
	logr *zap.Logger,
	counseling counselingLister,
	support supportLister,
	admissions admissionLister,
) error {
	specs := []struct {
		collection string
		baseline   realtime.BaselineFunc
	}{
		{
			collection: string(workflow.FamilyCounseling),
			baseline: func(ctx context.Context) ([]json.RawMessage, error) {
				cases, err := counseling.List(ctx, models.CounselingFilter{})
				if err != nil {
					return nil, err
				}
				return marshalRecords(cases)
			},
		},
		{
			collection: string(workflow.FamilySupport),
			baseline: func(ctx context.Context) ([]json.RawMessage, error) {
				cases, err := support.List(ctx, models.SupportFilter{})
				if err != nil {
					return nil, err
				}
				return marshalRecords(cases)
			},
		},
		{
			collection: string(workflow.FamilyAdmission),
			baseline: func(ctx context.Context) ([]json.RawMessage, error) {
				apps, err := admissions.List(ctx, models.AdmissionFilter{})
				if err != nil {
					return nil, err
				}
				return marshalRecords(apps)
			},
		},
	}

	for _, spec := range specs {
		feed, err := realtime.NewRedisFeed(ctx, client, bus.Channel(spec.collection), cfg.Realtime.EventBuffer, logr)
		if err != nil {
			return err
		}
		views.Register(spec.collection, realtime.NewReconciler(realtime.ReconcilerConfig{
			Collection: spec.collection,
			Feed:       feed,
			Baseline:   spec.baseline,
			Logger:     logr,
		}))
	}
	return nil
}

func marshalRecords[T any](records []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}
