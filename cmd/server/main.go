package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/app"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/scheduler"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"github.com/procurement/backend/internal/interfaces/http/handler"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
	"github.com/procurement/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting procurement backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracer, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics()
	}

	application, err := app.New(cfg, log, metrics)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	if err := application.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			log.Error("Error closing application", zap.Error(err))
		}
	}()
	log.Info("Database connected, event bus started",
		zap.Bool("distributed_cache", application.Stores.Distributed()),
	)

	if cfg.Scheduler.Enabled {
		stop, err := startScheduler(cfg, application, log)
		if err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer stop()
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	s := application.Services
	system := handler.NewSystemHandler(version, map[string]handler.Pinger{
		"database": application.DB,
		"redis":    application.Stores,
	})
	engine := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		Metrics:     cfg.Metrics,
		Tracing:     tracer.IsEnabled(),
		ServiceName: cfg.Telemetry.ServiceName,
		Logger:      log,
		Collector:   metrics,
	}, system.Health)

	router.Mount(engine, router.Handlers{
		Auth:         handler.NewAuthHandler(s.Auth),
		User:         handler.NewUserHandler(s.Users),
		Supplier:     handler.NewSupplierHandler(s.Suppliers, s.Evaluations),
		Onboarding:   handler.NewOnboardingHandler(s.Onboarding),
		Portal:       handler.NewPortalHandler(s.Onboarding),
		Approval:     handler.NewApprovalHandler(s.Approval),
		Requisition:  handler.NewRequisitionHandler(s.Requisitions),
		Contract:     handler.NewContractHandler(s.Contracts),
		Spend:        handler.NewSpendHandler(s.Spend),
		Evaluation:   handler.NewEvaluationHandler(s.Evaluations),
		Dashboard:    handler.NewDashboardHandler(s.Dashboard),
		Notification: handler.NewNotificationHandler(s.Notifier),
		Cron:         handler.NewCronHandler(s.Reminders, s.Contracts, s.Users),
	}, router.Guards{
		Authenticate: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator: application.JWT,
			Logger:    log,
		}),
		CronSecret:    cfg.Cron.Secret,
		PublicLimiter: router.PublicLimiter(cfg.HTTP),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// startScheduler runs the sweep worker pool and the cron trigger that feeds
// it. The returned func stops both.
func startScheduler(cfg *config.Config, application *app.App, log *zap.Logger) (func(), error) {
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Workers:       cfg.Scheduler.Workers,
		JobTimeout:    cfg.Scheduler.JobTimeout,
		RetryAttempts: cfg.Scheduler.RetryAttempts,
		RetryDelay:    cfg.Scheduler.RetryDelay,
	}, log)
	application.RegisterJobs(sched)
	if err := sched.Start(context.Background()); err != nil {
		return nil, err
	}

	trigger := scheduler.NewCronTrigger(sched, time.UTC, log)
	if err := trigger.Add(cfg.Scheduler.ReminderSchedule, scheduler.JobKindReminderSweep); err != nil {
		_ = sched.Stop(context.Background())
		return nil, err
	}
	if err := trigger.Add(cfg.Scheduler.ContractSchedule, scheduler.JobKindContractSweep); err != nil {
		_ = sched.Stop(context.Background())
		return nil, err
	}
	if err := trigger.Start(context.Background()); err != nil {
		_ = sched.Stop(context.Background())
		return nil, err
	}
	log.Info("Scheduler started",
		zap.Int("workers", cfg.Scheduler.Workers),
		zap.String("reminder_schedule", cfg.Scheduler.ReminderSchedule),
		zap.String("contract_schedule", cfg.Scheduler.ContractSchedule),
	)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := trigger.Stop(ctx); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
		if err := sched.Stop(ctx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}, nil
}
