// Package app assembles repositories, services and event subscriptions from
// configuration. The API server and the operator CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	approvalapp "github.com/procurement/backend/internal/application/approval"
	contractapp "github.com/procurement/backend/internal/application/contract"
	dashboardapp "github.com/procurement/backend/internal/application/dashboard"
	evaluationapp "github.com/procurement/backend/internal/application/evaluation"
	identityapp "github.com/procurement/backend/internal/application/identity"
	notificationapp "github.com/procurement/backend/internal/application/notification"
	onboardingapp "github.com/procurement/backend/internal/application/onboarding"
	reminderapp "github.com/procurement/backend/internal/application/reminder"
	requisitionapp "github.com/procurement/backend/internal/application/requisition"
	spendapp "github.com/procurement/backend/internal/application/spend"
	supplierapp "github.com/procurement/backend/internal/application/supplier"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/cache"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/event"
	"github.com/procurement/backend/internal/infrastructure/mail"
	"github.com/procurement/backend/internal/infrastructure/persistence"
	"github.com/procurement/backend/internal/infrastructure/scheduler"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Repositories are the gorm repositories of every bounded context
type Repositories struct {
	Users         *persistence.GormUserRepository
	Suppliers     *persistence.GormSupplierRepository
	Onboarding    *persistence.GormOnboardingRepository
	Requisitions  *persistence.GormRequisitionRepository
	Contracts     *persistence.GormContractRepository
	Spend         *persistence.GormSpendRepository
	Evaluations   *persistence.GormEvaluationRepository
	Notifications *persistence.GormNotificationRepository
	Dashboard     *persistence.GormDashboardRepository
}

// Services are the application services
type Services struct {
	Auth         *identityapp.AuthService
	Users        *identityapp.UserService
	Suppliers    *supplierapp.SupplierService
	Onboarding   *onboardingapp.Service
	Approval     *approvalapp.Service
	Requisitions *requisitionapp.Service
	Contracts    *contractapp.Service
	Spend        *spendapp.Service
	Evaluations  *evaluationapp.Service
	Dashboard    *dashboardapp.Service
	Notifier     *notificationapp.Notifier
	Reminders    *reminderapp.Service
}

// App holds the assembled process state
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *persistence.Database
	Tx       *persistence.GormTxManager
	Stores   *cache.Stores
	Bus      *event.InMemoryEventBus
	Metrics  *telemetry.Metrics
	JWT      *auth.JWTService
	Repos    Repositories
	Services Services

	links *approvalapp.Links
	urls  notificationapp.URLs
}

// New connects to the database and cache, builds every service and
// subscribes the cross-context event handlers. The bus is not started.
func New(cfg *config.Config, log *zap.Logger, metrics *telemetry.Metrics) (*App, error) {
	db, err := persistence.NewDatabase(cfg.Database, cfg.Log, cfg.Telemetry.DBTraceEnabled, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	objectStorage, err := newObjectStorage(cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	renderer, err := mail.NewRenderer(cfg.App.Name)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Tx:      persistence.NewGormTxManager(db.DB),
		Stores:  cache.NewStores(cfg.Redis, log),
		Bus:     event.NewInMemoryEventBus(log),
		Metrics: metrics,
		JWT:     auth.NewJWTService(cfg.JWT),
		Repos: Repositories{
			Users:         persistence.NewGormUserRepository(db.DB),
			Suppliers:     persistence.NewGormSupplierRepository(db.DB),
			Onboarding:    persistence.NewGormOnboardingRepository(db.DB),
			Requisitions:  persistence.NewGormRequisitionRepository(db.DB),
			Contracts:     persistence.NewGormContractRepository(db.DB),
			Spend:         persistence.NewGormSpendRepository(db.DB),
			Evaluations:   persistence.NewGormEvaluationRepository(db.DB),
			Notifications: persistence.NewGormNotificationRepository(db.DB),
			Dashboard:     persistence.NewGormDashboardRepository(db.DB),
		},
	}
	a.buildServices(objectStorage, mailer, renderer)
	a.subscribe()
	return a, nil
}

func newObjectStorage(cfg *config.Config, log *zap.Logger) (storage.ObjectStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, using in-memory presigning")
		return storage.NewMemoryStorage(cfg.App.BaseURL), nil
	}
	s3, err := storage.NewS3Storage(cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create object storage: %w", err)
	}
	return s3, nil
}

func (a *App) buildServices(objectStorage storage.ObjectStorage, mailer mail.Mailer, renderer *mail.Renderer) {
	cfg, log, r := a.Config, a.Logger, a.Repos
	currency := cfg.Requisition.Currency
	urls := notificationapp.URLs{BaseURL: cfg.App.BaseURL, PortalURL: cfg.App.PortalURL}
	actionTokens := auth.NewActionTokenService(cfg.Approval, cfg.JWT.Issuer)
	links := approvalapp.NewLinks(actionTokens, cfg.App.BaseURL)

	s := Services{
		Auth:        identityapp.NewAuthService(r.Users, a.JWT, log),
		Users:       identityapp.NewUserService(r.Users, log),
		Suppliers:   supplierapp.NewSupplierService(r.Suppliers, r.Onboarding, objectStorage),
		Onboarding:  onboardingapp.NewService(r.Onboarding, r.Suppliers, a.Tx, r.Users, objectStorage, cfg.Onboarding, currency, log),
		Contracts:   contractapp.NewService(r.Contracts, r.Suppliers, objectStorage, currency, log),
		Spend:       spendapp.NewService(r.Spend, r.Suppliers, currency, log),
		Evaluations: evaluationapp.NewService(r.Evaluations, r.Suppliers, log),
		Notifier:    notificationapp.NewNotifier(renderer, mailer, r.Notifications, a.Metrics, log),
	}
	s.Requisitions = requisitionapp.NewService(r.Requisitions, r.Users, r.Suppliers, r.Contracts,
		requisition.ApprovalPolicy{
			ProcurementThreshold: cfg.Requisition.ProcurementThreshold,
			FinanceThreshold:     cfg.Requisition.FinanceThreshold,
		}, currency, log)
	s.Approval = approvalapp.NewService(
		actionTokens,
		a.Stores.Redemption, r.Users, r.Onboarding, r.Requisitions,
		s.Onboarding, s.Requisitions, a.Metrics, log,
	)
	policy := reminder.Policy{
		FirstReminderAfter: cfg.Reminder.FirstReminderAfter,
		RepeatEvery:        cfg.Reminder.RepeatEvery,
		EscalateAfter:      cfg.Reminder.EscalateAfter,
		MaxReminders:       cfg.Reminder.MaxReminders,
	}
	s.Dashboard = dashboardapp.NewService(r.Dashboard, a.Stores.Views, dashboardapp.Options{
		CacheTTL:  cfg.Dashboard.CacheTTL,
		Reminders: policy,
	}, a.Metrics, log)
	s.Reminders = reminderapp.NewService(
		s.Users, r.Onboarding, r.Requisitions,
		notificationapp.NewRecipients(r.Users), s.Notifier, links,
		reminderapp.Options{
			Policy:        policy,
			InvitationTTL: cfg.Onboarding.InvitationTTL,
			URLs:          urls,
		},
		a.Metrics, log,
	)

	s.Suppliers.SetEventPublisher(a.Bus)
	s.Onboarding.SetEventPublisher(a.Bus)
	s.Requisitions.SetEventPublisher(a.Bus)
	s.Contracts.SetEventPublisher(a.Bus)
	s.Spend.SetEventPublisher(a.Bus)
	s.Evaluations.SetEventPublisher(a.Bus)

	a.Services = s
	a.links = links
	a.urls = urls
}

// subscribe wires the cross-context event handlers onto the bus
func (a *App) subscribe() {
	s, r := a.Services, a.Repos
	recipients := notificationapp.NewRecipients(r.Users)

	handlers := []shared.EventHandler{
		dashboardapp.NewInvalidationHandler(s.Dashboard),
		spendapp.NewOrderedHandler(s.Spend),
		notificationapp.NewOnboardingHandler(s.Notifier, recipients, r.Onboarding, r.Suppliers, a.links, a.urls, a.Logger),
		notificationapp.NewRequisitionHandler(s.Notifier, recipients, r.Requisitions, a.links, a.Logger),
		notificationapp.NewContractHandler(s.Notifier, recipients, a.urls),
	}
	for _, h := range handlers {
		a.Bus.Subscribe(h)
		a.Logger.Debug("Event handler registered", zap.Strings("event_types", h.EventTypes()))
	}
}

// Start starts the asynchronous event bus
func (a *App) Start(ctx context.Context) error {
	return a.Bus.Start(ctx)
}

// Close stops the bus and releases the cache and database connections
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.Bus.Stop(ctx),
		a.Stores.Close(),
		a.DB.Close(),
	)
}

// RegisterJobs registers the background sweeps on the scheduler
func (a *App) RegisterJobs(sched *scheduler.Scheduler) {
	sched.Register(scheduler.JobKindReminderSweep, func(ctx context.Context) error {
		result, err := a.Services.Reminders.Sweep(ctx, time.Now())
		a.Logger.Info("Reminder sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("reminded", result.Reminded),
			zap.Int("escalated", result.Escalated),
			zap.Int("failed", result.Failed),
		)
		return err
	})
	sched.Register(scheduler.JobKindContractSweep, func(ctx context.Context) error {
		result, err := a.Services.Contracts.SweepAll(ctx, a.Services.Users, time.Now())
		a.Logger.Info("Contract sweep finished",
			zap.Int("checked", result.Checked),
			zap.Int("expired", result.Expired),
		)
		return err
	})
	if a.Metrics != nil {
		sched.SetObserver(func(kind scheduler.JobKind, status scheduler.JobStatus, d time.Duration) {
			a.Metrics.Job(string(kind), string(status), d)
		})
	}
}
