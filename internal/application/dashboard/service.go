// Package dashboard serves the cached aggregate views behind the
// procurement dashboards.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/cache"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// View names, also used as cache keys and metric labels
const (
	ViewContracts    = "contracts"
	ViewSpend        = "spend"
	ViewEvaluations  = "evaluations"
	ViewOnboarding   = "onboarding"
	ViewRequisitions = "requisitions"
)

const rankedSuppliers = 5

// Options configures the dashboard service
type Options struct {
	CacheTTL time.Duration
	// Reminders decides when an open onboarding stage counts as overdue
	Reminders reminder.Policy
}

// Service computes dashboard views and caches them per tenant
type Service struct {
	repo    report.DashboardRepository
	views   cache.ViewCache
	opts    Options
	metrics *telemetry.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new dashboard Service
func NewService(repo report.DashboardRepository, views cache.ViewCache, opts Options, metrics *telemetry.Metrics, logger *zap.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:    repo,
		views:   views,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Contracts returns contract counts, active value and the expiry windows
func (s *Service) Contracts(ctx context.Context, tenantID uuid.UUID) (*report.ContractStats, error) {
	return cached(ctx, s, tenantID, ViewContracts, ViewContracts, func() (*report.ContractStats, error) {
		return s.repo.ContractStats(ctx, tenantID, s.now().UTC())
	})
}

// Spend returns spend aggregates for [from, to]. Zero bounds default to the
// last twelve calendar months.
func (s *Service) Spend(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*report.SpendStats, error) {
	from, to, err := s.spendRange(from, to)
	if err != nil {
		return nil, err
	}
	key := ViewSpend + ":" + from.Format("2006-01-02") + ":" + to.Format("2006-01-02")
	return cached(ctx, s, tenantID, ViewSpend, key, func() (*report.SpendStats, error) {
		return s.repo.SpendStats(ctx, tenantID, from, to)
	})
}

func (s *Service) spendRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		now := s.now().UTC()
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	}
	from, to = from.UTC(), to.UTC()
	if to.Before(from) {
		return from, to, shared.NewDomainError("INVALID_RANGE", "from must not be after to")
	}
	return from, to, nil
}

// Evaluations returns the average score and the best and worst suppliers
func (s *Service) Evaluations(ctx context.Context, tenantID uuid.UUID) (*report.EvaluationStats, error) {
	return cached(ctx, s, tenantID, ViewEvaluations, ViewEvaluations, func() (*report.EvaluationStats, error) {
		return s.repo.EvaluationStats(ctx, tenantID, rankedSuppliers)
	})
}

// Onboarding returns request counts, approval lead time and overdue stages
func (s *Service) Onboarding(ctx context.Context, tenantID uuid.UUID) (*report.OnboardingStats, error) {
	return cached(ctx, s, tenantID, ViewOnboarding, ViewOnboarding, func() (*report.OnboardingStats, error) {
		return s.repo.OnboardingStats(ctx, tenantID, s.opts.Reminders.OverdueSince(s.now().UTC()))
	})
}

// Requisitions returns requisition counts and pending and approved amounts
func (s *Service) Requisitions(ctx context.Context, tenantID uuid.UUID) (*report.RequisitionStats, error) {
	return cached(ctx, s, tenantID, ViewRequisitions, ViewRequisitions, func() (*report.RequisitionStats, error) {
		now := s.now().UTC()
		return s.repo.RequisitionStats(ctx, tenantID, time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
	})
}

// Summary computes every view concurrently. Spend uses the default range.
func (s *Service) Summary(ctx context.Context, tenantID uuid.UUID) (*report.Summary, error) {
	var out report.Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Contracts, err = s.Contracts(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.Spend, err = s.Spend(gctx, tenantID, time.Time{}, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		out.Evaluations, err = s.Evaluations(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.Onboarding, err = s.Onboarding(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.Requisitions, err = s.Requisitions(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invalidate drops every cached view of the tenant
func (s *Service) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return s.views.InvalidateTenant(ctx, tenantID)
}

// cached reads a view through the cache. Cache failures are logged and the
// view is computed from the database.
func cached[T any](ctx context.Context, s *Service, tenantID uuid.UUID, view, key string, load func() (*T, error)) (*T, error) {
	log := logger.Enrich(ctx, s.logger)

	var hit T
	ok, err := s.views.Get(ctx, tenantID, key, &hit)
	if err != nil {
		log.Warn("Dashboard cache read failed", zap.String("view", key), zap.Error(err))
	}
	s.metrics.DashboardCache(view, ok)
	if ok {
		return &hit, nil
	}

	value, err := load()
	if err != nil {
		return nil, err
	}
	if err := s.views.Set(ctx, tenantID, key, value, s.opts.CacheTTL); err != nil {
		log.Warn("Dashboard cache write failed", zap.String("view", key), zap.Error(err))
	}
	return value, nil
}
