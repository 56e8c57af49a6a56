package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procurement/backend/internal/domain/evaluation"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormEvaluationRepository implements evaluation.EvaluationRepository using GORM
type GormEvaluationRepository struct {
	db *gorm.DB
}

// NewGormEvaluationRepository creates a new GormEvaluationRepository
func NewGormEvaluationRepository(db *gorm.DB) *GormEvaluationRepository {
	return &GormEvaluationRepository{db: db}
}

// FindByID finds an evaluation within a tenant
func (r *GormEvaluationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*evaluation.Evaluation, error) {
	var m models.EvaluationModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists evaluations matching the filter
func (r *GormEvaluationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]evaluation.Evaluation, int64, error) {
	query := conn(ctx, r.db).Model(&models.EvaluationModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "supplier_name", "comments"))
	for _, key := range []string{"supplier_id", "period", "evaluator_id"} {
		if v, ok := filterString(filter, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.EvaluationModel
	if err := query.Scopes(orderScope(filter, EvaluationSortFields, "created_at"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]evaluation.Evaluation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Exists reports whether the evaluator already rated the supplier for the period
func (r *GormEvaluationRepository) Exists(ctx context.Context, tenantID, supplierID, evaluatorID uuid.UUID, period string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.EvaluationModel{}).
		Where("tenant_id = ? AND supplier_id = ? AND evaluator_id = ? AND period = ?",
			tenantID, supplierID, evaluatorID, period).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates an evaluation
func (r *GormEvaluationRepository) Save(ctx context.Context, e *evaluation.Evaluation) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models.EvaluationModelFromDomain(e)).Error
}

type scoreAverages struct {
	Count         int64
	Quality       decimal.NullDecimal
	Delivery      decimal.NullDecimal
	Cost          decimal.NullDecimal
	Communication decimal.NullDecimal
	Overall       decimal.NullDecimal
}

// Scorecard aggregates every evaluation of a supplier
func (r *GormEvaluationRepository) Scorecard(ctx context.Context, tenantID, supplierID uuid.UUID) (*evaluation.Scorecard, error) {
	base := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.EvaluationModel{}).
			Where("tenant_id = ? AND supplier_id = ?", tenantID, supplierID)
	}

	var avg scoreAverages
	if err := base().Select(`COUNT(*) AS count,
		AVG(quality) AS quality,
		AVG(delivery) AS delivery,
		AVG(cost) AS cost,
		AVG(communication) AS communication,
		AVG(overall_score) AS overall`).
		Scan(&avg).Error; err != nil {
		return nil, err
	}

	type periodRow struct {
		Period  string
		Count   int64
		Overall decimal.NullDecimal
	}
	var periods []periodRow
	if err := base().Select("period, COUNT(*) AS count, AVG(overall_score) AS overall").
		Group("period").
		Order("period ASC").
		Scan(&periods).Error; err != nil {
		return nil, err
	}

	card := &evaluation.Scorecard{
		SupplierID:           supplierID,
		EvaluationCount:      avg.Count,
		AverageQuality:       round2(avg.Quality),
		AverageDelivery:      round2(avg.Delivery),
		AverageCost:          round2(avg.Cost),
		AverageCommunication: round2(avg.Communication),
		AverageOverall:       round2(avg.Overall),
		Trend:                make([]evaluation.PeriodScore, len(periods)),
	}
	for i, p := range periods {
		card.Trend[i] = evaluation.PeriodScore{
			Period:         p.Period,
			Count:          p.Count,
			AverageOverall: round2(p.Overall),
		}
	}
	return card, nil
}

func round2(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal.Round(2)
}

var _ evaluation.EvaluationRepository = (*GormEvaluationRepository)(nil)
