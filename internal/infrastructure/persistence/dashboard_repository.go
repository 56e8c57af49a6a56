package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormDashboardRepository implements report.DashboardRepository with
// aggregate queries over the procurement tables
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func (r *GormDashboardRepository) statusCounts(ctx context.Context, model any, tenantID uuid.UUID) ([]report.StatusCount, error) {
	var out []report.StatusCount
	err := conn(ctx, r.db).Model(model).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Order("status ASC").
		Scan(&out).Error
	return out, err
}

func (r *GormDashboardRepository) sum(query *gorm.DB, column string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := query.Select("SUM(" + column + ")").Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ContractStats counts contracts by status and active contracts by expiry window
func (r *GormDashboardRepository) ContractStats(ctx context.Context, tenantID uuid.UUID, now time.Time) (*report.ContractStats, error) {
	byStatus, err := r.statusCounts(ctx, &models.ContractModel{}, tenantID)
	if err != nil {
		return nil, err
	}

	active := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.ContractModel{}).
			Where("tenant_id = ? AND status = ?", tenantID, contract.StatusActive)
	}
	value, err := r.sum(active(), "value")
	if err != nil {
		return nil, err
	}

	stats := &report.ContractStats{ByStatus: byStatus, ActiveValue: value}
	for _, w := range []struct {
		days int
		dst  *int64
	}{
		{30, &stats.ExpiringWithin30},
		{60, &stats.ExpiringWithin60},
		{90, &stats.ExpiringWithin90},
	} {
		if err := active().
			Where("end_date >= ? AND end_date <= ?", now, now.AddDate(0, 0, w.days)).
			Count(w.dst).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// SpendStats aggregates spend between from and to, inclusive
func (r *GormDashboardRepository) SpendStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*report.SpendStats, error) {
	inRange := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.SpendRecordModel{}).
			Where("tenant_id = ? AND spent_on >= ? AND spent_on <= ?", tenantID, from, to)
	}

	total, err := r.sum(inRange(), "amount")
	if err != nil {
		return nil, err
	}

	var byCategory []report.AmountBucket
	if err := inRange().
		Select("category AS key, category AS label, SUM(amount) AS amount, COUNT(*) AS count").
		Group("category").
		Order("amount DESC").
		Scan(&byCategory).Error; err != nil {
		return nil, err
	}

	var topSuppliers []report.AmountBucket
	if err := inRange().
		Select("supplier_id AS key, supplier_name AS label, SUM(amount) AS amount, COUNT(*) AS count").
		Group("supplier_id, supplier_name").
		Order("amount DESC").
		Limit(10).
		Scan(&topSuppliers).Error; err != nil {
		return nil, err
	}

	// Month bucketing is done here to stay portable across SQL dialects.
	var rows []struct {
		SpentOn time.Time
		Amount  decimal.Decimal
	}
	if err := inRange().Select("spent_on, amount").Scan(&rows).Error; err != nil {
		return nil, err
	}
	monthly := make(map[string]*report.AmountBucket)
	keys := report.MonthKeys(from, to)
	for _, k := range keys {
		monthly[k] = &report.AmountBucket{Key: k, Label: k, Amount: decimal.Zero}
	}
	for _, row := range rows {
		if b, ok := monthly[row.SpentOn.UTC().Format("2006-01")]; ok {
			b.Amount = b.Amount.Add(row.Amount)
			b.Count++
		}
	}

	stats := &report.SpendStats{
		From:         from,
		To:           to,
		Total:        total,
		ByCategory:   byCategory,
		TopSuppliers: topSuppliers,
		Monthly:      make([]report.AmountBucket, 0, len(keys)),
	}
	for _, k := range keys {
		stats.Monthly = append(stats.Monthly, *monthly[k])
	}
	return stats, nil
}

// EvaluationStats returns the tenant average and the best and worst suppliers
func (r *GormDashboardRepository) EvaluationStats(ctx context.Context, tenantID uuid.UUID, limit int) (*report.EvaluationStats, error) {
	base := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.EvaluationModel{}).Where("tenant_id = ?", tenantID)
	}

	var overall struct {
		Count   int64
		Average decimal.NullDecimal
	}
	if err := base().Select("COUNT(*) AS count, AVG(overall_score) AS average").Scan(&overall).Error; err != nil {
		return nil, err
	}

	ranked := func(dir string) ([]report.SupplierScore, error) {
		var rows []struct {
			SupplierID   uuid.UUID
			SupplierName string
			AverageScore decimal.Decimal
			Count        int64
		}
		err := base().
			Select("supplier_id, supplier_name, AVG(overall_score) AS average_score, COUNT(*) AS count").
			Group("supplier_id, supplier_name").
			Order("average_score " + dir).
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make([]report.SupplierScore, len(rows))
		for i, row := range rows {
			out[i] = report.SupplierScore{
				SupplierID:   row.SupplierID,
				SupplierName: row.SupplierName,
				AverageScore: row.AverageScore.Round(2),
				Count:        row.Count,
			}
		}
		return out, nil
	}

	top, err := ranked("DESC")
	if err != nil {
		return nil, err
	}
	bottom, err := ranked("ASC")
	if err != nil {
		return nil, err
	}

	return &report.EvaluationStats{
		AverageScore: round2(overall.Average),
		Count:        overall.Count,
		Top:          top,
		Bottom:       bottom,
	}, nil
}

// OnboardingStats counts requests by status, the average approval time and
// the open requests stuck in their stage since overdueBefore or earlier
func (r *GormDashboardRepository) OnboardingStats(ctx context.Context, tenantID uuid.UUID, overdueBefore time.Time) (*report.OnboardingStats, error) {
	byStatus, err := r.statusCounts(ctx, &models.OnboardingRequestModel{}, tenantID)
	if err != nil {
		return nil, err
	}

	var decided []struct {
		CreatedAt time.Time
		DecidedAt *time.Time
	}
	if err := conn(ctx, r.db).Model(&models.OnboardingRequestModel{}).
		Select("created_at, decided_at").
		Where("tenant_id = ? AND status = ? AND decided_at IS NOT NULL", tenantID, onboarding.StatusApproved).
		Scan(&decided).Error; err != nil {
		return nil, err
	}
	var avgDays float64
	if len(decided) > 0 {
		var totalHours float64
		for _, d := range decided {
			totalHours += d.DecidedAt.Sub(d.CreatedAt).Hours()
		}
		avgDays = decimal.NewFromFloat(totalHours / 24 / float64(len(decided))).Round(1).InexactFloat64()
	}

	var overdue int64
	if err := conn(ctx, r.db).Model(&models.OnboardingRequestModel{}).
		Where("tenant_id = ? AND status IN ? AND stage_entered_at <= ?", tenantID, onboarding.OpenStatuses(), overdueBefore).
		Count(&overdue).Error; err != nil {
		return nil, err
	}

	return &report.OnboardingStats{
		ByStatus:             byStatus,
		AverageDaysToApprove: avgDays,
		Overdue:              overdue,
	}, nil
}

// RequisitionStats counts requisitions by status, the amount awaiting
// approval and the amount approved since monthStart
func (r *GormDashboardRepository) RequisitionStats(ctx context.Context, tenantID uuid.UUID, monthStart time.Time) (*report.RequisitionStats, error) {
	byStatus, err := r.statusCounts(ctx, &models.RequisitionModel{}, tenantID)
	if err != nil {
		return nil, err
	}

	base := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.RequisitionModel{}).Where("tenant_id = ?", tenantID)
	}
	pending, err := r.sum(base().Where("status = ?", requisition.StatusPendingApproval), "total_amount")
	if err != nil {
		return nil, err
	}
	approved, err := r.sum(base().Where("status IN ? AND approved_at >= ?",
		[]requisition.Status{requisition.StatusApproved, requisition.StatusOrdered}, monthStart), "total_amount")
	if err != nil {
		return nil, err
	}

	return &report.RequisitionStats{
		ByStatus:          byStatus,
		PendingAmount:     pending,
		ApprovedThisMonth: approved,
	}, nil
}

var _ report.DashboardRepository = (*GormDashboardRepository)(nil)
