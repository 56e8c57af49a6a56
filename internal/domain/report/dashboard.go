// Package report holds the read models behind the procurement dashboards.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusCount is the number of rows in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ContractStats backs the contract dashboard
type ContractStats struct {
	ByStatus         []StatusCount   `json:"by_status"`
	ActiveValue      decimal.Decimal `json:"active_value"`
	ExpiringWithin30 int64           `json:"expiring_within_30"`
	ExpiringWithin60 int64           `json:"expiring_within_60"`
	ExpiringWithin90 int64           `json:"expiring_within_90"`
}

// AmountBucket is a labelled spend amount
type AmountBucket struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// SpendStats backs the spend dashboard
type SpendStats struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Total        decimal.Decimal `json:"total"`
	ByCategory   []AmountBucket  `json:"by_category"`
	TopSuppliers []AmountBucket  `json:"top_suppliers"`
	Monthly      []AmountBucket  `json:"monthly"`
}

// SupplierScore is a supplier's average overall score
type SupplierScore struct {
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	AverageScore decimal.Decimal `json:"average_score"`
	Count        int64           `json:"count"`
}

// EvaluationStats backs the evaluation dashboard
type EvaluationStats struct {
	AverageScore decimal.Decimal `json:"average_score"`
	Count        int64           `json:"count"`
	Top          []SupplierScore `json:"top"`
	Bottom       []SupplierScore `json:"bottom"`
}

// OnboardingStats backs the onboarding dashboard
type OnboardingStats struct {
	ByStatus             []StatusCount `json:"by_status"`
	AverageDaysToApprove float64       `json:"average_days_to_approve"`
	Overdue              int64         `json:"overdue"`
}

// RequisitionStats backs the requisition dashboard
type RequisitionStats struct {
	ByStatus          []StatusCount   `json:"by_status"`
	PendingAmount     decimal.Decimal `json:"pending_amount"`
	ApprovedThisMonth decimal.Decimal `json:"approved_this_month"`
}

// Summary combines every dashboard view
type Summary struct {
	Contracts    *ContractStats    `json:"contracts"`
	Spend        *SpendStats       `json:"spend"`
	Evaluations  *EvaluationStats  `json:"evaluations"`
	Onboarding   *OnboardingStats  `json:"onboarding"`
	Requisitions *RequisitionStats `json:"requisitions"`
}

// DashboardRepository computes dashboard aggregates for one tenant
type DashboardRepository interface {
	ContractStats(ctx context.Context, tenantID uuid.UUID, now time.Time) (*ContractStats, error)
	SpendStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*SpendStats, error)
	EvaluationStats(ctx context.Context, tenantID uuid.UUID, limit int) (*EvaluationStats, error)
	// OnboardingStats counts open requests whose stage started at or before
	// overdueBefore as overdue
	OnboardingStats(ctx context.Context, tenantID uuid.UUID, overdueBefore time.Time) (*OnboardingStats, error)
	RequisitionStats(ctx context.Context, tenantID uuid.UUID, monthStart time.Time) (*RequisitionStats, error)
}

// MonthKeys lists the YYYY-MM buckets between from and to, inclusive
func MonthKeys(from, to time.Time) []string {
	if to.Before(from) {
		return nil
	}
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	var keys []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		keys = append(keys, m.Format("2006-01"))
	}
	return keys
}
