package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurement/backend/internal/domain/evaluation"
)

// EvaluationModel is the persistence model for evaluation.Evaluation
type EvaluationModel struct {
	TenantAggregateModel
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierName  string          `gorm:"type:varchar(200);not null"`
	EvaluatorID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Period        string          `gorm:"type:varchar(7);not null"`
	Quality       int             `gorm:"not null"`
	Delivery      int             `gorm:"not null"`
	Cost          int             `gorm:"not null"`
	Communication int             `gorm:"not null"`
	OverallScore  decimal.Decimal `gorm:"type:decimal(4,2);not null"`
	Comments      string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (EvaluationModel) TableName() string {
	return "supplier_evaluations"
}

// ToDomain converts the model to a domain Evaluation
func (m *EvaluationModel) ToDomain() *evaluation.Evaluation {
	return &evaluation.Evaluation{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SupplierID:          m.SupplierID,
		SupplierName:        m.SupplierName,
		EvaluatorID:         m.EvaluatorID,
		Period:              m.Period,
		Scores: evaluation.Scores{
			Quality:       m.Quality,
			Delivery:      m.Delivery,
			Cost:          m.Cost,
			Communication: m.Communication,
		},
		OverallScore: m.OverallScore,
		Comments:     m.Comments,
	}
}

// FromDomain populates the model from a domain Evaluation
func (m *EvaluationModel) FromDomain(e *evaluation.Evaluation) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.SupplierID = e.SupplierID
	m.SupplierName = e.SupplierName
	m.EvaluatorID = e.EvaluatorID
	m.Period = e.Period
	m.Quality = e.Scores.Quality
	m.Delivery = e.Scores.Delivery
	m.Cost = e.Scores.Cost
	m.Communication = e.Scores.Communication
	m.OverallScore = e.OverallScore
	m.Comments = e.Comments
}

// EvaluationModelFromDomain creates a model from a domain Evaluation
func EvaluationModelFromDomain(e *evaluation.Evaluation) *EvaluationModel {
	m := &EvaluationModel{}
	m.FromDomain(e)
	return m
}
