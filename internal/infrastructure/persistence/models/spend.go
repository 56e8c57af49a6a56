package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurement/backend/internal/domain/spend"
)

// SpendRecordModel is the persistence model for spend.Record
type SpendRecordModel struct {
	TenantAggregateModel
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierName  string          `gorm:"type:varchar(200);not null"`
	ContractID    *uuid.UUID      `gorm:"type:uuid"`
	RequisitionID *uuid.UUID      `gorm:"type:uuid;index"`
	Category      string          `gorm:"type:varchar(100);not null;index"`
	Description   string          `gorm:"type:varchar(500)"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	SpentOn       time.Time       `gorm:"not null;index"`
	InvoiceNumber string          `gorm:"type:varchar(100)"`
	Source        spend.Source    `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (SpendRecordModel) TableName() string {
	return "spend_records"
}

// ToDomain converts the model to a domain Record
func (m *SpendRecordModel) ToDomain() *spend.Record {
	return &spend.Record{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SupplierID:          m.SupplierID,
		SupplierName:        m.SupplierName,
		ContractID:          m.ContractID,
		RequisitionID:       m.RequisitionID,
		Category:            m.Category,
		Description:         m.Description,
		Amount:              m.Amount,
		Currency:            m.Currency,
		SpentOn:             m.SpentOn,
		InvoiceNumber:       m.InvoiceNumber,
		Source:              m.Source,
	}
}

// FromDomain populates the model from a domain Record
func (m *SpendRecordModel) FromDomain(r *spend.Record) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.SupplierID = r.SupplierID
	m.SupplierName = r.SupplierName
	m.ContractID = r.ContractID
	m.RequisitionID = r.RequisitionID
	m.Category = r.Category
	m.Description = r.Description
	m.Amount = r.Amount
	m.Currency = r.Currency
	m.SpentOn = r.SpentOn
	m.InvoiceNumber = r.InvoiceNumber
	m.Source = r.Source
}

// SpendRecordModelFromDomain creates a model from a domain Record
func SpendRecordModelFromDomain(r *spend.Record) *SpendRecordModel {
	m := &SpendRecordModel{}
	m.FromDomain(r)
	return m
}
