package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurement/backend/internal/domain/contract"
)

// ContractModel is the persistence model for contract.Contract
type ContractModel struct {
	TenantAggregateModel
	Number              string          `gorm:"type:varchar(30);not null"`
	SupplierID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierName        string          `gorm:"type:varchar(200);not null"`
	Title               string          `gorm:"type:varchar(200);not null"`
	Description         string          `gorm:"type:text"`
	Value               decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Currency            string          `gorm:"type:varchar(3);not null"`
	StartDate           time.Time       `gorm:"not null"`
	EndDate             time.Time       `gorm:"not null;index"`
	AutoRenew           bool            `gorm:"not null;default:false"`
	RenewalNoticeDays   int             `gorm:"not null;default:30"`
	OwnerID             uuid.UUID       `gorm:"type:uuid;not null"`
	Status              contract.Status `gorm:"type:varchar(20);not null;index"`
	DocumentKey         string          `gorm:"type:varchar(500)"`
	RenewalNoticeSentAt *time.Time
	ActivatedAt         *time.Time
	TerminatedAt        *time.Time
	TerminationReason   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the model to a domain Contract
func (m *ContractModel) ToDomain() *contract.Contract {
	return &contract.Contract{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Number:              m.Number,
		SupplierID:          m.SupplierID,
		SupplierName:        m.SupplierName,
		Title:               m.Title,
		Description:         m.Description,
		Value:               m.Value,
		Currency:            m.Currency,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		AutoRenew:           m.AutoRenew,
		RenewalNoticeDays:   m.RenewalNoticeDays,
		OwnerID:             m.OwnerID,
		Status:              m.Status,
		DocumentKey:         m.DocumentKey,
		RenewalNoticeSentAt: m.RenewalNoticeSentAt,
		ActivatedAt:         m.ActivatedAt,
		TerminatedAt:        m.TerminatedAt,
		TerminationReason:   m.TerminationReason,
	}
}

// FromDomain populates the model from a domain Contract
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Number = c.Number
	m.SupplierID = c.SupplierID
	m.SupplierName = c.SupplierName
	m.Title = c.Title
	m.Description = c.Description
	m.Value = c.Value
	m.Currency = c.Currency
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.AutoRenew = c.AutoRenew
	m.RenewalNoticeDays = c.RenewalNoticeDays
	m.OwnerID = c.OwnerID
	m.Status = c.Status
	m.DocumentKey = c.DocumentKey
	m.RenewalNoticeSentAt = c.RenewalNoticeSentAt
	m.ActivatedAt = c.ActivatedAt
	m.TerminatedAt = c.TerminatedAt
	m.TerminationReason = c.TerminationReason
}

// ContractModelFromDomain creates a model from a domain Contract
func ContractModelFromDomain(c *contract.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}
