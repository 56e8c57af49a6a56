package models

import (
	"time"

	"github.com/procurement/backend/internal/domain/supplier"
)

// SupplierModel is the persistence model for supplier.Supplier
type SupplierModel struct {
	TenantAggregateModel
	Code            string          `gorm:"type:varchar(20);index"`
	Name            string          `gorm:"type:varchar(200);not null"`
	LegalName       string          `gorm:"type:varchar(200)"`
	TaxID           string          `gorm:"type:varchar(50)"`
	Category        string          `gorm:"type:varchar(100);index"`
	Website         string          `gorm:"type:varchar(200)"`
	ContactName     string          `gorm:"type:varchar(100)"`
	ContactEmail    string          `gorm:"type:varchar(200);not null"`
	ContactPhone    string          `gorm:"type:varchar(50)"`
	Address         string          `gorm:"type:text"`
	Country         string          `gorm:"type:varchar(100)"`
	BankName        string          `gorm:"type:varchar(100)"`
	BankAccount     string          `gorm:"type:varchar(100)"`
	Status          supplier.Status `gorm:"type:varchar(20);not null;index"`
	SuspendedReason string          `gorm:"type:text"`
	ApprovedAt      *time.Time
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the model to a domain Supplier
func (m *SupplierModel) ToDomain() *supplier.Supplier {
	return &supplier.Supplier{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		LegalName:           m.LegalName,
		TaxID:               m.TaxID,
		Category:            m.Category,
		Website:             m.Website,
		ContactName:         m.ContactName,
		ContactEmail:        m.ContactEmail,
		ContactPhone:        m.ContactPhone,
		Address:             m.Address,
		Country:             m.Country,
		BankName:            m.BankName,
		BankAccount:         m.BankAccount,
		Status:              m.Status,
		SuspendedReason:     m.SuspendedReason,
		ApprovedAt:          m.ApprovedAt,
	}
}

// FromDomain populates the model from a domain Supplier
func (m *SupplierModel) FromDomain(s *supplier.Supplier) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Code = s.Code
	m.Name = s.Name
	m.LegalName = s.LegalName
	m.TaxID = s.TaxID
	m.Category = s.Category
	m.Website = s.Website
	m.ContactName = s.ContactName
	m.ContactEmail = s.ContactEmail
	m.ContactPhone = s.ContactPhone
	m.Address = s.Address
	m.Country = s.Country
	m.BankName = s.BankName
	m.BankAccount = s.BankAccount
	m.Status = s.Status
	m.SuspendedReason = s.SuspendedReason
	m.ApprovedAt = s.ApprovedAt
}

// SupplierModelFromDomain creates a model from a domain Supplier
func SupplierModelFromDomain(s *supplier.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}
