package spend

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Source tells where a spend record came from
type Source string

const (
	SourceManual      Source = "MANUAL"
	SourceRequisition Source = "REQUISITION"
	SourceImport      Source = "IMPORT"
)

// IsValid checks if the source is a known value
func (s Source) IsValid() bool {
	switch s {
	case SourceManual, SourceRequisition, SourceImport:
		return true
	}
	return false
}

// Record is a single line of money spent with a supplier
type Record struct {
	shared.TenantAggregateRoot
	SupplierID    uuid.UUID
	SupplierName  string
	ContractID    *uuid.UUID
	RequisitionID *uuid.UUID
	Category      string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	SpentOn       time.Time
	InvoiceNumber string
	Source        Source
}

// RecordInput holds the fields for a new spend record
type RecordInput struct {
	SupplierID    uuid.UUID
	SupplierName  string
	ContractID    *uuid.UUID
	RequisitionID *uuid.UUID
	Category      string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	SpentOn       time.Time
	InvoiceNumber string
	Source        Source
	CreatedBy     *uuid.UUID
}

// NewRecord validates and creates a spend record
func NewRecord(tenantID uuid.UUID, in RecordInput) (*Record, error) {
	if in.SupplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier is required")
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if in.SpentOn.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Spend date is required")
	}
	if in.SpentOn.After(shared.Now().Add(24 * time.Hour)) {
		return nil, shared.NewDomainError("INVALID_DATE", "Spend date cannot be in the future")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "Uncategorized"
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	source := in.Source
	if source == "" {
		source = SourceManual
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown spend source: "+string(source))
	}
	spentOn := in.SpentOn.UTC()
	r := &Record{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SupplierID:          in.SupplierID,
		SupplierName:        in.SupplierName,
		ContractID:          in.ContractID,
		RequisitionID:       in.RequisitionID,
		Category:            category,
		Description:         strings.TrimSpace(in.Description),
		Amount:              in.Amount.Round(2),
		Currency:            currency,
		SpentOn:             time.Date(spentOn.Year(), spentOn.Month(), spentOn.Day(), 0, 0, 0, 0, time.UTC),
		InvoiceNumber:       strings.TrimSpace(in.InvoiceNumber),
		Source:              source,
	}
	r.CreatedBy = in.CreatedBy
	r.AddDomainEvent(NewRecordedEvent(r))
	return r, nil
}
