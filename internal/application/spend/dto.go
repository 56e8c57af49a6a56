package spend

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/spend"
	"github.com/procurement/backend/internal/infrastructure/csvimport"
	"github.com/shopspring/decimal"
)

// RecordSpendRequest records money spent with a supplier
type RecordSpendRequest struct {
	SupplierID    uuid.UUID       `json:"supplier_id" binding:"required"`
	ContractID    *uuid.UUID      `json:"contract_id"`
	Category      string          `json:"category" binding:"max=100"`
	Description   string          `json:"description" binding:"max=500"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"omitempty,currency"`
	SpentOn       time.Time       `json:"spent_on" binding:"required"`
	InvoiceNumber string          `json:"invoice_number" binding:"max=100"`
}

// ListFilter represents filter options for the spend list
type ListFilter struct {
	SupplierID *uuid.UUID `form:"-"` // query supplier_id, parsed by the handler
	Category   string     `form:"category"`
	Source     string     `form:"source"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SpendResponse is the API view of a spend record
type SpendResponse struct {
	ID            uuid.UUID       `json:"id"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	ContractID    *uuid.UUID      `json:"contract_id,omitempty"`
	RequisitionID *uuid.UUID      `json:"requisition_id,omitempty"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SpentOn       time.Time       `json:"spent_on"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Source        string          `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ImportResult summarises a CSV import
type ImportResult struct {
	Total     int                  `json:"total"`
	Imported  int                  `json:"imported"`
	Failed    int                  `json:"failed"`
	Errors    []csvimport.RowError `json:"errors"`
	Truncated bool                 `json:"errors_truncated,omitempty"`
}

// ToSpendResponse converts a spend record to its API view
func ToSpendResponse(r *spend.Record) SpendResponse {
	return SpendResponse{
		ID:            r.ID,
		SupplierID:    r.SupplierID,
		SupplierName:  r.SupplierName,
		ContractID:    r.ContractID,
		RequisitionID: r.RequisitionID,
		Category:      r.Category,
		Description:   r.Description,
		Amount:        r.Amount,
		Currency:      r.Currency,
		SpentOn:       r.SpentOn,
		InvoiceNumber: r.InvoiceNumber,
		Source:        string(r.Source),
		CreatedAt:     r.CreatedAt,
	}
}

// ToSpendResponses converts spend records to API views
func ToSpendResponses(records []spend.Record) []SpendResponse {
	out := make([]SpendResponse, len(records))
	for i := range records {
		out[i] = ToSpendResponse(&records[i])
	}
	return out
}
