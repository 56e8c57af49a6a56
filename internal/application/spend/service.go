// Package spend records money spent with suppliers, by hand, from CSV files
// and from ordered requisitions.
package spend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/spend"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/csvimport"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SupplierLookup resolves suppliers by id or code
type SupplierLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*supplier.Supplier, error)
}

// Service handles spend records
type Service struct {
	repo           spend.RecordRepository
	suppliers      SupplierLookup
	currency       string
	importOpts     csvimport.SpendOptions
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new spend Service
func NewService(repo spend.RecordRepository, suppliers SupplierLookup, currency string, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		suppliers:  suppliers,
		currency:   currency,
		importOpts: csvimport.SpendOptions{MaxRows: 10000, MaxErrors: 100},
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher used for dashboard invalidation
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Record records spend against an existing, non-pending supplier
func (s *Service) Record(ctx context.Context, p identity.Principal, req RecordSpendRequest) (*SpendResponse, error) {
	if err := requireSpendManager(p); err != nil {
		return nil, err
	}
	sup, err := s.suppliers.FindByID(ctx, p.TenantID, req.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return nil, err
	}
	if !sup.IsActive() {
		return nil, shared.NewDomainError("SUPPLIER_NOT_ACTIVE", "Spend cannot be recorded for a "+strings.ToLower(sup.Status.String())+" supplier")
	}

	createdBy := p.UserID
	r, err := spend.NewRecord(p.TenantID, spend.RecordInput{
		SupplierID:    sup.ID,
		SupplierName:  sup.Name,
		ContractID:    req.ContractID,
		Category:      req.Category,
		Description:   req.Description,
		Amount:        req.Amount,
		Currency:      s.currencyOr(req.Currency),
		SpentOn:       req.SpentOn,
		InvoiceNumber: req.InvoiceNumber,
		Source:        spend.SourceManual,
		CreatedBy:     &createdBy,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r)

	response := ToSpendResponse(r)
	return &response, nil
}

// List returns a page of spend records
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]SpendResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "spent_on"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = strings.ToUpper(filter.Source)
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}

	records, total, err := s.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSpendResponses(records), total, nil
}

// Delete removes a spend record
func (s *Service) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if err := requireSpendManager(p); err != nil {
		return err
	}
	r, err := s.repo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.TenantID, id); err != nil {
		return err
	}
	r.AddDomainEvent(spend.NewDeletedEvent(r))
	s.publish(ctx, r)
	return nil
}

// ImportCSV imports spend rows. Invalid rows are reported by line number and
// do not stop the valid ones from being imported.
func (s *Service) ImportCSV(ctx context.Context, p identity.Principal, file io.Reader) (*ImportResult, error) {
	if err := requireSpendManager(p); err != nil {
		return nil, err
	}
	parsed, err := csvimport.ParseSpend(file, s.importOpts)
	if err != nil {
		return nil, importFileError(err)
	}

	createdBy := p.UserID
	suppliers := make(map[string]*supplier.Supplier)
	records := make([]*spend.Record, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		sup, ok := suppliers[row.SupplierCode]
		if !ok {
			sup, err = s.suppliers.FindByCode(ctx, p.TenantID, row.SupplierCode)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			suppliers[row.SupplierCode] = sup
		}
		if sup == nil {
			parsed.Errors.Add(csvimport.RowError{Row: row.Line, Column: csvimport.ColSupplierCode,
				Code: csvimport.CodeReferenceNotFound, Message: "unknown supplier code", Value: row.SupplierCode})
			continue
		}
		if !sup.IsActive() {
			parsed.Errors.Add(csvimport.RowError{Row: row.Line, Column: csvimport.ColSupplierCode,
				Code: csvimport.CodeRejected, Message: "supplier is " + strings.ToLower(sup.Status.String()), Value: row.SupplierCode})
			continue
		}

		r, err := spend.NewRecord(p.TenantID, spend.RecordInput{
			SupplierID:    sup.ID,
			SupplierName:  sup.Name,
			Category:      row.Category,
			Description:   row.Description,
			Amount:        row.Amount,
			Currency:      s.currencyOr(row.Currency),
			SpentOn:       row.SpentOn,
			InvoiceNumber: row.InvoiceNumber,
			Source:        spend.SourceImport,
			CreatedBy:     &createdBy,
		})
		if err != nil {
			parsed.Errors.Add(csvimport.RowError{Row: row.Line, Code: csvimport.CodeRejected, Message: err.Error()})
			continue
		}
		records = append(records, r)
	}

	if len(records) > 0 {
		if err := s.repo.SaveBatch(ctx, records); err != nil {
			return nil, err
		}
		for _, r := range records {
			s.publish(ctx, r)
		}
	}

	result := &ImportResult{
		Total:     parsed.Total,
		Imported:  len(records),
		Failed:    parsed.Errors.RowCount(),
		Errors:    parsed.Errors.Errors(),
		Truncated: parsed.Errors.IsTruncated(),
	}
	if result.Errors == nil {
		result.Errors = []csvimport.RowError{}
	}
	logger.Enrich(ctx, s.logger).Info("Spend CSV imported",
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))
	return result, nil
}

// RecordFromRequisition books the total of an ordered requisition once.
// Requisitions without a supplier carry nothing to book.
func (s *Service) RecordFromRequisition(ctx context.Context, e *requisition.RequisitionEvent) error {
	if e.SupplierID == nil {
		return nil
	}
	tenantID, reqID := e.TenantID(), e.AggregateID()
	exists, err := s.repo.ExistsForRequisition(ctx, tenantID, reqID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	r, err := spend.NewRecord(tenantID, spend.RecordInput{
		SupplierID:    *e.SupplierID,
		SupplierName:  e.SupplierName,
		ContractID:    e.ContractID,
		RequisitionID: &reqID,
		Category:      e.Category,
		Description:   fmt.Sprintf("%s %s", e.Number, e.Title),
		Amount:        e.TotalAmount,
		Currency:      s.currencyOr(e.Currency),
		SpentOn:       e.OccurredAt(),
		InvoiceNumber: e.PONumber,
		Source:        spend.SourceRequisition,
	})
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	s.publish(ctx, r)
	logger.Enrich(ctx, s.logger).Info("Spend recorded from requisition",
		zap.String("requisition", e.Number),
		zap.String("amount", r.Amount.String()))
	return nil
}

func (s *Service) currencyOr(currency string) string {
	if c := strings.TrimSpace(currency); c != "" {
		return c
	}
	return s.currency
}

func (s *Service) publish(ctx context.Context, r *spend.Record) {
	if err := shared.PublishEvents(ctx, s.eventPublisher, r); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to publish spend events", zap.Error(err))
	}
}

func requireSpendManager(p identity.Principal) error {
	if !p.Can(identity.PermProcurementManage) && !p.Can(identity.PermFinanceApprove) {
		return shared.NewDomainError("FORBIDDEN", "Procurement or finance permission required")
	}
	return nil
}

func importFileError(err error) error {
	var missing *csvimport.MissingColumnsError
	if errors.As(err, &missing) ||
		errors.Is(err, csvimport.ErrEmptyFile) ||
		errors.Is(err, csvimport.ErrInvalidEncoding) ||
		errors.Is(err, csvimport.ErrMissingHeader) ||
		errors.Is(err, csvimport.ErrTooManyRows) {
		return shared.NewDomainError("INVALID_FILE", err.Error())
	}
	return err
}
