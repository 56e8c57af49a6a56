package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockContractRepository is a mock implementation of contract.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contract.Contract, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]contract.Contract), args.Get(1).(int64), args.Error(2)
}

func (m *MockContractRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]contract.Contract, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContractRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockSupplierLookup is a mock implementation of SupplierLookup
type MockSupplierLookup struct {
	mock.Mock
}

func (m *MockSupplierLookup) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.Supplier), args.Error(1)
}

type countingPublisher struct {
	types []string
}

func (p *countingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func setup(t *testing.T) (*Service, *MockContractRepository, *MockSupplierLookup, *storage.MemoryStorage, *countingPublisher) {
	t.Helper()
	repo := new(MockContractRepository)
	suppliers := new(MockSupplierLookup)
	store := storage.NewMemoryStorage("")
	events := &countingPublisher{}
	svc := NewService(repo, suppliers, store, "USD", zap.NewNop())
	svc.SetEventPublisher(events)
	return svc, repo, suppliers, store, events
}

func procurement(tenantID uuid.UUID) identity.Principal {
	return identity.Principal{TenantID: tenantID, UserID: uuid.New(), Name: "pat", Role: identity.RoleProcurement}
}

func activeSupplier(t *testing.T, tenantID uuid.UUID) *supplier.Supplier {
	t.Helper()
	sup, err := supplier.NewSupplier(tenantID, "Acme", "IT", "Jo", "jo@acme.example")
	require.NoError(t, err)
	require.NoError(t, sup.Activate("SUP-00001"))
	return sup
}

func newContract(t *testing.T, tenantID uuid.UUID, start, end time.Time, autoRenew bool) *contract.Contract {
	t.Helper()
	c, err := contract.NewContract(tenantID, "CON-2026-00001", uuid.New(), "Acme", uuid.New(), contract.Terms{
		Title:     "Support",
		Value:     decimal.NewFromInt(12000),
		Currency:  "USD",
		StartDate: start,
		EndDate:   end,
		AutoRenew: autoRenew,
	})
	require.NoError(t, err)
	require.NoError(t, c.Activate())
	c.ClearDomainEvents()
	return c
}

func TestService_Create(t *testing.T) {
	svc, repo, suppliers, _, events := setup(t)
	tenantID := uuid.New()
	sup := activeSupplier(t, tenantID)
	suppliers.On("FindByID", mock.Anything, tenantID, sup.ID).Return(sup, nil)
	repo.On("GenerateNumber", mock.Anything, tenantID).Return("CON-2026-00007", nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*contract.Contract")).Return(nil)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := procurement(tenantID)
	resp, err := svc.Create(context.Background(), p, CreateContractRequest{
		SupplierID: sup.ID,
		TermsRequest: TermsRequest{
			Title:     "Hosting",
			Value:     decimal.NewFromInt(5000),
			StartDate: start,
			EndDate:   start.AddDate(1, 0, 0),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "CON-2026-00007", resp.Number)
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, 30, resp.RenewalNoticeDays)
	assert.Equal(t, p.UserID, resp.OwnerID)
	assert.Contains(t, events.types, contract.EventTypeCreated)
}

func TestService_Create_Guards(t *testing.T) {
	svc, _, suppliers, _, _ := setup(t)
	tenantID := uuid.New()
	pending, err := supplier.NewSupplier(tenantID, "Pending Co", "IT", "Jo", "jo@pending.example")
	require.NoError(t, err)
	suppliers.On("FindByID", mock.Anything, tenantID, pending.ID).Return(pending, nil)

	req := CreateContractRequest{SupplierID: pending.ID, TermsRequest: TermsRequest{Title: "x"}}

	employee := identity.Principal{TenantID: tenantID, UserID: uuid.New(), Role: identity.RoleEmployee}
	_, err = svc.Create(context.Background(), employee, req)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(context.Background(), procurement(tenantID), req)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "SUPPLIER_NOT_ACTIVE", de.Code)
}

func TestService_AttachDocument(t *testing.T) {
	svc, repo, _, store, _ := setup(t)
	tenantID := uuid.New()
	now := time.Now()
	c := newContract(t, tenantID, now.AddDate(0, -1, 0), now.AddDate(1, 0, 0), false)
	repo.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)
	repo.On("SaveWithLock", mock.Anything, c).Return(nil)
	p := procurement(tenantID)
	ctx := context.Background()

	up, err := svc.DocumentUploadURL(ctx, p, c.ID, DocumentUploadRequest{FileName: "../signed.pdf", ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Contains(t, up.StorageKey, contract.DocumentPrefix(tenantID, c.ID))
	assert.NotContains(t, up.StorageKey, "..")

	_, err = svc.AttachDocument(ctx, p, c.ID, AttachDocumentRequest{StorageKey: up.StorageKey})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "DOCUMENT_NOT_UPLOADED", de.Code)

	store.Put(up.StorageKey, 2048, "application/pdf")
	resp, err := svc.AttachDocument(ctx, p, c.ID, AttachDocumentRequest{StorageKey: up.StorageKey})
	require.NoError(t, err)
	assert.True(t, resp.HasDocument)

	dl, err := svc.DocumentDownloadURL(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, dl.URL)
}

func TestService_AttachDocument_ForeignKeyRejected(t *testing.T) {
	svc, repo, _, store, _ := setup(t)
	tenantID := uuid.New()
	now := time.Now()
	c := newContract(t, tenantID, now.AddDate(0, -1, 0), now.AddDate(1, 0, 0), false)
	repo.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)

	foreign := contract.DocumentPrefix(tenantID, uuid.New()) + "x.pdf"
	store.Put(foreign, 10, "application/pdf")
	_, err := svc.AttachDocument(context.Background(), procurement(tenantID), c.ID, AttachDocumentRequest{StorageKey: foreign})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_DOCUMENT", de.Code)
	repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestService_List_ExpiringWithin(t *testing.T) {
	svc, repo, _, _, _ := setup(t)
	tenantID := uuid.New()
	repo.On("FindAll", mock.Anything, tenantID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["expiring_within"] == 30 && f.OrderBy == "end_date" && f.OrderDir == "asc"
	})).Return([]contract.Contract{}, int64(0), nil)

	items, total, err := svc.List(context.Background(), tenantID, ListFilter{ExpiringWithin: 30})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	repo.AssertExpectations(t)
}

func TestService_Sweep(t *testing.T) {
	svc, repo, _, _, events := setup(t)
	tenantID := uuid.New()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	expiring := newContract(t, tenantID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, -1), false)
	renewing := newContract(t, tenantID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, -1), true)
	notice := newContract(t, tenantID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, 10), false)
	quiet := newContract(t, tenantID, now.AddDate(-1, 0, 0), now.AddDate(0, 6, 0), false)
	conflicted := newContract(t, tenantID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, -2), false)

	repo.On("FindActive", mock.Anything, tenantID).
		Return([]contract.Contract{*expiring, *renewing, *notice, *quiet, *conflicted}, nil)
	repo.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(c *contract.Contract) bool { return c.ID == conflicted.ID })).
		Return(shared.ErrConcurrencyConflict)
	repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*contract.Contract")).Return(nil)

	result, err := svc.Sweep(context.Background(), tenantID, now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 5, Renewed: 1, Expired: 1, Notices: 1, Conflicts: 1}, result)
	assert.Contains(t, events.types, contract.EventTypeRenewalDue)
	assert.Contains(t, events.types, contract.EventTypeExpired)
	assert.Contains(t, events.types, contract.EventTypeRenewed)
}

type staticTenants []uuid.UUID

func (s staticTenants) ActiveTenantIDs(context.Context) ([]uuid.UUID, error) {
	return s, nil
}

func TestService_SweepAll(t *testing.T) {
	svc, repo, _, _, _ := setup(t)
	healthy, broken := uuid.New(), uuid.New()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	expiring := newContract(t, healthy, now.AddDate(-1, 0, 0), now.AddDate(0, 0, -1), false)
	repo.On("FindActive", mock.Anything, broken).Return([]contract.Contract{}, errors.New("db down"))
	repo.On("FindActive", mock.Anything, healthy).Return([]contract.Contract{*expiring}, nil)
	repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*contract.Contract")).Return(nil)

	result, err := svc.SweepAll(context.Background(), staticTenants{broken, healthy}, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, SweepResult{Checked: 1, Expired: 1}, result)
	repo.AssertExpectations(t)
}
