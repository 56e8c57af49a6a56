package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appspend "github.com/procurement/backend/internal/application/spend"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/spend"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSpendRepository is a mock implementation of spend.RecordRepository
type MockSpendRepository struct {
	mock.Mock
}

func (m *MockSpendRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*spend.Record, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spend.Record), args.Error(1)
}

func (m *MockSpendRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]spend.Record, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]spend.Record), args.Get(1).(int64), args.Error(2)
}

func (m *MockSpendRepository) ExistsForRequisition(ctx context.Context, tenantID, requisitionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, requisitionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSpendRepository) Save(ctx context.Context, r *spend.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockSpendRepository) SaveBatch(ctx context.Context, records []*spend.Record) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockSpendRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockSupplierFinder is a mock implementation of the supplier lookups
type MockSupplierFinder struct {
	mock.Mock
}

func (m *MockSupplierFinder) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.Supplier), args.Error(1)
}

func (m *MockSupplierFinder) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*supplier.Supplier, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.Supplier), args.Error(1)
}

func activeTestSupplier(t *testing.T, tenantID uuid.UUID, code string) *supplier.Supplier {
	t.Helper()
	sup, err := supplier.NewSupplier(tenantID, "Acme Ltd", "IT", "Jo Smith", "jo@acme.example")
	require.NoError(t, err)
	require.NoError(t, sup.Activate(code))
	return sup
}

func setupSpendRouter(p identity.Principal, repo *MockSpendRepository, suppliers *MockSupplierFinder) *gin.Engine {
	h := NewSpendHandler(appspend.NewService(repo, suppliers, "USD", zap.NewNop()))
	router := gin.New()
	router.Use(withPrincipal(p))
	router.POST("/spend/import", h.Import)
	router.DELETE("/spend/:id", h.Delete)
	return router
}

func multipartCSV(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/spend/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestSpendHandler_Import(t *testing.T) {
	p := testPrincipal(identity.RoleFinance)
	repo := new(MockSpendRepository)
	suppliers := new(MockSupplierFinder)
	router := setupSpendRouter(p, repo, suppliers)

	suppliers.On("FindByCode", mock.Anything, p.TenantID, "SUP-00001").Return(activeTestSupplier(t, p.TenantID, "SUP-00001"), nil)
	suppliers.On("FindByCode", mock.Anything, p.TenantID, "SUP-09999").Return(nil, shared.ErrNotFound)
	repo.On("SaveBatch", mock.Anything, mock.MatchedBy(func(records []*spend.Record) bool {
		return len(records) == 1 && records[0].Source == spend.SourceImport
	})).Return(nil)

	csv := "\ufeffsupplier_code,category,description,amount,spent_on,invoice_number\n" +
		"SUP-00001,IT,Laptops,1200.50,2026-02-10,INV-1\n" +
		"SUP-09999,IT,Mystery,10,2026-02-11,INV-2\n"
	rec := serve(router, multipartCSV(t, "file", "spend.csv", csv))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeData[appspend.ImportResult](t, rec)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	repo.AssertExpectations(t)
}

func TestSpendHandler_ImportRejectsBadUploads(t *testing.T) {
	p := testPrincipal(identity.RoleProcurement)
	router := setupSpendRouter(p, new(MockSpendRepository), new(MockSupplierFinder))

	t.Run("wrong field", func(t *testing.T) {
		rec := serve(router, multipartCSV(t, "upload", "spend.csv", "x"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidFile, decodeResponse(t, rec).Error.Code)
	})

	t.Run("not a csv", func(t *testing.T) {
		rec := serve(router, multipartCSV(t, "file", "spend.xlsx", "x"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidFile, decodeResponse(t, rec).Error.Code)
	})
}

func TestSpendHandler_EmployeeCannotImport(t *testing.T) {
	router := setupSpendRouter(testPrincipal(identity.RoleEmployee), new(MockSpendRepository), new(MockSupplierFinder))

	csv := "supplier_code,category,description,amount,spent_on,invoice_number\n"
	rec := serve(router, multipartCSV(t, "file", "spend.csv", csv))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeResponse(t, rec).Error.Code)
}

func TestSpendHandler_Delete(t *testing.T) {
	p := testPrincipal(identity.RoleFinance)
	repo := new(MockSpendRepository)
	router := setupSpendRouter(p, repo, new(MockSupplierFinder))
	id := uuid.New()

	repo.On("FindByID", mock.Anything, p.TenantID, id).Return(nil, shared.ErrNotFound)

	rec := serve(router, newRequest(http.MethodDelete, "/spend/"+id.String()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
