package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/approval"
	"github.com/procurement/backend/internal/application/notification"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/mail"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTenantSource is a mock implementation of TenantSource
type MockTenantSource struct {
	mock.Mock
}

func (m *MockTenantSource) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockDirectory is a mock implementation of notification.Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockDirectory) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, role)
	return args.Get(0).([]*identity.User), args.Error(1)
}

// MockRequestRepository is a mock implementation of onboarding.RequestRepository
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*onboarding.Request, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*onboarding.Request), args.Error(1)
}

func (m *MockRequestRepository) FindByInvitationHash(ctx context.Context, tokenHash string) (*onboarding.Request, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*onboarding.Request), args.Error(1)
}

func (m *MockRequestRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]onboarding.Request, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]onboarding.Request), args.Get(1).(int64), args.Error(2)
}

func (m *MockRequestRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) ([]onboarding.Request, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]onboarding.Request), args.Error(1)
}

func (m *MockRequestRepository) Create(ctx context.Context, r *onboarding.Request) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRequestRepository) SaveWithLock(ctx context.Context, r *onboarding.Request) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRequestRepository) GenerateRequestNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockRequisitionRepository is a mock implementation of requisition.RequisitionRepository
type MockRequisitionRepository struct {
	mock.Mock
}

func (m *MockRequisitionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*requisition.Requisition, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*requisition.Requisition), args.Error(1)
}

func (m *MockRequisitionRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]requisition.Requisition, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]requisition.Requisition), args.Get(1).(int64), args.Error(2)
}

func (m *MockRequisitionRepository) FindPendingApproval(ctx context.Context, tenantID uuid.UUID) ([]requisition.Requisition, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]requisition.Requisition), args.Error(1)
}

func (m *MockRequisitionRepository) Create(ctx context.Context, r *requisition.Requisition) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRequisitionRepository) SaveWithLock(ctx context.Context, r *requisition.Requisition) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRequisitionRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Envelope
	fail map[string]error
}

func (s *recordingSender) Notify(_ context.Context, env notification.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[env.To]; err != nil {
		return err
	}
	s.sent = append(s.sent, env)
	return nil
}

func (s *recordingSender) to(addr string) []notification.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notification.Envelope
	for _, e := range s.sent {
		if e.To == addr {
			out = append(out, e)
		}
	}
	return out
}

var now = time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC)

type fixture struct {
	tenantID     uuid.UUID
	tenants      *MockTenantSource
	users        *MockDirectory
	requests     *MockRequestRepository
	requisitions *MockRequisitionRepository
	sender       *recordingSender
	svc          *Service

	requester *identity.User
	manager   *identity.User
	buyer     *identity.User
	admin     *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tenantID:     uuid.New(),
		tenants:      new(MockTenantSource),
		users:        new(MockDirectory),
		requests:     new(MockRequestRepository),
		requisitions: new(MockRequisitionRepository),
		sender:       &recordingSender{fail: map[string]error{}},
	}
	f.requester = f.user(t, "rita", identity.RoleEmployee)
	f.manager = f.user(t, "mia", identity.RoleEmployee)
	f.buyer = f.user(t, "pat", identity.RoleProcurement)
	f.admin = f.user(t, "ada", identity.RoleAdmin)
	f.users.On("FindActiveByRole", mock.Anything, f.tenantID, identity.RoleProcurement).Return([]*identity.User{f.buyer}, nil).Maybe()
	f.users.On("FindActiveByRole", mock.Anything, f.tenantID, identity.RoleAdmin).Return([]*identity.User{f.admin}, nil).Maybe()
	f.tenants.On("ActiveTenantIDs", mock.Anything).Return([]uuid.UUID{f.tenantID}, nil)

	tokens := auth.NewActionTokenService(config.ApprovalConfig{ActionSecret: "secret", ActionTokenTTL: time.Hour}, "procurement")
	urls := notification.URLs{BaseURL: "https://procure.example.com", PortalURL: "https://procure.example.com/portal"}
	f.svc = NewService(f.tenants, f.requests, f.requisitions, notification.NewRecipients(f.users), f.sender,
		approval.NewLinks(tokens, urls.BaseURL),
		Options{Policy: reminder.DefaultPolicy(), InvitationTTL: 72 * time.Hour, URLs: urls},
		telemetry.NewMetrics(), zap.NewNop())
	return f
}

func (f *fixture) user(t *testing.T, username string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(f.tenantID, username, username+"@example.com", "password1", role)
	require.NoError(t, err)
	f.users.On("FindByID", mock.Anything, f.tenantID, u.ID).Return(u, nil).Maybe()
	return u
}

func (f *fixture) request(t *testing.T, waited time.Duration) *onboarding.Request {
	t.Helper()
	r, err := onboarding.NewRequest(onboarding.NewRequestParams{
		TenantID:          f.tenantID,
		RequestNumber:     "ONB-2026-00004",
		SupplierID:        uuid.New(),
		SupplierName:      "Acme",
		SupplierEmail:     "jo@acme.example",
		Requester:         onboarding.UserActor(f.requester.ID, f.requester.Name()),
		ManagerID:         f.manager.ID,
		Justification:     "Second source",
		Currency:          "USD",
		RequiredDocuments: []string{"TAX_CERTIFICATE"},
	})
	require.NoError(t, err)
	r.ClearDomainEvents()
	r.Reminder = reminder.NewTracker(now.Add(-waited))
	return r
}

func (f *fixture) noRequisitions() {
	f.requisitions.On("FindPendingApproval", mock.Anything, f.tenantID).Return([]requisition.Requisition{}, nil)
}

func TestSweep_RemindsManagerWithActionLink(t *testing.T) {
	f := newFixture(t)
	r := f.request(t, 50*time.Hour)
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{*r}, nil)
	f.requests.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1, Reminded: 1}, res)

	sent := f.sender.to(f.manager.Email)
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateReminder, sent[0].Template)
	assert.True(t, strings.HasPrefix(sent[0].Data["ActionURL"].(string), "https://procure.example.com/approvals/"))
	assert.Equal(t, "2 days", sent[0].Data["Age"])
	assert.Equal(t, notification.RelatedOnboarding, sent[0].RelatedType)

	saved := f.requests.Calls[len(f.requests.Calls)-1].Arguments.Get(1).(*onboarding.Request)
	assert.Equal(t, 1, saved.Reminder.ReminderCount)
	assert.Equal(t, onboarding.ActionReminderSent, saved.Steps[len(saved.Steps)-1].Action)
}

func TestSweep_EscalatesToAdminsWithoutManagersManager(t *testing.T) {
	f := newFixture(t)
	r := f.request(t, 121*time.Hour)
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{*r}, nil)
	f.requests.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1, Escalated: 1}, res)

	sent := f.sender.to(f.admin.Email)
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateEscalation, sent[0].Template)
	assert.Equal(t, f.manager.Name(), sent[0].Data["ResponsibleName"])
	assert.Empty(t, f.sender.to(f.manager.Email))
}

func TestSweep_SupplierReminderReissuesPortalLink(t *testing.T) {
	f := newFixture(t)
	r := f.request(t, 0)
	require.NoError(t, r.ApproveByManager(onboarding.UserActor(f.manager.ID, f.manager.Name()), ""))
	oldToken, err := r.ApproveByProcurement(onboarding.UserActor(f.buyer.ID, f.buyer.Name()), "", time.Hour)
	require.NoError(t, err)
	r.ClearDomainEvents()
	r.Reminder = reminder.NewTracker(now.Add(-49 * time.Hour))

	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{*r}, nil)
	f.requests.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reminded)

	sent := f.sender.to("jo@acme.example")
	require.Len(t, sent, 1)
	url := sent[0].Data["ActionURL"].(string)
	require.True(t, strings.HasPrefix(url, "https://procure.example.com/portal/onboarding/"))
	newToken := strings.TrimPrefix(url, "https://procure.example.com/portal/onboarding/")

	saved := f.requests.Calls[len(f.requests.Calls)-1].Arguments.Get(1).(*onboarding.Request)
	assert.NoError(t, saved.VerifyInvitation(newToken, time.Now()))
	assert.Error(t, saved.VerifyInvitation(oldToken, time.Now()))
	assert.Empty(t, saved.GetDomainEvents())
}

func TestSweep_ConflictIsSkipped(t *testing.T) {
	f := newFixture(t)
	r := f.request(t, 50*time.Hour)
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{*r}, nil)
	f.requests.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1, Skipped: 1}, res)
}

func TestSweep_FailedDeliveryIsNotRecorded(t *testing.T) {
	f := newFixture(t)
	f.sender.fail[f.manager.Email] = errors.New("421 try later")
	r := f.request(t, 50*time.Hour)
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{*r}, nil)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1, Failed: 1}, res)
	f.requests.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSweep_NotYetDue(t *testing.T) {
	f := newFixture(t)
	r := f.request(t, 10*time.Hour)
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{*r}, nil)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1}, res)
	assert.Empty(t, f.sender.sent)
}

func TestSweep_RequisitionPoolExcludesRequester(t *testing.T) {
	f := newFixture(t)
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{}, nil)

	buyerRequester := f.user(t, "bob", identity.RoleProcurement)
	f.users.ExpectedCalls = removeRoleExpectation(f.users.ExpectedCalls, identity.RoleProcurement)
	f.users.On("FindActiveByRole", mock.Anything, f.tenantID, identity.RoleProcurement).
		Return([]*identity.User{buyerRequester, f.buyer}, nil)

	r, err := requisition.NewRequisition(f.tenantID, "REQ-2026-00002", buyerRequester.ID, buyerRequester.Name(), "Monitors", "USD")
	require.NoError(t, err)
	require.NoError(t, r.SetLines([]requisition.LineInput{{
		Description: "Monitor", Category: "IT", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(400),
	}}))
	require.NoError(t, r.Submit(requisition.DefaultApprovalPolicy(), &f.manager.ID))
	require.NoError(t, r.Approve(requisition.Decider{ID: f.manager.ID, Name: f.manager.Name()}, ""))
	r.ClearDomainEvents()
	r.CurrentStep().Reminder = reminder.NewTracker(now.Add(-60 * time.Hour))

	f.requisitions.On("FindPendingApproval", mock.Anything, f.tenantID).Return([]requisition.Requisition{*r}, nil)
	f.requisitions.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1, Reminded: 1}, res)
	assert.Empty(t, f.sender.to(buyerRequester.Email))
	require.Len(t, f.sender.to(f.buyer.Email), 1)

	saved := f.requisitions.Calls[len(f.requisitions.Calls)-1].Arguments.Get(1).(*requisition.Requisition)
	assert.Equal(t, 1, saved.CurrentStep().Reminder.ReminderCount)
}

func removeRoleExpectation(calls []*mock.Call, role identity.Role) []*mock.Call {
	out := calls[:0]
	for _, c := range calls {
		if c.Method == "FindActiveByRole" && c.Arguments.Get(2) == role {
			continue
		}
		out = append(out, c)
	}
	return out
}

func TestSweep_TenantFailureContinues(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	f.tenants.ExpectedCalls = nil
	f.tenants.On("ActiveTenantIDs", mock.Anything).Return([]uuid.UUID{other, f.tenantID}, nil)
	f.requests.On("FindOpen", mock.Anything, other).Return([]onboarding.Request{}, errors.New("db down"))
	f.requests.On("FindOpen", mock.Anything, f.tenantID).Return([]onboarding.Request{}, nil)
	f.noRequisitions()

	res, err := f.svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "1 hour", FormatAge(90*time.Minute))
	assert.Equal(t, "5 hours", FormatAge(5*time.Hour))
	assert.Equal(t, "1 day", FormatAge(30*time.Hour))
	assert.Equal(t, "5 days", FormatAge(121*time.Hour))
}
