package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	onboardingapp "github.com/procurement/backend/internal/application/onboarding"
	requisitionapp "github.com/procurement/backend/internal/application/requisition"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/cache"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserDirectory is a mock implementation of UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
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

// fakeOnboarding applies manager decisions directly to the loaded request
type fakeOnboarding struct {
	request *onboarding.Request
	calls   []identity.Principal
	err     error
}

func (f *fakeOnboarding) ManagerDecision(_ context.Context, p identity.Principal, _ uuid.UUID, req onboardingapp.DecisionRequest) (*onboardingapp.RequestResponse, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	actor := onboarding.UserActor(p.UserID, p.Name)
	var err error
	if req.Decision == DecisionApprove {
		err = f.request.ApproveByManager(actor, req.Comment)
	} else {
		err = f.request.RejectByManager(actor, req.Comment)
	}
	if err != nil {
		return nil, err
	}
	resp := onboardingapp.ToRequestResponse(f.request)
	return &resp, nil
}

func (f *fakeOnboarding) ProcurementDecision(_ context.Context, p identity.Principal, _ uuid.UUID, _ onboardingapp.DecisionRequest) (*onboardingapp.RequestResponse, error) {
	f.calls = append(f.calls, p)
	return &onboardingapp.RequestResponse{Status: "AWAITING_DOCUMENTS"}, nil
}

// fakeRequisitions approves through the domain with the principal's pools
type fakeRequisitions struct {
	req   *requisition.Requisition
	calls int
}

func (f *fakeRequisitions) Approve(_ context.Context, p identity.Principal, _ uuid.UUID, req requisitionapp.CommentRequest) (*requisitionapp.RequisitionResponse, error) {
	f.calls++
	if err := f.req.Approve(requisitionapp.DeciderOf(p), req.Comment); err != nil {
		return nil, err
	}
	resp := requisitionapp.ToRequisitionResponse(f.req)
	return &resp, nil
}

func (f *fakeRequisitions) Reject(_ context.Context, p identity.Principal, _ uuid.UUID, req requisitionapp.CommentRequest) (*requisitionapp.RequisitionResponse, error) {
	f.calls++
	if err := f.req.Reject(requisitionapp.DeciderOf(p), req.Comment); err != nil {
		return nil, err
	}
	resp := requisitionapp.ToRequisitionResponse(f.req)
	return &resp, nil
}

type fixture struct {
	svc          *Service
	links        *Links
	users        *MockUserDirectory
	requests     *MockRequestRepository
	requisitions *MockRequisitionRepository
	onboarding   *fakeOnboarding
	reqs         *fakeRequisitions
	store        *cache.InMemoryRedemptionStore

	tenantID  uuid.UUID
	manager   *identity.User
	requester *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens := auth.NewActionTokenService(config.ApprovalConfig{ActionSecret: "action-secret", ActionTokenTTL: time.Hour}, "procurement")
	f := &fixture{
		links:        NewLinks(tokens, "https://procure.example.com/"),
		users:        new(MockUserDirectory),
		requests:     new(MockRequestRepository),
		requisitions: new(MockRequisitionRepository),
		onboarding:   &fakeOnboarding{},
		reqs:         &fakeRequisitions{},
		store:        cache.NewInMemoryRedemptionStore(),
		tenantID:     uuid.New(),
	}
	t.Cleanup(func() { _ = f.store.Close() })

	var err error
	f.manager, err = identity.NewUser(f.tenantID, "mgr", "mgr@example.com", "password1", identity.RoleEmployee)
	require.NoError(t, err)
	f.requester, err = identity.NewUser(f.tenantID, "req", "req@example.com", "password1", identity.RoleEmployee)
	require.NoError(t, err)
	f.users.On("FindByID", mock.Anything, f.tenantID, f.manager.ID).Return(f.manager, nil)

	f.svc = NewService(tokens, f.store, f.users, f.requests, f.requisitions, f.onboarding, f.reqs, telemetry.NewMetrics(), zap.NewNop())
	return f
}

func (f *fixture) onboardingRequest(t *testing.T) *onboarding.Request {
	t.Helper()
	r, err := onboarding.NewRequest(onboarding.NewRequestParams{
		TenantID:             f.tenantID,
		RequestNumber:        "ONB-2026-00001",
		SupplierID:           uuid.New(),
		SupplierName:         "Acme",
		SupplierEmail:        "jo@acme.example",
		Requester:            onboarding.UserActor(f.requester.ID, "req"),
		ManagerID:            f.manager.ID,
		Justification:        "Second source",
		EstimatedAnnualSpend: decimal.NewFromInt(50000),
		Currency:             "USD",
	})
	require.NoError(t, err)
	f.onboarding.request = r
	f.requests.On("FindByID", mock.Anything, f.tenantID, r.ID).Return(r, nil)
	return r
}

func tokenOf(t *testing.T, link Link) string {
	t.Helper()
	const prefix = "https://procure.example.com/approvals/"
	require.Contains(t, link.URL, prefix)
	return link.URL[len(prefix):]
}

func TestLinks_URLShape(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)

	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenOf(t, link))
	assert.WithinDuration(t, time.Now().Add(time.Hour), link.ExpiresAt, time.Minute)
}

func TestService_DescribeAction(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)
	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)

	d, err := f.svc.DescribeAction(context.Background(), tokenOf(t, link))
	require.NoError(t, err)
	assert.Equal(t, "onboarding.manager", d.Kind)
	assert.Equal(t, "ONB-2026-00001", d.Number)
	assert.Equal(t, "mgr", d.ApproverName)
	assert.True(t, d.Actionable)
	assert.Empty(t, f.onboarding.calls, "describing must not act")
}

func TestService_ApplyAction_SingleUse(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)
	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)
	token := tokenOf(t, link)
	ctx := context.Background()

	res, err := f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, "PENDING_PROCUREMENT_APPROVAL", res.Status)
	require.Len(t, f.onboarding.calls, 1)
	assert.Equal(t, f.manager.ID, f.onboarding.calls[0].UserID)

	// The request moved on, so the same link is now stale
	_, err = f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, ErrActionStale)

	d, err := f.svc.DescribeAction(ctx, token)
	require.NoError(t, err)
	assert.False(t, d.Actionable)
	assert.Equal(t, "ACTION_STALE", d.Reason)
}

func TestService_ApplyAction_ReplayIsUsed(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)
	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)
	token := tokenOf(t, link)
	ctx := context.Background()

	// Losing the race to another decision consumes the link
	f.onboarding.err = shared.ErrConcurrencyConflict
	_, err = f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, onboarding.StatusPendingManagerApproval, r.Status)

	f.onboarding.err = nil
	_, err = f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, ErrActionUsed)
	assert.Len(t, f.onboarding.calls, 1)
}

func TestService_ApplyAction_FailedDecisionReleasesLink(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)
	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)
	token := tokenOf(t, link)
	ctx := context.Background()

	f.onboarding.err = errors.New("db: connection reset")
	_, err = f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	require.EqualError(t, err, "db: connection reset")
	assert.Equal(t, onboarding.StatusPendingManagerApproval, r.Status)
	assert.Zero(t, f.store.Size(), "the link is released for another attempt")

	d, err := f.svc.DescribeAction(ctx, token)
	require.NoError(t, err)
	assert.True(t, d.Actionable)

	f.onboarding.err = nil
	res, err := f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, "PENDING_PROCUREMENT_APPROVAL", res.Status)
	assert.Len(t, f.onboarding.calls, 2)

	_, err = f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, ErrActionStale)
}

func TestService_ApplyAction_RejectNeedsCommentBeforeRedeeming(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)
	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)
	token := tokenOf(t, link)
	ctx := context.Background()

	_, err = f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionReject})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "COMMENT_REQUIRED", de.Code)

	res, err := f.svc.ApplyAction(ctx, token, ApplyRequest{Decision: DecisionReject, Comment: "not needed"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", res.Status)
}

func TestService_ApplyAction_RequisitionStepStale(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.requester.SetManager(&f.manager.ID))
	r, err := requisition.NewRequisition(f.tenantID, "REQ-2026-00001", f.requester.ID, "req", "Laptops", "USD")
	require.NoError(t, err)
	require.NoError(t, r.SetLines([]requisition.LineInput{{Description: "Laptop", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(9000)}}))
	require.NoError(t, r.Submit(requisition.DefaultApprovalPolicy(), &f.manager.ID))
	f.reqs.req = r
	f.requisitions.On("FindByID", mock.Anything, f.tenantID, r.ID).Return(r, nil)

	link, err := f.links.ForRequisition(r, f.manager.ID)
	require.NoError(t, err)
	ctx := context.Background()

	// Manager approves in the app, moving the requisition to procurement
	require.NoError(t, r.Approve(requisitionapp.DeciderOf(identity.PrincipalOf(f.manager)), ""))

	_, err = f.svc.ApplyAction(ctx, tokenOf(t, link), ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, ErrActionStale)
	assert.Zero(t, f.reqs.calls)
}

func TestService_ApplyAction_InvalidToken(t *testing.T) {
	f := newFixture(t)
	other := auth.NewActionTokenService(config.ApprovalConfig{ActionSecret: "other-secret"}, "procurement")
	token, err := other.Issue(auth.ActionTokenInput{
		TenantID:   f.tenantID,
		ApproverID: f.manager.ID,
		Kind:       auth.ActionRequisitionStep,
		Ref:        uuid.New(),
		Stage:      "1",
	})
	require.NoError(t, err)

	_, err = f.svc.ApplyAction(context.Background(), token, ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, ErrActionInvalid)
	_, err = f.svc.DescribeAction(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrActionInvalid)
}

func TestService_ApplyAction_InactiveApprover(t *testing.T) {
	f := newFixture(t)
	r := f.onboardingRequest(t)
	link, err := f.links.ForOnboarding(r, f.manager.ID)
	require.NoError(t, err)
	require.NoError(t, f.manager.Deactivate())

	_, err = f.svc.ApplyAction(context.Background(), tokenOf(t, link), ApplyRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, f.onboarding.calls)
}
