package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, login string) (*identity.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, role)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error) {
	args := m.Called(ctx, tenantID, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret-0123456789abcdef",
		RefreshSecret:          "test-refresh-secret-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "test",
		MaxRefreshCount:        2,
	})
}

func createTestUser(t *testing.T, tenantID uuid.UUID, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(tenantID, "alice", "alice@example.com", "password1", role)
	require.NoError(t, err)
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(MockUserRepository)
	jwtSvc := newTestJWTService()
	svc := NewAuthService(repo, jwtSvc, zap.NewNop())
	user := createTestUser(t, uuid.New(), identity.RoleProcurement)

	repo.On("FindByLogin", mock.Anything, "alice").Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)

	result, err := svc.Login(context.Background(), LoginInput{Login: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotNil(t, user.LastLoginAt)

	claims, err := jwtSvc.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "PROCUREMENT", claims.Role)
	assert.True(t, claims.HasPermission(identity.PermProcurementManage))
	repo.AssertExpectations(t)
}

func TestAuthService_Login_FailuresLookAlike(t *testing.T) {
	tenantID := uuid.New()

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, newTestJWTService(), zap.NewNop())
		repo.On("FindByLogin", mock.Anything, "nobody").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(context.Background(), LoginInput{Login: "nobody", Password: "password1"})
		assert.ErrorIs(t, err, errInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, newTestJWTService(), zap.NewNop())
		repo.On("FindByLogin", mock.Anything, "alice").Return(createTestUser(t, tenantID, identity.RoleEmployee), nil)

		_, err := svc.Login(context.Background(), LoginInput{Login: "alice", Password: "wrong-pass1"})
		assert.ErrorIs(t, err, errInvalidCredentials)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("deactivated", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, newTestJWTService(), zap.NewNop())
		user := createTestUser(t, tenantID, identity.RoleEmployee)
		require.NoError(t, user.Deactivate())
		repo.On("FindByLogin", mock.Anything, "alice").Return(user, nil)

		_, err := svc.Login(context.Background(), LoginInput{Login: "alice", Password: "password1"})
		assert.ErrorIs(t, err, errInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	repo := new(MockUserRepository)
	jwtSvc := newTestJWTService()
	svc := NewAuthService(repo, jwtSvc, zap.NewNop())
	user := createTestUser(t, uuid.New(), identity.RoleEmployee)

	pair, err := jwtSvc.GenerateTokenPair(tokenInput(user, 0))
	require.NoError(t, err)

	// Role changed since login: refreshed tokens carry the new permissions
	require.NoError(t, user.SetRole(identity.RoleFinance))
	repo.On("FindByID", mock.Anything, user.TenantID, user.ID).Return(user, nil)

	result, err := svc.Refresh(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "FINANCE", claims.Role)

	refreshClaims, err := jwtSvc.ValidateRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshClaims.RefreshCount)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository), newTestJWTService(), zap.NewNop())

	_, err := svc.Refresh(context.Background(), RefreshTokenInput{RefreshToken: "not-a-token"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "TOKEN_INVALID", de.Code)
}

func TestAuthService_Refresh_DeactivatedUser(t *testing.T) {
	repo := new(MockUserRepository)
	jwtSvc := newTestJWTService()
	svc := NewAuthService(repo, jwtSvc, zap.NewNop())
	user := createTestUser(t, uuid.New(), identity.RoleEmployee)
	pair, err := jwtSvc.GenerateTokenPair(tokenInput(user, 0))
	require.NoError(t, err)
	require.NoError(t, user.Deactivate())
	repo.On("FindByID", mock.Anything, user.TenantID, user.ID).Return(user, nil)

	_, err = svc.Refresh(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assert.ErrorContains(t, err, "no longer active")
}

func TestAuthService_Me(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, newTestJWTService(), zap.NewNop())
	user := createTestUser(t, uuid.New(), identity.RoleAdmin)
	repo.On("FindByID", mock.Anything, user.TenantID, user.ID).Return(user, nil)

	dto, err := svc.Me(context.Background(), identity.PrincipalOf(user))
	require.NoError(t, err)
	assert.Equal(t, "alice", dto.Username)
	assert.Contains(t, dto.Permissions, identity.PermUsersManage)
}
