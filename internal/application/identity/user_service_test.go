package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func adminPrincipal(tenantID uuid.UUID) identity.Principal {
	return identity.Principal{TenantID: tenantID, UserID: uuid.New(), Name: "admin", Role: identity.RoleAdmin}
}

func newUser(t *testing.T, tenantID uuid.UUID, username string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(tenantID, username, username+"@example.com", "password1", identity.RoleEmployee)
	require.NoError(t, err)
	return u
}

func TestUserService_Create(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	manager := newUser(t, tenantID, "boss")

	repo.On("ExistsByUsername", mock.Anything, tenantID, "bob").Return(false, nil)
	repo.On("ExistsByEmail", mock.Anything, tenantID, "bob@example.com").Return(false, nil)
	repo.On("FindByID", mock.Anything, tenantID, manager.ID).Return(manager, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	dto, err := svc.Create(context.Background(), adminPrincipal(tenantID), CreateUserInput{
		Username:   "Bob",
		Email:      "bob@example.com",
		Password:   "password1",
		Role:       "procurement",
		ManagerID:  &manager.ID,
		Department: "Ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", dto.Username)
	assert.Equal(t, "PROCUREMENT", dto.Role)
	assert.Equal(t, &manager.ID, dto.ManagerID)
	repo.AssertExpectations(t)
}

func TestUserService_Create_Duplicate(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	repo.On("ExistsByUsername", mock.Anything, tenantID, "bob").Return(true, nil)

	_, err := svc.Create(context.Background(), adminPrincipal(tenantID), CreateUserInput{
		Username: "bob", Email: "bob@example.com", Password: "password1", Role: "EMPLOYEE",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestUserService_Update_RejectsManagerCycle(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())

	// a -> b -> c; making c report to a closes the loop
	a := newUser(t, tenantID, "anna")
	b := newUser(t, tenantID, "bert")
	c := newUser(t, tenantID, "carl")
	require.NoError(t, a.SetManager(&b.ID))
	require.NoError(t, b.SetManager(&c.ID))

	repo.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)
	repo.On("FindByID", mock.Anything, tenantID, a.ID).Return(a, nil)
	repo.On("FindByID", mock.Anything, tenantID, b.ID).Return(b, nil)

	_, err := svc.Update(context.Background(), adminPrincipal(tenantID), c.ID, UpdateUserInput{ManagerID: &a.ID})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "MANAGER_CYCLE", de.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUserService_Update_SelfManager(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	a := newUser(t, tenantID, "anna")
	repo.On("FindByID", mock.Anything, tenantID, a.ID).Return(a, nil)

	_, err := svc.Update(context.Background(), adminPrincipal(tenantID), a.ID, UpdateUserInput{ManagerID: &a.ID})
	assert.ErrorContains(t, err, "own manager")
}

func TestUserService_Update_RoleAndStatus(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	a := newUser(t, tenantID, "anna")
	repo.On("FindByID", mock.Anything, tenantID, a.ID).Return(a, nil)
	repo.On("Save", mock.Anything, a).Return(nil)

	role, status := "FINANCE", "deactivated"
	dto, err := svc.Update(context.Background(), adminPrincipal(tenantID), a.ID, UpdateUserInput{Role: &role, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "FINANCE", dto.Role)
	assert.Equal(t, "deactivated", dto.Status)
}

func TestUserService_Update_CannotDeactivateSelf(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	a := newUser(t, tenantID, "anna")
	repo.On("FindByID", mock.Anything, tenantID, a.ID).Return(a, nil)

	p := identity.PrincipalOf(a)
	p.Role = identity.RoleAdmin
	status := "deactivated"
	_, err := svc.Update(context.Background(), p, a.ID, UpdateUserInput{Status: &status})
	assert.ErrorContains(t, err, "own account")
}

func TestUserService_ManagerOf(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	boss := newUser(t, tenantID, "boss")
	emp := newUser(t, tenantID, "emp")
	require.NoError(t, emp.SetManager(&boss.ID))
	loner := newUser(t, tenantID, "loner")

	repo.On("FindByID", mock.Anything, tenantID, emp.ID).Return(emp, nil)
	repo.On("FindByID", mock.Anything, tenantID, boss.ID).Return(boss, nil)
	repo.On("FindByID", mock.Anything, tenantID, loner.ID).Return(loner, nil)

	m, err := svc.ManagerOf(context.Background(), tenantID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, boss.ID, m.ID)

	m, err = svc.ManagerOf(context.Background(), tenantID, loner.ID)
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, boss.Deactivate())
	m, err = svc.ManagerOf(context.Background(), tenantID, emp.ID)
	require.NoError(t, err)
	assert.Nil(t, m, "deactivated managers do not count")
}
