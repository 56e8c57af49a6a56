package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipal(t *testing.T) {
	u, err := NewUser(uuid.New(), "ann", "ann@example.com", "secret123", RoleFinance)
	require.NoError(t, err)
	require.NoError(t, u.SetDisplayName("Ann Smith"))

	p := PrincipalOf(u)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, u.TenantID, p.TenantID)
	assert.Equal(t, "Ann Smith", p.Name)
	assert.True(t, p.Can(PermFinanceApprove))
	assert.False(t, p.Can(PermUsersManage))
	assert.False(t, p.IsAdmin())
	assert.True(t, Principal{Role: RoleAdmin}.IsAdmin())
}
