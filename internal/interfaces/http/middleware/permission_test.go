package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRequireAnyPermission(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/dashboard", RequirePermission(identity.PermDashboardView), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/spend", RequireAnyPermissionWithConfig(
		PermissionConfig{Logger: zap.NewNop()},
		identity.PermProcurementManage, identity.PermFinanceApprove,
	), func(c *gin.Context) {
		assert.True(t, HasPermission(c, identity.PermFinanceApprove) || HasPermission(c, identity.PermProcurementManage))
		c.Status(http.StatusCreated)
	})

	tests := []struct {
		name   string
		role   identity.Role
		method string
		path   string
		want   int
	}{
		{"employee cannot view dashboard", identity.RoleEmployee, http.MethodGet, "/dashboard", http.StatusForbidden},
		{"finance views dashboard", identity.RoleFinance, http.MethodGet, "/dashboard", http.StatusOK},
		{"finance records spend", identity.RoleFinance, http.MethodPost, "/spend", http.StatusCreated},
		{"procurement records spend", identity.RoleProcurement, http.MethodPost, "/spend", http.StatusCreated},
		{"employee cannot record spend", identity.RoleEmployee, http.MethodPost, "/spend", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := issueToken(t, svc, tt.role)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
			}
		})
	}
}

func TestRequirePermission_WithoutClaims(t *testing.T) {
	router := gin.New()
	router.GET("/test", RequirePermission(identity.PermUsersManage), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}
