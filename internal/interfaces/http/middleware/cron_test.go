package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
)

func TestCronSecret(t *testing.T) {
	newRouter := func(secret string) *gin.Engine {
		router := gin.New()
		router.POST("/cron", CronSecret(secret), func(c *gin.Context) {
			actor, ok := logger.GetActor(c.Request.Context())
			assert.True(t, ok)
			assert.Equal(t, "system", actor.Kind)
			c.Status(http.StatusOK)
		})
		return router
	}

	tests := []struct {
		name       string
		configured string
		given      string
		want       int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"unconfigured secret rejects everything", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cron", nil)
			if tt.given != "" {
				req.Header.Set(CronSecretHeader, tt.given)
			}
			w := httptest.NewRecorder()
			newRouter(tt.configured).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
