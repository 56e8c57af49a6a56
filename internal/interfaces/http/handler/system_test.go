package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthResponse(t *testing.T, checks map[string]Pinger) (int, HealthResponse) {
	t.Helper()
	h := NewSystemHandler("1.2.3", checks)
	router := gin.New()
	router.GET("/health", h.Health)

	rec := serve(router, newRequest(http.MethodGet, "/health"))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestSystemHandler_HealthOK(t *testing.T) {
	code, resp := healthResponse(t, map[string]Pinger{
		"database": pingFunc(func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		}),
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.NotEmpty(t, resp.GoVersion)
}

func TestSystemHandler_HealthDegraded(t *testing.T) {
	code, resp := healthResponse(t, map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return nil }),
		"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "error", resp.Checks["redis"])
}
