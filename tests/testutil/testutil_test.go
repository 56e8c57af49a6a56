package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/procurement/backend/internal/domain/shared"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.Equal(t, NewTestUUID("test-tenant"), TestTenantID())
}

func TestDoJSON(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"name": body["name"], "auth": c.GetHeader("Authorization")},
		})
	})
	engine.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "ERR_INVALID_INPUT", "message": "bad"}})
	})

	w := DoJSON(t, engine, http.MethodPost, "/echo", "tok", map[string]string{"name": "acme"})
	assert.Equal(t, http.StatusOK, w.Code)
	data := DecodeData[map[string]string](t, w)
	assert.Equal(t, "acme", data["name"])
	assert.Equal(t, "Bearer tok", data["auth"])

	w = DoJSON(t, engine, http.MethodGet, "/fail", "", nil)
	env := DecodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "ERR_INVALID_INPUT", env.Error.Code)
}

func TestRecordingHandler(t *testing.T) {
	h := NewRecordingHandler("A", "B")
	assert.Equal(t, []string{"A", "B"}, h.EventTypes())
	assert.Nil(t, h.Last("A"))

	first := shared.NewBaseDomainEvent("A", "Test", uuid.New(), uuid.New())
	second := shared.NewBaseDomainEvent("B", "Test", uuid.New(), uuid.New())
	third := shared.NewBaseDomainEvent("A", "Test", uuid.New(), uuid.New())
	for _, e := range []*shared.BaseDomainEvent{&first, &second, &third} {
		assert.NoError(t, h.Handle(context.Background(), e))
	}

	assert.Len(t, h.Handled(), 3)
	assert.Equal(t, third.ID, h.Last("A").EventID())
	assert.Equal(t, second.ID, h.Last("B").EventID())
}

func TestRequireEventually(t *testing.T) {
	start := time.Now()
	RequireEventually(t, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}
