package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/approval"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// withPrincipal simulates the JWT middleware for handler tests
func withPrincipal(p identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, p)
		c.Set(middleware.JWTTenantIDKey, p.TenantID.String())
		c.Set(middleware.JWTUserIDKey, p.UserID.String())
		c.Next()
	}
}

func testPrincipal(role identity.Role) identity.Principal {
	return identity.Principal{TenantID: uuid.New(), UserID: uuid.New(), Name: "Pat Doe", Role: role}
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(t, envelope.Success, rec.Body.String())
	return envelope.Data
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMeta(c, []string{"item1", "item2"}, 100, 0, 0)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 5, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.POST("/test", func(c *gin.Context) { h.Created(c, gin.H{"id": "123"}) })
	router.DELETE("/test", func(c *gin.Context) { h.NoContent(c) })

	rec := doJSON(router, http.MethodPost, "/test", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(router, http.MethodDelete, "/test", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestBaseHandlerErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) { h.BadRequest(c, "Invalid request") })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"wrapped domain error", fmt.Errorf("load: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unmapped business rule", shared.NewDomainError("DUPLICATE_PERIOD", "already rated"), http.StatusUnprocessableEntity, "ERR_DUPLICATE_PERIOD"},
		{"approval link expired", approval.ErrActionExpired, http.StatusGone, dto.ErrCodeActionExpired},
		{"approval link used", approval.ErrActionUsed, http.StatusConflict, dto.ErrCodeActionUsed},
		{"max bytes", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleErrorHidesInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, fmt.Errorf("pq: password authentication failed"))

	resp := decodeResponse(t, w)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "pq:")
}

type bindTarget struct {
	Name string `json:"name" binding:"required,max=5"`
}

type optionalTarget struct {
	Note string `json:"note" binding:"max=5"`
}

func TestBaseHandlerBindJSON(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.POST("/required", func(c *gin.Context) {
		var req bindTarget
		if h.bindJSON(c, &req) {
			h.Success(c, req)
		}
	})
	router.POST("/optional", func(c *gin.Context) {
		var req optionalTarget
		if h.bindJSON(c, &req) {
			h.Success(c, req)
		}
	})

	t.Run("valid body", func(t *testing.T) {
		rec := doJSON(router, http.MethodPost, "/required", bindTarget{Name: "abc"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := doJSON(router, http.MethodPost, "/required", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, rec).Error.Code)
	})

	t.Run("validation failure lists the field", func(t *testing.T) {
		rec := doJSON(router, http.MethodPost, "/required", bindTarget{Name: "toolong"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "max", resp.Error.Details[0].Tag)
	})

	t.Run("empty body still validates required fields", func(t *testing.T) {
		rec := doJSON(router, http.MethodPost, "/required", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, rec).Error.Code)
	})

	t.Run("empty body accepted when nothing is required", func(t *testing.T) {
		rec := doJSON(router, http.MethodPost, "/optional", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		limited := gin.New()
		limited.Use(middleware.BodyLimit(16))
		limited.POST("/required", func(c *gin.Context) {
			var req bindTarget
			if h.bindJSON(c, &req) {
				h.Success(c, req)
			}
		})
		body := `{"name":"` + strings.Repeat("x", 64) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/required", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestBaseHandlerPathAndQueryUUID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := h.pathUUID(c, "id")
		if !ok {
			return
		}
		var owner *uuid.UUID
		if !h.optionalUUID(c, "owner_id", &owner) {
			return
		}
		h.Success(c, gin.H{"id": id, "owner": owner})
	})

	id, owner := uuid.New(), uuid.New()

	rec := doJSON(router, http.MethodGet, "/items/"+id.String()+"?owner_id="+owner.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[map[string]string](t, rec)
	assert.Equal(t, id.String(), data["id"])
	assert.Equal(t, owner.String(), data["owner"])

	rec = doJSON(router, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, rec).Error.Code)

	rec = doJSON(router, http.MethodGet, "/items/"+id.String()+"?owner_id=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBaseHandlerPrincipalRequired(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/me", func(c *gin.Context) {
		if _, ok := h.principal(c); ok {
			h.Success(c, nil)
		}
	})

	rec := doJSON(router, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newAuthedRequest(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := newRequest(method, path)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(router, req)
}
