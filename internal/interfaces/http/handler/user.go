package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/identity"
	domainIdentity "github.com/procurement/backend/internal/domain/identity"
)

// UserListQuery holds the user list query parameters
type UserListQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=active deactivated"`
	Role     string `form:"role" binding:"omitempty,oneof=EMPLOYEE PROCUREMENT FINANCE ADMIN"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UserHandler handles user management HTTP requests
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create adds a user to the caller's tenant
// POST /users
func (h *UserHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identity.CreateUserInput
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Update changes a user's role, manager, department, name or status
// PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateUserInput
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Get returns one user
// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// List returns a page of users
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q UserListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := domainIdentity.UserFilter{Keyword: q.Search, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := domainIdentity.UserStatus(q.Status)
		filter.Status = &status
	}
	if q.Role != "" {
		role := domainIdentity.Role(q.Role)
		filter.Role = &role
	}

	result, err := h.userService.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Users, result.Total, result.Page, result.PageSize)
}
