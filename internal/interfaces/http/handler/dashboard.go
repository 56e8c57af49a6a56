package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/dashboard"
)

// SpendRangeQuery bounds the spend view. Both dates are optional.
type SpendRangeQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

// DashboardHandler serves the aggregate dashboard views
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary returns every view at once
// GET /dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	serveView(h, c, h.dashboardService.Summary)
}

// Contracts returns contract counts and upcoming expiries
// GET /dashboard/contracts
func (h *DashboardHandler) Contracts(c *gin.Context) {
	serveView(h, c, h.dashboardService.Contracts)
}

// Spend returns spend totals for a date range
// GET /dashboard/spend
func (h *DashboardHandler) Spend(c *gin.Context) {
	var q SpendRangeQuery
	if !h.bindQuery(c, &q) {
		return
	}
	serveView(h, c, func(ctx context.Context, tenantID uuid.UUID) (any, error) {
		return h.dashboardService.Spend(ctx, tenantID, q.From, q.To)
	})
}

// Evaluations returns score averages and supplier rankings
// GET /dashboard/evaluations
func (h *DashboardHandler) Evaluations(c *gin.Context) {
	serveView(h, c, h.dashboardService.Evaluations)
}

// Onboarding returns onboarding throughput
// GET /dashboard/onboarding
func (h *DashboardHandler) Onboarding(c *gin.Context) {
	serveView(h, c, h.dashboardService.Onboarding)
}

// Requisitions returns requisition volumes
// GET /dashboard/requisitions
func (h *DashboardHandler) Requisitions(c *gin.Context) {
	serveView(h, c, h.dashboardService.Requisitions)
}

func serveView[T any](h *DashboardHandler, c *gin.Context, view func(context.Context, uuid.UUID) (T, error)) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	data, err := view(c.Request.Context(), p.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}
