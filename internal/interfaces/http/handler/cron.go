package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/contract"
	"github.com/procurement/backend/internal/application/reminder"
)

// ReminderSweeper runs one reminder pass over every tenant
type ReminderSweeper interface {
	Sweep(ctx context.Context, now time.Time) (reminder.Result, error)
}

// ContractSweeper runs one contract pass over the given tenants
type ContractSweeper interface {
	SweepAll(ctx context.Context, tenants contract.TenantSource, now time.Time) (contract.SweepResult, error)
}

// CronHandler exposes the periodic jobs to an external scheduler. The routes
// sit behind the shared cron secret, not a user token.
type CronHandler struct {
	BaseHandler
	reminders ReminderSweeper
	contracts ContractSweeper
	tenants   contract.TenantSource
	now       func() time.Time
}

// NewCronHandler creates a new cron handler
func NewCronHandler(reminders ReminderSweeper, contracts ContractSweeper, tenants contract.TenantSource) *CronHandler {
	return &CronHandler{
		reminders: reminders,
		contracts: contracts,
		tenants:   tenants,
		now:       time.Now,
	}
}

// Reminders sends due reminders and escalations
// POST /cron/reminders
func (h *CronHandler) Reminders(c *gin.Context) {
	result, err := h.reminders.Sweep(c.Request.Context(), h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Contracts renews, expires and flags contracts
// POST /cron/contracts
func (h *CronHandler) Contracts(c *gin.Context) {
	result, err := h.contracts.SweepAll(c.Request.Context(), h.tenants, h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
