package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/notification"
)

// NotificationHandler exposes the email log
type NotificationHandler struct {
	BaseHandler
	notifier *notification.Notifier
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier *notification.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// List returns the sent and failed emails, newest first
// GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter notification.ListFilter
	if !h.bindQuery(c, &filter) || !h.optionalUUID(c, "related_id", &filter.RelatedID) {
		return
	}
	items, total, err := h.notifier.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
