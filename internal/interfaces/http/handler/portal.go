package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/onboarding"
)

// PortalHandler serves the supplier-facing onboarding portal. The
// invitation token in the path is the only credential.
type PortalHandler struct {
	BaseHandler
	onboardingService *onboarding.Service
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(onboardingService *onboarding.Service) *PortalHandler {
	return &PortalHandler{onboardingService: onboardingService}
}

// View shows what the supplier is asked to provide
// GET /portal/onboarding/:token
func (h *PortalHandler) View(c *gin.Context) {
	view, err := h.onboardingService.PortalView(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UploadURL presigns a document upload
// POST /portal/onboarding/:token/upload-url
func (h *PortalHandler) UploadURL(c *gin.Context) {
	var req onboarding.PortalUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.onboardingService.PortalUploadURL(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit hands in the supplier profile and documents
// POST /portal/onboarding/:token/submit
func (h *PortalHandler) Submit(c *gin.Context) {
	var req onboarding.PortalSubmitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.onboardingService.PortalSubmit(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
