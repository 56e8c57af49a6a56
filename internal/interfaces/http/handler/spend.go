package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/spend"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

// spendImportField is the multipart field carrying the CSV file
const spendImportField = "file"

// SpendHandler handles spend records and CSV imports
type SpendHandler struct {
	BaseHandler
	spendService *spend.Service
}

// NewSpendHandler creates a new spend handler
func NewSpendHandler(spendService *spend.Service) *SpendHandler {
	return &SpendHandler{spendService: spendService}
}

// Record books one spend entry
// POST /spend
func (h *SpendHandler) Record(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req spend.RecordSpendRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.spendService.Record(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of spend records
// GET /spend
func (h *SpendHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter spend.ListFilter
	if !h.bindQuery(c, &filter) || !h.optionalUUID(c, "supplier_id", &filter.SupplierID) {
		return
	}
	items, total, err := h.spendService.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Delete removes a spend record
// DELETE /spend/:id
func (h *SpendHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.spendService.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Import loads spend rows from an uploaded CSV file
// POST /spend/import
func (h *SpendHandler) Import(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	header, err := c.FormFile(spendImportField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleError(c, err)
			return
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidFile, "A CSV file is required in the \"file\" field")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidFile, "Only .csv files are accepted")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	result, err := h.spendService.ImportCSV(c.Request.Context(), p, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
