package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"propval/internal/csvexport"
	"propval/internal/domain"
	"propval/internal/middleware"
	"propval/internal/service"
	"propval/internal/xlsxexport"
)

// RecordHandler handles valuation record endpoints for a single form variant.
type RecordHandler struct {
	recordService service.RecordService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(recordService service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// statusFilter reads the lifecycle filter from the query. The public
// parameter is status; state is accepted as an alias.
func statusFilter(c *gin.Context) domain.RecordState {
	s := c.Query("status")
	if s == "" {
		s = c.Query("state")
	}
	return domain.RecordState(s)
}

// identityFromBody pulls caller identity fields out of a create request body.
// Submissions from field devices carry identity inline rather than in headers.
func identityFromBody(body map[string]json.RawMessage) (domain.Identity, bool) {
	str := func(key string) string {
		raw, ok := body[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	id := domain.Identity{
		Username: str("username"),
		Role:     domain.UserRole(str("userRole")),
		ClientID: str("clientId"),
	}
	if id.Username == "" && id.ClientID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// Create handles POST /api/v1/:variant
// @Summary Create a valuation record
// @Description Create a new valuation record in pending state. Creating with an existing uniqueId returns the stored record flagged as a duplicate instead of writing.
// @Tags records
// @Accept json
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param request body map[string]interface{} true "Record fields; uniqueId is required"
// @Success 201 {object} APIResponse{data=domain.ValuationRecord} "Record created"
// @Success 200 {object} APIResponse{data=domain.ValuationRecord} "Duplicate uniqueId, existing record returned"
// @Failure 400 {object} APIResponse "Missing uniqueId or malformed payload"
// @Failure 401 {object} APIResponse "Caller identity missing"
// @Security BearerAuth
// @Router /{variant} [post]
func (h *RecordHandler) Create(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read request body")
		return
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "request body must be a JSON object")
		return
	}

	id, ok := middleware.GetIdentity(c)
	// Create alone accepts identity embedded in the submission body. It
	// outranks every transport except a bearer token, so a body triple wins
	// over identity scraped from query params or the legacy header.
	if !ok || middleware.IdentitySource(c) != middleware.SourceBearer {
		if bodyID, found := identityFromBody(body); found {
			middleware.SetBodyIdentity(c, bodyID)
			id = bodyID
		}
	}

	var uniqueID string
	if rawUID, exists := body["uniqueId"]; exists {
		if err := json.Unmarshal(rawUID, &uniqueID); err != nil {
			RespondError(c, http.StatusBadRequest, "MISSING_UNIQUE_ID", "uniqueId must be a string")
			return
		}
	}

	rec, err := h.recordService.Create(c.Request.Context(), id, uniqueID, raw)
	if err != nil {
		HandleError(c, err)
		return
	}
	if rec.IsDuplicate {
		RespondOK(c, rec)
		return
	}
	RespondCreated(c, rec)
}

// List handles GET /api/v1/:variant
// @Summary List valuation records
// @Description List records within the caller's client. Users see only their own submissions; managers and admins see all records of the client.
// @Tags records
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param status query string false "Filter by lifecycle status (state accepted as an alias)" Enums(pending, on-progress, approved, rejected, rework)
// @Param city query string false "Filter by payload city"
// @Param bankName query string false "Filter by payload bank name"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} APIResponse{data=[]domain.ValuationRecord}
// @Failure 401 {object} APIResponse "Caller identity missing"
// @Security BearerAuth
// @Router /{variant} [get]
func (h *RecordHandler) List(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	page, limit, offset := parsePagination(c)

	state := statusFilter(c)
	if state != "" && !domain.ValidStates[state] {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unknown status filter")
		return
	}

	records, total, err := h.recordService.List(c.Request.Context(), id, state, c.Query("city"), c.Query("bankName"), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, records, PagMeta{Total: total, Page: page, Limit: limit})
}

// GetByID handles GET /api/v1/:variant/:id
// @Summary Get a valuation record
// @Description Fetch a record by internal id or business uniqueId. Users may read only records they own.
// @Tags records
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Success 200 {object} APIResponse{data=domain.ValuationRecord}
// @Failure 403 {object} APIResponse "Not the record owner"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /{variant}/{id} [get]
func (h *RecordHandler) GetByID(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	rec, err := h.recordService.GetByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Update handles PUT /api/v1/:variant/:id
// @Summary Edit a valuation record
// @Description Merge the submitted fields into the record payload. Any successful edit moves the record to on-progress.
// @Tags records
// @Accept json
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Param request body map[string]interface{} true "Fields to merge into the payload"
// @Success 200 {object} APIResponse{data=domain.ValuationRecord}
// @Failure 403 {object} APIResponse "Role or state does not permit editing"
// @Failure 404 {object} APIResponse "Record not found"
// @Failure 409 {object} APIResponse "Concurrent modification"
// @Security BearerAuth
// @Router /{variant}/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read request body")
		return
	}
	rec, err := h.recordService.Update(c.Request.Context(), id, c.Param("id"), raw)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// ManagerSubmit handles POST /api/v1/:variant/:id/manager-submit
// @Summary Approve or reject a valuation record
// @Description Record a manager decision. Only 'approved' and 'rejected' are accepted; other actions fail without touching the record.
// @Tags records
// @Accept json
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Param request body ManagerSubmitRequest true "Decision details"
// @Success 200 {object} APIResponse{data=domain.ValuationRecord}
// @Failure 400 {object} APIResponse "Unknown action or disallowed source state"
// @Failure 403 {object} APIResponse "Caller is not a manager or admin"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /{variant}/{id}/manager-submit [post]
func (h *RecordHandler) ManagerSubmit(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req ManagerSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "action is required")
		return
	}
	rec, err := h.recordService.ManagerSubmit(c.Request.Context(), id, c.Param("id"), domain.ManagerAction(req.Action), req.feedback())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// RequestRework handles POST /api/v1/:variant/:id/request-rework
// @Summary Request rework on a valuation record
// @Description Send a record back to its owner with rework comments. Permitted from any state; earlier manager feedback is preserved.
// @Tags records
// @Accept json
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Param request body ReworkRequest true "Rework details"
// @Success 200 {object} APIResponse{data=domain.ValuationRecord}
// @Failure 403 {object} APIResponse "Caller is not a manager or admin"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /{variant}/{id}/request-rework [post]
func (h *RecordHandler) RequestRework(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req ReworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "comments are required")
		return
	}
	rec, err := h.recordService.RequestRework(c.Request.Context(), id, c.Param("id"), req.Comments)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Export handles GET /api/v1/:variant/export
// @Summary Export records to a spreadsheet
// @Description Download the caller's client records as an xlsx workbook or CSV file. Honors the same filters as the list endpoint.
// @Tags records
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param format query string false "Export format (default xlsx)" Enums(xlsx, csv)
// @Param status query string false "Filter by lifecycle status (state accepted as an alias)"
// @Param city query string false "Filter by payload city"
// @Param bankName query string false "Filter by payload bank name"
// @Success 200 {file} binary
// @Failure 403 {object} APIResponse "Caller is not a manager or admin"
// @Security BearerAuth
// @Router /{variant}/export [get]
func (h *RecordHandler) Export(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	state := statusFilter(c)
	if state != "" && !domain.ValidStates[state] {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unknown status filter")
		return
	}
	format := c.DefaultQuery("format", "xlsx")
	if format != "xlsx" && format != "csv" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "format must be 'xlsx' or 'csv'")
		return
	}

	const exportLimit = 10000
	records, _, err := h.recordService.List(c.Request.Context(), id, state, c.Query("city"), c.Query("bankName"), 0, exportLimit)
	if err != nil {
		HandleError(c, err)
		return
	}

	variant := h.recordService.Variant()
	if format == "csv" {
		h.exportCSV(c, variant, records)
		return
	}

	filename := fmt.Sprintf("%s-records-%s.xlsx", variant, time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := xlsxexport.Write(c.Writer, variant, records); err != nil {
		HandleError(c, err)
	}
}

func (h *RecordHandler) exportCSV(c *gin.Context, variant domain.FormVariant, records []domain.ValuationRecord) {
	filename := csvexport.BuildFilename(string(variant) + "_records")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteRecords(records); err != nil {
		return
	}
	w.Flush()
}

// ManagerSubmitRequest is the request body for manager decisions. Feedback
// is the documented field name; managerFeedback is accepted as an alias for
// clients that mirror the stored column name.
type ManagerSubmitRequest struct {
	Action          string `json:"action" binding:"required"`
	Feedback        string `json:"feedback"`
	ManagerFeedback string `json:"managerFeedback"`
}

func (r *ManagerSubmitRequest) feedback() string {
	if r.Feedback != "" {
		return r.Feedback
	}
	return r.ManagerFeedback
}

// ReworkRequest is the request body for rework requests.
type ReworkRequest struct {
	Comments string `json:"comments" binding:"required"`
}
