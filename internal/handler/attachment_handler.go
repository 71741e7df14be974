package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"propval/internal/domain"
	"propval/internal/service"
)

// AttachmentHandler handles property photo and scan endpoints.
type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// variantParam resolves the :variant path segment, rejecting unknown variants.
func variantParam(c *gin.Context) (domain.FormVariant, bool) {
	v := domain.FormVariant(c.Param("variant"))
	if _, ok := domain.VariantTables[v]; !ok {
		RespondError(c, http.StatusNotFound, "UNKNOWN_VARIANT", "unknown form variant")
		return "", false
	}
	return v, true
}

// Upload handles POST /api/v1/:variant/:id/attachments
// @Summary Upload an attachment
// @Description Attach a property photo or scan to a record. Allowed only while the caller could edit the record.
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Param file formData file true "File to upload (jpg, png, pdf)"
// @Success 201 {object} APIResponse{data=domain.Attachment}
// @Failure 400 {object} APIResponse "Unsupported file type"
// @Failure 403 {object} APIResponse "Record not editable by the caller"
// @Failure 413 {object} APIResponse "File too large"
// @Security BearerAuth
// @Router /{variant}/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	variant, ok := variantParam(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file form field is required")
		return
	}
	defer file.Close()

	att, err := h.attachmentService.Upload(c.Request.Context(), service.AttachmentUploadInput{
		Identity: id,
		Variant:  variant,
		RecordID: c.Param("id"),
		File:     file,
		Header:   header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, att)
}

// ListByRecord handles GET /api/v1/:variant/:id/attachments
// @Summary List record attachments
// @Tags attachments
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Success 200 {object} APIResponse{data=[]domain.Attachment}
// @Failure 403 {object} APIResponse "Not readable by the caller"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /{variant}/{id}/attachments [get]
func (h *AttachmentHandler) ListByRecord(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	variant, ok := variantParam(c)
	if !ok {
		return
	}

	atts, err := h.attachmentService.ListByRecord(c.Request.Context(), id, variant, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, atts)
}

// Download handles GET /api/v1/:variant/:id/attachments/:attachmentId/url
// @Summary Get a presigned download URL for an attachment
// @Tags attachments
// @Produce json
// @Param variant path string true "Form variant" Enums(ubi-apf, ubi-shop, bom-flat)
// @Param id path string true "Record id or uniqueId"
// @Param attachmentId path string true "Attachment id"
// @Success 200 {object} APIResponse
// @Failure 403 {object} APIResponse "Not readable by the caller"
// @Failure 404 {object} APIResponse "Attachment not found"
// @Security BearerAuth
// @Router /{variant}/{id}/attachments/{attachmentId}/url [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	attID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "attachmentId must be a UUID")
		return
	}

	url, err := h.attachmentService.GetDownloadURL(c.Request.Context(), id, variant, c.Param("id"), attID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"download_url": url})
}
