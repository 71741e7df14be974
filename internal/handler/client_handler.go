package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propval/internal/service"
)

// ClientHandler handles the caller's client (tenant) profile endpoints.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// Get handles GET /api/v1/client
// @Summary Get the caller's client profile
// @Tags client
// @Produce json
// @Success 200 {object} APIResponse{data=domain.Client}
// @Failure 403 {object} APIResponse "Caller is not an admin"
// @Security BearerAuth
// @Router /client [get]
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	client, err := h.clientService.Get(c.Request.Context(), id.ClientID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, client)
}

// Update handles PUT /api/v1/client
// @Summary Update the caller's client profile
// @Description Update the client display name or active flag (admin only)
// @Tags client
// @Accept json
// @Produce json
// @Param request body service.UpdateClientInput true "Fields to update"
// @Success 200 {object} APIResponse{data=domain.Client}
// @Failure 403 {object} APIResponse "Caller is not an admin"
// @Security BearerAuth
// @Router /client [put]
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	var input service.UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), id.ClientID, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, client)
}
