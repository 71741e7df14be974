package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"propval/internal/service"
)

// UserHandler handles admin user management endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create handles POST /api/v1/users
// @Summary Create a user
// @Description Create a new user in the caller's client (admin only)
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.CreateUserInput true "User details"
// @Success 201 {object} APIResponse{data=domain.User} "User created"
// @Failure 400 {object} APIResponse "Validation error"
// @Failure 403 {object} APIResponse "Caller is not an admin"
// @Failure 409 {object} APIResponse "Username already exists"
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	var input service.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	user, err := h.userService.Create(c.Request.Context(), id.ClientID, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, user)
}

// List handles GET /api/v1/users
// @Summary List users
// @Description List users of the caller's client (admin only)
// @Tags users
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} APIResponse{data=[]domain.User}
// @Failure 403 {object} APIResponse "Caller is not an admin"
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	page, limit, offset := parsePagination(c)

	users, total, err := h.userService.List(c.Request.Context(), id.ClientID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, users, PagMeta{Total: total, Page: page, Limit: limit})
}

// GetByID handles GET /api/v1/users/:id
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.User}
// @Failure 404 {object} APIResponse "User not found"
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id.ClientID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, user)
}

// Update handles PUT /api/v1/users/:id
// @Summary Update a user
// @Description Update email, full name, role, or active flag (admin only)
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID (UUID)"
// @Param request body service.UpdateUserInput true "Fields to update"
// @Success 200 {object} APIResponse{data=domain.User}
// @Failure 404 {object} APIResponse "User not found"
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
		return
	}
	var input service.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id.ClientID, userID, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, user)
}

// Delete handles DELETE /api/v1/users/:id
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User ID (UUID)"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse "User not found"
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id.ClientID, userID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": userID})
}
