package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propval/internal/domain"
	"propval/internal/handler"
	"propval/internal/service"
	"propval/mocks"
)

func newUserHandler() (*handler.UserHandler, *mocks.MockUserService) {
	mockSvc := new(mocks.MockUserService)
	h := handler.NewUserHandler(mockSvc)
	return h, mockSvc
}

func adminIdentity() domain.Identity {
	return domain.Identity{Username: "root", Role: domain.RoleAdmin, ClientID: "bank-a"}
}

func TestUserHandler_Create_Success(t *testing.T) {
	h, mockSvc := newUserHandler()

	created := &domain.User{
		ID:       uuid.New(),
		ClientID: "bank-a",
		Username: "ravi",
		Role:     domain.RoleUser,
		IsActive: true,
	}
	mockSvc.On("Create", mock.Anything, "bank-a", service.CreateUserInput{
		Username: "ravi",
		Email:    "ravi@bank-a.example",
		Password: "s3cret-pass",
		FullName: "Ravi Patel",
		Role:     domain.RoleUser,
	}).Return(created, nil)

	body := []byte(`{"username":"ravi","email":"ravi@bank-a.example","password":"s3cret-pass","full_name":"Ravi Patel","role":"user"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/users", body)
	withIdentity(c, adminIdentity())

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestUserHandler_Create_DuplicateUsername(t *testing.T) {
	h, mockSvc := newUserHandler()
	mockSvc.On("Create", mock.Anything, "bank-a", mock.Anything).Return(nil, domain.ErrDuplicateUsername)

	body := []byte(`{"username":"ravi","email":"ravi@bank-a.example","password":"s3cret-pass","full_name":"Ravi Patel","role":"user"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/users", body)
	withIdentity(c, adminIdentity())

	h.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_USERNAME")
}

func TestUserHandler_Create_MissingFields(t *testing.T) {
	h, mockSvc := newUserHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/users", []byte(`{"username":"ravi"}`))
	withIdentity(c, adminIdentity())

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserHandler_List_Pagination(t *testing.T) {
	h, mockSvc := newUserHandler()

	mockSvc.On("List", mock.Anything, "bank-a", 0, 20).
		Return([]domain.User{{Username: "ravi"}}, 7, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/users", nil)
	withIdentity(c, adminIdentity())

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 7, resp.Meta.Total)
}

func TestUserHandler_GetByID_InvalidID(t *testing.T) {
	h, mockSvc := newUserHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/users/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	withIdentity(c, adminIdentity())

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserHandler_Delete_NotFound(t *testing.T) {
	h, mockSvc := newUserHandler()

	userID := uuid.New()
	mockSvc.On("Delete", mock.Anything, "bank-a", userID).Return(domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodDelete, "/api/v1/users/"+userID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: userID.String()}}
	withIdentity(c, adminIdentity())

	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
