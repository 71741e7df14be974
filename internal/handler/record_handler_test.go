package handler_test

import (
	"bytes"
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
	"propval/internal/middleware"
	"propval/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRecordHandler() (*handler.RecordHandler, *mocks.MockRecordService) {
	mockSvc := new(mocks.MockRecordService)
	h := handler.NewRecordHandler(mockSvc)
	return h, mockSvc
}

func testContext(w *httptest.ResponseRecorder, method, target string, body []byte) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request, _ = http.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, r
}

func withIdentity(c *gin.Context, id domain.Identity) {
	c.Set(middleware.ContextKeyIdentity, id)
	c.Set(middleware.ContextKeyIdentitySource, middleware.SourceBearer)
}

func sampleRecord(state domain.RecordState) *domain.ValuationRecord {
	return &domain.ValuationRecord{
		ID:            uuid.New(),
		ClientID:      "bank-a",
		UniqueID:      "VAL-001",
		OwnerUsername: "alice",
		State:         state,
		Payload:       json.RawMessage(`{"city":"Pune"}`),
		Version:       1,
	}
}

func TestRecordHandler_Create_Success(t *testing.T) {
	h, mockSvc := newRecordHandler()

	created := sampleRecord(domain.StatePending)
	mockSvc.On("Create", mock.Anything,
		domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"},
		"VAL-001", mock.Anything).Return(created, nil)

	body := []byte(`{"uniqueId":"VAL-001","city":"Pune"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf", body)
	withIdentity(c, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Create_IdentityFromBody(t *testing.T) {
	// Field-device submissions carry the identity triple inline in the body.
	h, mockSvc := newRecordHandler()

	created := sampleRecord(domain.StatePending)
	mockSvc.On("Create", mock.Anything,
		domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"},
		"VAL-001", mock.Anything).Return(created, nil)

	body := []byte(`{"uniqueId":"VAL-001","username":"alice","userRole":"user","clientId":"bank-a","city":"Pune"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf", body)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Create_DuplicateReturns200(t *testing.T) {
	h, mockSvc := newRecordHandler()

	existing := sampleRecord(domain.StateApproved)
	existing.IsDuplicate = true
	mockSvc.On("Create", mock.Anything, mock.Anything, "VAL-001", mock.Anything).Return(existing, nil)

	body := []byte(`{"uniqueId":"VAL-001"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf", body)
	withIdentity(c, domain.Identity{Username: "bob", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Create(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_duplicate":true`)
}

func TestRecordHandler_Create_MissingUniqueID(t *testing.T) {
	h, mockSvc := newRecordHandler()
	mockSvc.On("Create", mock.Anything, mock.Anything, "", mock.Anything).Return(nil, domain.ErrMissingUniqueID)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf", []byte(`{"city":"Pune"}`))
	withIdentity(c, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_UNIQUE_ID")
}

func TestRecordHandler_Create_MalformedBody(t *testing.T) {
	h, _ := newRecordHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf", []byte(`[1,2,3]`))
	withIdentity(c, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandler_GetByID_NotFound(t *testing.T) {
	h, mockSvc := newRecordHandler()
	mockSvc.On("GetByID", mock.Anything, mock.Anything, "VAL-404").Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf/VAL-404", nil)
	c.Params = gin.Params{{Key: "id", Value: "VAL-404"}}
	withIdentity(c, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"})

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestRecordHandler_GetByID_NoIdentity(t *testing.T) {
	h, _ := newRecordHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf/VAL-001", nil)
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}

	h.GetByID(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordHandler_Update_VersionConflict(t *testing.T) {
	h, mockSvc := newRecordHandler()
	mockSvc.On("Update", mock.Anything, mock.Anything, "VAL-001", mock.Anything).Return(nil, domain.ErrVersionConflict)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPut, "/api/v1/ubi-apf/VAL-001", []byte(`{"city":"Nagpur"}`))
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Update(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERSION_CONFLICT")
}

func TestRecordHandler_Update_Forbidden(t *testing.T) {
	h, mockSvc := newRecordHandler()
	mockSvc.On("Update", mock.Anything, mock.Anything, "VAL-001", mock.Anything).Return(nil, domain.ErrForbidden)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPut, "/api/v1/ubi-apf/VAL-001", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "bob", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Update(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecordHandler_ManagerSubmit_Success(t *testing.T) {
	h, mockSvc := newRecordHandler()

	approved := sampleRecord(domain.StateApproved)
	mockSvc.On("ManagerSubmit", mock.Anything, mock.Anything, "VAL-001", domain.ActionApproved, "looks good").
		Return(approved, nil)

	body := []byte(`{"action":"approved","managerFeedback":"looks good"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf/VAL-001/manager-submit", body)
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.ManagerSubmit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_ManagerSubmit_InvalidAction(t *testing.T) {
	h, mockSvc := newRecordHandler()
	mockSvc.On("ManagerSubmit", mock.Anything, mock.Anything, "VAL-001", domain.ManagerAction("escalated"), "").
		Return(nil, domain.ErrInvalidAction)

	body := []byte(`{"action":"escalated"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf/VAL-001/manager-submit", body)
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.ManagerSubmit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ACTION")
}

func TestRecordHandler_ManagerSubmit_MissingAction(t *testing.T) {
	h, _ := newRecordHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf/VAL-001/manager-submit", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.ManagerSubmit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandler_RequestRework_Success(t *testing.T) {
	h, mockSvc := newRecordHandler()

	reworked := sampleRecord(domain.StateRework)
	mockSvc.On("RequestRework", mock.Anything, mock.Anything, "VAL-001", "re-shoot the photos").
		Return(reworked, nil)

	body := []byte(`{"comments":"re-shoot the photos"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf/VAL-001/request-rework", body)
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.RequestRework(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_List_Pagination(t *testing.T) {
	h, mockSvc := newRecordHandler()

	mockSvc.On("List", mock.Anything, mock.Anything, domain.StatePending, "Pune", "", 20, 20).
		Return([]domain.ValuationRecord{*sampleRecord(domain.StatePending)}, 41, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf?state=pending&city=Pune&page=2&limit=20", nil)
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 41, resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.Limit)
}

func TestRecordHandler_List_UnknownStateFilter(t *testing.T) {
	h, _ := newRecordHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf?state=archived", nil)
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandler_Export_CSV(t *testing.T) {
	h, mockSvc := newRecordHandler()

	mockSvc.On("List", mock.Anything, mock.Anything, domain.RecordState(""), "", "", 0, 10000).
		Return([]domain.ValuationRecord{*sampleRecord(domain.StateApproved)}, 1, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf/export?format=csv", nil)
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "VAL-001")
	assert.Contains(t, w.Body.String(), "Unique ID")
}

func TestRecordHandler_Export_UnknownFormat(t *testing.T) {
	h, _ := newRecordHandler()

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf/export?format=pdf", nil)
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func withQueryIdentity(c *gin.Context, id domain.Identity) {
	c.Set(middleware.ContextKeyIdentity, id)
	c.Set(middleware.ContextKeyIdentitySource, middleware.SourceQuery)
}

func TestRecordHandler_Create_BodyIdentityBeatsQueryIdentity(t *testing.T) {
	// A triple embedded in the submission body outranks identity scraped
	// from query params.
	h, mockSvc := newRecordHandler()

	created := sampleRecord(domain.StatePending)
	mockSvc.On("Create", mock.Anything,
		domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"},
		"VAL-001", mock.Anything).Return(created, nil)

	body := []byte(`{"uniqueId":"VAL-001","username":"alice","userRole":"user","clientId":"bank-a"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf?username=mallory&userRole=user&clientId=bank-b", body)
	withQueryIdentity(c, domain.Identity{Username: "mallory", Role: domain.RoleUser, ClientID: "bank-b"})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything,
		domain.Identity{Username: "mallory", Role: domain.RoleUser, ClientID: "bank-b"},
		mock.Anything, mock.Anything)
}

func TestRecordHandler_Create_BearerIdentityBeatsBody(t *testing.T) {
	h, mockSvc := newRecordHandler()

	created := sampleRecord(domain.StatePending)
	mockSvc.On("Create", mock.Anything,
		domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"},
		"VAL-001", mock.Anything).Return(created, nil)

	body := []byte(`{"uniqueId":"VAL-001","username":"mallory","userRole":"manager","clientId":"bank-b"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf", body)
	withIdentity(c, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_ManagerSubmit_FeedbackField(t *testing.T) {
	h, mockSvc := newRecordHandler()

	rejected := sampleRecord(domain.StateRejected)
	mockSvc.On("ManagerSubmit", mock.Anything, mock.Anything, "VAL-001", domain.ActionRejected, "missing site photos").
		Return(rejected, nil)

	body := []byte(`{"action":"rejected","feedback":"missing site photos"}`)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodPost, "/api/v1/ubi-apf/VAL-001/manager-submit", body)
	c.Params = gin.Params{{Key: "id", Value: "VAL-001"}}
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.ManagerSubmit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_List_StatusFilter(t *testing.T) {
	h, mockSvc := newRecordHandler()

	mockSvc.On("List", mock.Anything, mock.Anything, domain.StateApproved, "", "", 0, 20).
		Return([]domain.ValuationRecord{*sampleRecord(domain.StateApproved)}, 1, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf?status=approved", nil)
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Export_StatusFilter(t *testing.T) {
	h, mockSvc := newRecordHandler()

	mockSvc.On("List", mock.Anything, mock.Anything, domain.StateApproved, "", "", 0, 10000).
		Return([]domain.ValuationRecord{*sampleRecord(domain.StateApproved)}, 1, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/api/v1/ubi-apf/export?format=csv&status=approved", nil)
	withIdentity(c, domain.Identity{Username: "mgr", Role: domain.RoleManager, ClientID: "bank-a"})

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}
