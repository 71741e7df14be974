package middleware_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propval/internal/domain"
	"propval/internal/middleware"
	"propval/internal/service"
	"propval/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func legacyHeader(username, role, clientID string) string {
	return base64.StdEncoding.EncodeToString([]byte(
		`{"username":"` + username + `","userRole":"` + role + `","clientId":"` + clientID + `"}`))
}

// identityProbe mounts the Identity middleware plus a handler that echoes the
// resolved identity and its transport source.
func identityProbe(authSvc service.AuthService) (*gin.Engine, *struct {
	id     domain.Identity
	ok     bool
	source string
}) {
	captured := &struct {
		id     domain.Identity
		ok     bool
		source string
	}{}
	r := gin.New()
	r.GET("/probe", middleware.Identity(authSvc), func(c *gin.Context) {
		captured.id, captured.ok = middleware.GetIdentity(c)
		captured.source = middleware.IdentitySource(c)
		c.Status(http.StatusOK)
	})
	return r, captured
}

func TestIdentity_Bearer(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateToken", "good-token").Return(&service.Claims{
		ClientID: "bank-a",
		Username: "alice",
		Role:     domain.RoleUser,
	}, nil)

	r, captured := identityProbe(authSvc)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, captured.ok)
	assert.Equal(t, middleware.SourceBearer, captured.source)
	assert.Equal(t, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"}, captured.id)
}

func TestIdentity_BearerBeatsQuery(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateToken", "good-token").Return(&service.Claims{
		ClientID: "bank-a",
		Username: "alice",
		Role:     domain.RoleUser,
	}, nil)

	r, captured := identityProbe(authSvc)
	req := httptest.NewRequest(http.MethodGet, "/probe?username=mallory&userRole=admin&clientId=bank-b", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, captured.ok)
	assert.Equal(t, middleware.SourceBearer, captured.source)
	assert.Equal(t, "alice", captured.id.Username)
}

func TestIdentity_QueryFallback(t *testing.T) {
	r, captured := identityProbe(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodGet, "/probe?username=alice&userRole=user&clientId=bank-a", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, captured.ok)
	assert.Equal(t, middleware.SourceQuery, captured.source)
	assert.Equal(t, domain.Identity{Username: "alice", Role: domain.RoleUser, ClientID: "bank-a"}, captured.id)
}

func TestIdentity_LegacyHeaderFallback(t *testing.T) {
	r, captured := identityProbe(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Auth-Context", legacyHeader("mgr", "manager", "bank-a"))
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, captured.ok)
	assert.Equal(t, middleware.SourceLegacy, captured.source)
	assert.Equal(t, domain.RoleManager, captured.id.Role)
}

func TestIdentity_QueryBeatsLegacy(t *testing.T) {
	r, captured := identityProbe(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodGet, "/probe?username=alice&userRole=user&clientId=bank-a", nil)
	req.Header.Set("X-Auth-Context", legacyHeader("mgr", "manager", "bank-a"))
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, captured.ok)
	assert.Equal(t, middleware.SourceQuery, captured.source)
	assert.Equal(t, "alice", captured.id.Username)
}

func TestIdentity_InvalidBearerFallsThrough(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateToken", "bad-token").Return(nil, domain.ErrUnauthenticated)

	r, captured := identityProbe(authSvc)
	req := httptest.NewRequest(http.MethodGet, "/probe?username=alice&userRole=user&clientId=bank-a", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, captured.ok)
	assert.Equal(t, middleware.SourceQuery, captured.source)
}

func TestIdentity_GarbageLegacyHeaderIgnored(t *testing.T) {
	r, captured := identityProbe(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Auth-Context", "%%%not-base64%%%")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, captured.ok)
}

func TestIdentity_NoTransport(t *testing.T) {
	r, captured := identityProbe(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, captured.ok)
}

func requireHeaderAuthRouter(authSvc service.AuthService) *gin.Engine {
	r := gin.New()
	r.POST("/decide", middleware.Identity(authSvc), middleware.RequireHeaderAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireHeaderAuth_RejectsQueryTransport(t *testing.T) {
	// Manager endpoints refuse query-carried identity outright.
	r := requireHeaderAuthRouter(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodPost, "/decide?username=mgr&userRole=manager&clientId=bank-a", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireHeaderAuth_AcceptsLegacyHeader(t *testing.T) {
	r := requireHeaderAuthRouter(new(mocks.MockAuthService))
	req := httptest.NewRequest(http.MethodPost, "/decide", nil)
	req.Header.Set("X-Auth-Context", legacyHeader("mgr", "manager", "bank-a"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireHeaderAuth_AcceptsBearer(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateToken", "good-token").Return(&service.Claims{
		ClientID: "bank-a", Username: "mgr", Role: domain.RoleManager,
	}, nil)

	r := requireHeaderAuthRouter(authSvc)
	req := httptest.NewRequest(http.MethodPost, "/decide", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/managers-only",
		middleware.Identity(new(mocks.MockAuthService)),
		middleware.RequireRole(domain.RoleManager, domain.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		role string
		want int
	}{
		{"manager", http.StatusOK},
		{"admin", http.StatusOK},
		{"user", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/managers-only", nil)
		req.Header.Set("X-Auth-Context", legacyHeader("someone", tc.role, "bank-a"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "role %s", tc.role)
	}

	// No identity at all.
	req := httptest.NewRequest(http.MethodGet, "/managers-only", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
