package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"propval/internal/domain"
	"propval/internal/service"
)

const (
	ContextKeyIdentity       = "identity"
	ContextKeyIdentitySource = "identity_source"
)

// Identity transport sources, in resolution priority order.
const (
	SourceBearer = "bearer"
	SourceQuery  = "query"
	SourceLegacy = "legacy"
	SourceBody   = "body"
)

// Identity returns middleware that resolves the caller identity triple from
// whichever transport carried it: bearer JWT first, then query parameters,
// then the legacy base64 X-Auth-Context header. Body-carried identity is a
// create-only convention handled by the handler, which slots between bearer
// and query in priority.
//
// Resolution is soft: handlers decide whether a missing identity is fatal,
// so the create endpoint can still read identity fields out of its body.
func Identity(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := fromBearer(c, authService); ok {
			setIdentity(c, id, SourceBearer)
		} else if id, ok := fromQuery(c); ok {
			setIdentity(c, id, SourceQuery)
		} else if id, ok := fromLegacyHeader(c); ok {
			setIdentity(c, id, SourceLegacy)
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id domain.Identity, source string) {
	c.Set(ContextKeyIdentity, id)
	c.Set(ContextKeyIdentitySource, source)
}

// SetBodyIdentity records an identity a handler recovered from its request
// body (legacy create calls carry the triple inline).
func SetBodyIdentity(c *gin.Context, id domain.Identity) {
	setIdentity(c, id, SourceBody)
}

func fromBearer(c *gin.Context, authService service.AuthService) (domain.Identity, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return domain.Identity{}, false
	}
	claims, err := authService.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return domain.Identity{}, false
	}
	return domain.Identity{
		Username: claims.Username,
		Role:     claims.Role,
		ClientID: claims.ClientID,
	}, true
}

func fromQuery(c *gin.Context) (domain.Identity, bool) {
	id := domain.Identity{
		Username: c.Query("username"),
		Role:     domain.UserRole(c.Query("userRole")),
		ClientID: c.Query("clientId"),
	}
	if id.Username == "" && id.ClientID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// fromLegacyHeader decodes the X-Auth-Context header carried by older
// clients: base64 over a JSON {username, userRole, clientId} object.
func fromLegacyHeader(c *gin.Context) (domain.Identity, bool) {
	encoded := c.GetHeader("X-Auth-Context")
	if encoded == "" {
		return domain.Identity{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.Identity{}, false
	}
	var payload struct {
		Username string `json:"username"`
		UserRole string `json:"userRole"`
		ClientID string `json:"clientId"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Identity{}, false
	}
	if payload.Username == "" {
		return domain.Identity{}, false
	}
	return domain.Identity{
		Username: payload.Username,
		Role:     domain.UserRole(payload.UserRole),
		ClientID: payload.ClientID,
	}, true
}

// GetIdentity extracts the resolved identity from the Gin context.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return domain.Identity{}, false
	}
	return val.(domain.Identity), true
}

// IdentitySource reports which transport the identity came from.
func IdentitySource(c *gin.Context) string {
	val, exists := c.Get(ContextKeyIdentitySource)
	if !exists {
		return ""
	}
	return val.(string)
}

// RequireHeaderAuth returns middleware for the manager endpoints, which
// accept identity from header transports only (bearer or legacy header),
// never from query parameters.
func RequireHeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, ok := GetIdentity(c)
		source := IdentitySource(c)
		if !ok || (source != SourceBearer && source != SourceLegacy) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHENTICATED", "message": "header-based authentication required"},
			})
			return
		}
		c.Next()
	}
}

// RequireRole returns middleware that checks the resolved identity's role
// against the allowed roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHENTICATED", "message": "caller identity required"},
			})
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   gin.H{"code": "FORBIDDEN", "message": "insufficient permissions"},
		})
	}
}
