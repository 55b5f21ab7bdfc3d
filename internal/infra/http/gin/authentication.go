package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "staynest.principal"

// The identity collaborator terminates authentication upstream and
// forwards the resolved identity on trusted headers. This service only
// consumes the result.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

type principal struct {
	ID   string
	Role string
}

func (p principal) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	return strings.ToLower(p.Role) == role
}

// IdentityMiddleware lifts the forwarded identity into the request scope.
// Requests without the headers stay anonymous; route guards reject them.
type IdentityMiddleware struct{}

func (m IdentityMiddleware) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader(headerUserID))
	if id == "" {
		c.Next()
		return
	}
	role := strings.TrimSpace(c.GetHeader(headerUserRole))
	if role == "" {
		role = "traveller"
	}
	setPrincipal(c, principal{ID: id, Role: role})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireRole(c *gin.Context, role string) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	if role != "" && !p.HasRole(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return principal{}, false
	}
	return p, true
}
