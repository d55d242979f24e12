package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contextTenantKey   = "tenant_id"
	contextIdentityKey = "identity"
)

// RequireTenant resolves the caller and stores the identity on the context.
// API paths answer 401 JSON; page requests are redirected to /login.
func RequireTenant(resolver *Resolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request.Context(), RequestCredentials(c, cookieName))
		if err != nil {
			reject(c, err)
			return
		}
		c.Set(contextTenantKey, identity.TenantID)
		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

// RequestCredentials extracts the bearer token and session cookie.
func RequestCredentials(c *gin.Context, cookieName string) Credentials {
	var creds Credentials
	if header := c.GetHeader("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		creds.BearerToken = strings.TrimSpace(header[7:])
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		creds.SessionID = cookie
	}
	return creds
}

func reject(c *gin.Context, err error) {
	if errors.Is(err, ErrModuleDenied) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

// TenantID returns the tenant resolved by RequireTenant.
func TenantID(c *gin.Context) string {
	return c.GetString(contextTenantKey)
}

func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextIdentityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}
