package api

import (
	"errors"
	"net/http"

	"whatsapp-gateway/internal/auth"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Sessions   *auth.Sessions
	CookieName string
}

func NewAuthHandler(sessions *auth.Sessions, cookieName string) *AuthHandler {
	return &AuthHandler{Sessions: sessions, CookieName: cookieName}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req pkgmodels.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Sessions.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to log in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.CookieName, session.ID, int(h.Sessions.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "username": session.Username, "expires_at": session.ExpiresAt})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if id, err := c.Cookie(h.CookieName); err == nil {
		if err := h.Sessions.Logout(c.Request.Context(), id); err != nil {
			respondError(c, err, "Failed to log out")
			return
		}
	}
	c.SetCookie(h.CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me reports the identity resolved for the current request.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, identity)
}
