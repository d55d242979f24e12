package api

import (
	"net/http"

	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/conversation"
	"whatsapp-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	Store *conversation.Store
}

func NewConversationHandler(store *conversation.Store) *ConversationHandler {
	return &ConversationHandler{Store: store}
}

func (h *ConversationHandler) ListConversations(c *gin.Context) {
	summaries, err := h.Store.LatestPerPhone(c.Request.Context(), auth.TenantID(c))
	if err != nil {
		respondError(c, err, "Failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries, "count": len(summaries)})
}

// GetConversation returns the thread ascending; ?limit=N keeps the latest N.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	phone := c.Param("phone")
	thread, err := h.Store.Thread(c.Request.Context(), auth.TenantID(c), phone, queryLimit(c, 0))
	if err != nil {
		respondError(c, err, "Failed to load conversation")
		return
	}
	if thread == nil {
		thread = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"phone": phone, "messages": thread, "count": len(thread)})
}

func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	phone := c.Param("phone")
	deleted, err := h.Store.DeleteThread(c.Request.Context(), auth.TenantID(c), phone)
	if err != nil {
		respondError(c, err, "Failed to delete conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "phone": phone, "deleted": deleted})
}
