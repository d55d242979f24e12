package api

import (
	"net/http"

	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/conversation"
	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/status"
	"whatsapp-gateway/internal/store"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the read-only diagnostic views.
type DashboardHandler struct {
	Conversations *conversation.Store
	Statuses      *status.Tracker
	Audit         *audit.Log
	Stats         store.StatsRepository
}

func NewDashboardHandler(conv *conversation.Store, statuses *status.Tracker, auditLog *audit.Log, stats store.StatsRepository) *DashboardHandler {
	return &DashboardHandler{Conversations: conv, Statuses: statuses, Audit: auditLog, Stats: stats}
}

func (h *DashboardHandler) GetMessages(c *gin.Context) {
	messages, err := h.Conversations.Recent(c.Request.Context(), auth.TenantID(c), queryLimit(c, 50))
	if err != nil {
		respondError(c, err, "Failed to list messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (h *DashboardHandler) GetStatuses(c *gin.Context) {
	statuses, err := h.Statuses.List(c.Request.Context(), auth.TenantID(c), queryLimit(c, 50))
	if err != nil {
		respondError(c, err, "Failed to list statuses")
		return
	}
	if statuses == nil {
		statuses = []models.DeliveryStatus{}
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses, "count": len(statuses)})
}

// GetLogs lists audit entries newest first, optionally filtered by ?type=.
func (h *DashboardHandler) GetLogs(c *gin.Context) {
	logType := models.LogType(c.Query("type"))
	switch logType {
	case "", models.LogMessage, models.LogStatus, models.LogError:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be message, status or error"})
		return
	}

	entries, err := h.Audit.List(c.Request.Context(), auth.TenantID(c), logType, queryLimit(c, 100))
	if err != nil {
		respondError(c, err, "Failed to list logs")
		return
	}
	if entries == nil {
		entries = []models.WebhookLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.Stats.Stats(c.Request.Context(), auth.TenantID(c))
	if err != nil {
		respondError(c, err, "Failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
