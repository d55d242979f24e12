package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/outbound"
	"whatsapp-gateway/internal/whatsapp"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

// SendHandler sends outbound messages. Flow supplies defaults for fields a
// flow request leaves empty. StatusTenant is the tenant that delivery
// callbacks for the sending phone number are attributed to.
type SendHandler struct {
	Outbound     *outbound.Service
	Flow         whatsapp.Flow
	StatusTenant string

	warned sync.Map
}

func NewSendHandler(out *outbound.Service, flow whatsapp.Flow, statusTenant string) *SendHandler {
	return &SendHandler{Outbound: out, Flow: flow, StatusTenant: statusTenant}
}

// unattributed reports, once per tenant, a sender whose delivery statuses
// will be stored under a different tenant.
func (h *SendHandler) unattributed(tenantID string) bool {
	if h.StatusTenant == "" || tenantID == h.StatusTenant {
		return false
	}
	_, seen := h.warned.LoadOrStore(tenantID, true)
	return !seen
}

func (h *SendHandler) checkAttribution(tenantID string) {
	if h.unattributed(tenantID) {
		log.Printf("Warning: tenant %q sends through a phone number mapped to %q; "+
			"delivery statuses will not correlate, add it to TENANT_PHONE_NUMBERS", tenantID, h.StatusTenant)
	}
}

func (h *SendHandler) SendText(c *gin.Context) {
	var req pkgmodels.SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to := strings.TrimSpace(req.To)
	if to == "" || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and text are required"})
		return
	}

	tenant := auth.TenantID(c)
	h.checkAttribution(tenant)
	msg, err := h.Outbound.SendText(c.Request.Context(), tenant, to, req.Text)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message_id": msg.ProviderID()})
}

func (h *SendHandler) SendFlow(c *gin.Context) {
	var req pkgmodels.SendFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow := whatsapp.Flow{
		ID:     req.FlowID,
		Token:  orDefault(req.FlowToken, h.Flow.Token),
		CTA:    orDefault(req.FlowCTA, h.Flow.CTA),
		Action: orDefault(req.FlowAction, h.Flow.Action),
		Screen: orDefault(req.Screen, h.Flow.Screen),
	}
	tenant := auth.TenantID(c)
	h.checkAttribution(tenant)
	msg, err := h.Outbound.SendFlow(c.Request.Context(), tenant, strings.TrimSpace(req.To), flow)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message_id": msg.ProviderID()})
}

func (h *SendHandler) sendError(c *gin.Context, err error) {
	var failure *outbound.SendFailure
	if errors.As(err, &failure) {
		c.JSON(http.StatusBadGateway, gin.H{"error": failure.Error()})
		return
	}
	respondError(c, err, "Failed to record message")
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
