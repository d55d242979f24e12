package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

// HandlerConfig holds the webhook settings. AppSecret enables
// X-Hub-Signature-256 checks when ValidateUpdates is set.
type HandlerConfig struct {
	VerifyToken     string
	AppSecret       string
	ValidateUpdates bool
}

type Handler struct {
	cfg      HandlerConfig
	pipeline *Pipeline
	audit    *audit.Log
}

func NewHandler(cfg HandlerConfig, pipeline *Pipeline, auditLog *audit.Log) *Handler {
	return &Handler{cfg: cfg, pipeline: pipeline, audit: auditLog}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.cfg.VerifyToken {
			log.Println("Webhook verified successfully!")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// HandleMessage acknowledges every accepted payload with 200, including
// payloads that fail to parse or persist, so the provider does not retry.
func (h *Handler) HandleMessage(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if h.cfg.ValidateUpdates && h.cfg.AppSecret != "" {
		if !VerifySignature(h.cfg.AppSecret, body, c.GetHeader(SignatureHeader)) {
			log.Println("Rejecting webhook with invalid signature")
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	// processing outlives the provider's connection
	ctx := context.WithoutCancel(c.Request.Context())

	var payload pkgmodels.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("Error binding JSON: %v", err)
		h.audit.Record(ctx, models.WebhookLog{
			LogType:      models.LogError,
			ErrorMessage: err.Error(),
			Context:      "decode",
			RawData:      h.audit.SnapshotRaw(body),
		})
		c.Status(http.StatusOK)
		return
	}

	result := h.pipeline.Process(ctx, payload)
	if result.Failed > 0 {
		log.Printf("Webhook processed with failures: stored=%d duplicates=%d statuses=%d failed=%d",
			result.Stored, result.Duplicates, result.Statuses, result.Failed)
	}
	c.Status(http.StatusOK)
}
